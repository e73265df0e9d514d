package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the free-form document metadata stored next to an embedding
type Metadata map[string]string

// Value implements driver.Valuer interface
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner interface
func (m *Metadata) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return m.decode(v)
	case string:
		return m.decode([]byte(v))
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", value)
	}
}

// decode accepts non-string JSON values and stringifies them
func (m *Metadata) decode(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Metadata, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	*m = out
	return nil
}
