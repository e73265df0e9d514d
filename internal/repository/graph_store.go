package repository

import (
	"context"
	"fmt"
	"strconv"

	"hybridsearch/internal/model"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DefaultFindLimit bounds a FindQuery without an explicit limit
const DefaultFindLimit = 100

// Neo4jStore is the structured property store backed by the graph
type Neo4jStore struct {
	driver GraphDriver
}

// NewNeo4jStore creates a new graph-backed property store
func NewNeo4jStore(driver GraphDriver) *Neo4jStore {
	return &Neo4jStore{driver: driver}
}

// Find returns every property matching the predicate, pre-sorted and capped
func (s *Neo4jStore) Find(ctx context.Context, q model.FindQuery) ([]model.CandidateProperty, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultFindLimit
	}

	query, params := buildFindQuery(q)
	result, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}

	rows := make([]model.CandidateProperty, 0, len(result.Records))
	for _, record := range result.Records {
		prop, err := decodeProperty(record)
		if err != nil {
			return nil, err
		}
		bonus, _ := toFloat(valueOf(record, "bonus_semantico"))
		rows = append(rows, model.CandidateProperty{Property: prop, StructuralBonus: bonus})
	}

	return rows, nil
}

// GetProperty returns a property by ID, or nil if it does not exist
func (s *Neo4jStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	query, params := buildGetQuery(id)
	result, err := s.driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("get property %s: %w", id, err)
	}
	if len(result.Records) == 0 {
		return nil, nil
	}

	prop, err := decodeProperty(result.Records[0])
	if err != nil {
		return nil, err
	}
	return &prop, nil
}

// Close releases the underlying driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func decodeProperty(record *neo4j.Record) (model.Property, error) {
	id := toString(valueOf(record, "id"))
	if id == "" {
		return model.Property{}, fmt.Errorf("decode property: record without id")
	}

	prop := model.Property{
		ID:              id,
		Price:           toFloatPtr(valueOf(record, "precio")),
		Rooms:           toFloatPtr(valueOf(record, "habitaciones")),
		Area:            toFloatPtr(valueOf(record, "metros")),
		Type:            toString(valueOf(record, "tipo_vivienda")),
		URL:             toString(valueOf(record, "url")),
		Zone:            toString(valueOf(record, "zona")),
		Floor:           toString(valueOf(record, "planta")),
		Luminosity:      toString(valueOf(record, "luminosidad")),
		Orientation:     toString(valueOf(record, "exterior_interior")),
		RenovationState: toString(valueOf(record, "reforma")),
		Features:        []string{},
	}

	if raw, ok := valueOf(record, "caracteristicas").([]interface{}); ok {
		for _, f := range raw {
			if name := toString(f); name != "" {
				prop.Features = append(prop.Features, name)
			}
		}
	}

	return prop, nil
}

func valueOf(record *neo4j.Record, key string) interface{} {
	v, _ := record.Get(key)
	return v
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func toFloatPtr(v interface{}) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}
