package repository

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type MockDriver struct {
	QueryExecuted string
	QueryParams   map[string]interface{}
	MockResult    neo4j.EagerResult
	Err           error
	Closed        bool
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.QueryExecuted = query
	m.QueryParams = params
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	m.Closed = true
	return nil
}

var recordKeys = []string{
	"id", "precio", "habitaciones", "metros", "tipo_vivienda", "url", "planta",
	"luminosidad", "exterior_interior", "reforma", "zona", "caracteristicas", "bonus_semantico",
}

func propertyRecord(id interface{}, price interface{}, zone interface{}, features []interface{}, bonus float64) *neo4j.Record {
	return &neo4j.Record{
		Keys: recordKeys,
		Values: []interface{}{
			id, price, int64(2), 70.5, "piso", "https://example.com/" + toString(id), "bajo",
			"muy luminoso", "exterior", "reformado", zone, features, bonus,
		},
	}
}
