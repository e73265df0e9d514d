package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"hybridsearch/internal/model"
)

// MemoryStore evaluates predicates over an in-memory snapshot. It is the
// reference backend for local runs and tests.
type MemoryStore struct {
	properties []model.Property
	byID       map[string]int
}

// NewMemoryStore creates a store over a fixed set of properties
func NewMemoryStore(properties []model.Property) *MemoryStore {
	s := &MemoryStore{
		properties: make([]model.Property, len(properties)),
		byID:       make(map[string]int, len(properties)),
	}
	copy(s.properties, properties)
	for i, p := range s.properties {
		s.byID[p.ID] = i
	}
	return s
}

// LoadMemoryStore reads a JSON array of properties
func LoadMemoryStore(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var properties []model.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}
	return NewMemoryStore(properties), nil
}

func (s *MemoryStore) Find(ctx context.Context, q model.FindQuery) ([]model.CandidateProperty, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = DefaultFindLimit
	}

	hinted := make(map[string]struct{}, len(q.HintIDs))
	for _, id := range q.HintIDs {
		hinted[id] = struct{}{}
	}

	var only map[string]struct{}
	if q.OnlyIDs != nil {
		only = make(map[string]struct{}, len(q.OnlyIDs))
		for _, id := range q.OnlyIDs {
			only[id] = struct{}{}
		}
	}

	var rows []model.CandidateProperty
	for i := range s.properties {
		p := &s.properties[i]
		if !q.Predicate.Matches(p) {
			continue
		}
		if only != nil {
			if _, ok := only[p.ID]; !ok {
				continue
			}
		}
		row := model.CandidateProperty{Property: *p}
		if _, ok := hinted[p.ID]; ok {
			row.StructuralBonus = q.Bonus
		}
		rows = append(rows, row)
	}

	model.SortCandidates(rows)
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (s *MemoryStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	i, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	p := s.properties[i]
	return &p, nil
}

// All returns a copy of every stored property in load order
func (s *MemoryStore) All() []model.Property {
	out := make([]model.Property, len(s.properties))
	copy(out, s.properties)
	return out
}

// Len returns the number of stored properties
func (s *MemoryStore) Len() int {
	return len(s.properties)
}
