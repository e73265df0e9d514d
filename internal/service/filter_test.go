package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"hybridsearch/internal/model"
	"hybridsearch/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioStore(t *testing.T) *MockStore {
	t.Helper()
	mem, err := repository.LoadMemoryStore(filepath.Join("testdata", "properties.json"))
	require.NoError(t, err)
	return &MockStore{Memory: mem}
}

// tenProperties has IDs 1..10 with increasing price and no features
func tenProperties() *repository.MemoryStore {
	props := make([]model.Property, 10)
	for i := range props {
		props[i] = model.Property{
			ID:       fmt.Sprint(i + 1),
			Price:    fptr(float64(1000 + 10*i)),
			Features: []string{},
		}
	}
	return repository.NewMemoryStore(props)
}

func rowIDs(rows []model.CandidateProperty) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestBuildPredicate(t *testing.T) {
	piso := " piso "
	intent := &model.Intent{
		PriceMin:         fptr(0),
		PriceMax:         fptr(1500),
		RoomsMin:         fptr(2),
		AreaMin:          fptr(60),
		PropertyType:     &piso,
		RequiredFeatures: []string{"ascensor", "sauna"},
		PreferredZones:   []string{"Centro", " "},
	}

	p := BuildPredicate(intent, testVocabulary())

	assert.Equal(t, 0.0, *p.Price.Min)
	assert.Equal(t, 1500.0, *p.Price.Max)
	assert.Equal(t, 2.0, *p.Rooms.Min)
	assert.Nil(t, p.Rooms.Max)
	assert.Equal(t, 60.0, *p.Area.Min)
	assert.Equal(t, "piso", p.TypeEquals)
	assert.Equal(t, []string{"ascensor"}, p.RequiredFeatures, "unknown vocabulary entries are skipped")
	assert.Equal(t, []string{"Centro"}, p.Zones)

	assert.True(t, BuildPredicate(&model.Intent{}, testVocabulary()).IsEmpty())
}

// Scenario A
func TestStructuredFilter_PriceAndElevator(t *testing.T) {
	store := scenarioStore(t)
	f := NewStructuredFilter(store, testVocabulary(), 0, 0, time.Second, quietLogger())

	intent := &model.Intent{PriceMax: fptr(1500), RequiredFeatures: []string{"ascensor"}}
	for _, hint := range [][]string{nil, {"2"}, {"2", "3", "1"}} {
		rows, err := f.Filter(context.Background(), intent, hint)
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "3"}, sortedIDs(rows), "hint %v", hint)
		for _, r := range rows {
			assert.LessOrEqual(t, *r.Price, 1500.0)
			assert.True(t, r.HasFeature("ascensor"))
		}
	}

	q := store.Queries[0]
	assert.Equal(t, DefaultStructuredCap, q.Limit)
	assert.Equal(t, DefaultStructuralBonus, q.Bonus)
}

func TestStructuredFilter_NoConstraintsReturnsUniverse(t *testing.T) {
	f := NewStructuredFilter(&MockStore{Memory: tenProperties()}, testVocabulary(), 100, 100, 0, quietLogger())

	rows, err := f.Filter(context.Background(), &model.Intent{SemanticDescription: "vivienda"}, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}, rowIDs(rows))
}

func TestStructuredFilter_HintIsMonotonic(t *testing.T) {
	f := NewStructuredFilter(&MockStore{Memory: tenProperties()}, testVocabulary(), 100, 100, 0, quietLogger())
	intent := &model.Intent{PriceMax: fptr(1060)}

	plain, err := f.Filter(context.Background(), intent, nil)
	require.NoError(t, err)

	hinted, err := f.Filter(context.Background(), intent, []string{"5", "9", "unknown"})
	require.NoError(t, err)

	assert.Len(t, hinted, len(plain))
	assert.Equal(t, "5", hinted[0].ID)
	assert.Equal(t, 100.0, hinted[0].StructuralBonus)
	for _, r := range hinted[1:] {
		assert.Equal(t, 0.0, r.StructuralBonus)
	}
}

func TestStructuredFilter_Cap(t *testing.T) {
	f := NewStructuredFilter(&MockStore{Memory: tenProperties()}, testVocabulary(), 3, 100, 0, quietLogger())

	rows, err := f.Filter(context.Background(), &model.Intent{}, []string{"10"})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "1", "2"}, rowIDs(rows))
}

func TestStructuredFilter_CompleteHintMatchesHintedFilter(t *testing.T) {
	tests := []struct {
		name   string
		intent *model.Intent
		ids    []string
		calls  int
	}{
		{"hinted rows beyond the cap", &model.Intent{}, []string{"10", "7"}, 2},
		{"hinted rows inside the cap", &model.Intent{}, []string{"2"}, 1},
		{"hinted row excluded by predicate", &model.Intent{PriceMax: fptr(1050)}, []string{"9", "8"}, 2},
		{"no candidates", &model.Intent{}, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			want, err := NewStructuredFilter(&MockStore{Memory: tenProperties()}, testVocabulary(), 2, 100, 0, quietLogger()).
				Filter(ctx, tt.intent, tt.ids)
			require.NoError(t, err)

			store := &MockStore{Memory: tenProperties()}
			f := NewStructuredFilter(store, testVocabulary(), 2, 100, 0, quietLogger())
			rows, err := f.Filter(ctx, tt.intent, nil)
			require.NoError(t, err)
			got, err := f.CompleteHint(ctx, tt.intent, rows, tt.ids)
			require.NoError(t, err)

			assert.Equal(t, want, got)
			assert.Equal(t, tt.calls, store.Calls())
		})
	}
}

func TestStructuredFilter_CompleteHintStoreError(t *testing.T) {
	store := &MockStore{Memory: tenProperties()}
	f := NewStructuredFilter(store, testVocabulary(), 2, 100, 0, quietLogger())
	rows, err := f.Filter(context.Background(), &model.Intent{}, nil)
	require.NoError(t, err)

	store.Err = errors.New("connection reset")
	rows, err = f.CompleteHint(context.Background(), &model.Intent{}, rows, []string{"9"})
	assert.ErrorIs(t, err, ErrFilterUnavailable)
	assert.Nil(t, rows)
}

func TestStructuredFilter_Failures(t *testing.T) {
	tests := []struct {
		name  string
		store *MockStore
	}{
		{"store error", &MockStore{Err: errors.New("connection refused")}},
		{"store timeout", &MockStore{Block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewStructuredFilter(tt.store, testVocabulary(), 0, 0, 20*time.Millisecond, quietLogger())
			rows, err := f.Filter(context.Background(), &model.Intent{}, nil)
			assert.ErrorIs(t, err, ErrFilterUnavailable)
			assert.Nil(t, rows, "no partial rows")
		})
	}
}

func TestApplyHint(t *testing.T) {
	rows := []model.CandidateProperty{
		{Property: model.Property{ID: "a", Price: fptr(900)}, StructuralBonus: 100},
		{Property: model.Property{ID: "b", Price: fptr(800)}},
		{Property: model.Property{ID: "c"}},
	}

	out := ApplyHint(rows, []string{"c"}, 100)
	assert.Equal(t, []string{"c", "b", "a"}, rowIDs(out))
	assert.Equal(t, 100.0, out[0].StructuralBonus)
	assert.Equal(t, 0.0, out[2].StructuralBonus)
	assert.Equal(t, 100.0, rows[0].StructuralBonus, "input is not modified")
}

func sortedIDs(rows []model.CandidateProperty) []string {
	ids := rowIDs(rows)
	sort.Strings(ids)
	return ids
}
