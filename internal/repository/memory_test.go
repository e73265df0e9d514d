package repository

import (
	"context"
	"path/filepath"
	"testing"

	"hybridsearch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := LoadMemoryStore(filepath.Join("testdata", "properties.json"))
	require.NoError(t, err)
	return store
}

func ids(rows []model.CandidateProperty) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestMemoryStore_NoConstraintsReturnsEverything(t *testing.T) {
	store := loadFixture(t)

	rows, err := store.Find(context.Background(), model.FindQuery{})
	require.NoError(t, err)

	// price ascending, unknown price last
	assert.Equal(t, []string{"4", "1", "3", "2", "5"}, ids(rows))
	assert.Equal(t, 5, store.Len())
}

func TestMemoryStore_MandatoryPredicates(t *testing.T) {
	store := loadFixture(t)

	tests := []struct {
		name string
		pred model.Predicate
		want []string
	}{
		{
			name: "price max with elevator",
			pred: model.Predicate{Price: model.Range{Max: fptr(1500)}, RequiredFeatures: []string{"ascensor"}},
			want: []string{"1", "3"},
		},
		{
			name: "unknown price never satisfies a bound",
			pred: model.Predicate{Price: model.Range{Min: fptr(0)}},
			want: []string{"4", "1", "3", "2"},
		},
		{
			name: "type is case-insensitive",
			pred: model.Predicate{TypeEquals: "PISO"},
			want: []string{"4", "1", "2"},
		},
		{
			name: "zone substring",
			pred: model.Predicate{Zones: []string{"salamanca"}},
			want: []string{"3", "2"},
		},
		{
			name: "rooms window",
			pred: model.Predicate{Rooms: model.Range{Min: fptr(2), Max: fptr(3)}},
			want: []string{"4", "1", "2"},
		},
		{
			name: "nothing matches",
			pred: model.Predicate{RequiredFeatures: []string{"trastero"}},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := store.Find(context.Background(), model.FindQuery{Predicate: tt.pred})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(rows))
			for _, r := range rows {
				assert.True(t, tt.pred.Matches(&r.Property))
			}
		})
	}
}

func TestMemoryStore_HintIsSoft(t *testing.T) {
	store := loadFixture(t)
	pred := model.Predicate{RequiredFeatures: []string{"ascensor"}}

	plain, err := store.Find(context.Background(), model.FindQuery{Predicate: pred})
	require.NoError(t, err)

	hinted, err := store.Find(context.Background(), model.FindQuery{
		Predicate: pred,
		HintIDs:   []string{"2", "99", "5"},
		Bonus:     100,
	})
	require.NoError(t, err)

	assert.Len(t, hinted, len(plain))
	assert.Equal(t, []string{"2", "1", "3"}, ids(hinted))
	assert.Equal(t, 100.0, hinted[0].StructuralBonus)
	assert.Equal(t, 0.0, hinted[1].StructuralBonus)
}

func TestMemoryStore_Cap(t *testing.T) {
	store := loadFixture(t)

	rows, err := store.Find(context.Background(), model.FindQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "1"}, ids(rows))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := loadFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Find(ctx, model.FindQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_GetProperty(t *testing.T) {
	store := loadFixture(t)

	prop, err := store.GetProperty(context.Background(), "3")
	require.NoError(t, err)
	require.NotNil(t, prop)
	assert.Equal(t, "Barrio de Salamanca", prop.Zone)

	prop, err = store.GetProperty(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, prop)
}

func TestLoadMemoryStore_Errors(t *testing.T) {
	_, err := LoadMemoryStore(filepath.Join("testdata", "missing.json"))
	assert.Error(t, err)
}

func TestMemoryStore_AllIsACopy(t *testing.T) {
	store := loadFixture(t)

	all := store.All()
	require.Len(t, all, 5)
	assert.Equal(t, "1", all[0].ID)

	all[0].ID = "changed"
	prop, err := store.GetProperty(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, prop)
	assert.Equal(t, "1", store.All()[0].ID)
}

func TestMemoryStore_OnlyIDs(t *testing.T) {
	store := loadFixture(t)

	rows, err := store.Find(context.Background(), model.FindQuery{
		Predicate: model.Predicate{RequiredFeatures: []string{"ascensor"}},
		OnlyIDs:   []string{"2", "4", "3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2"}, ids(rows), "4 has no elevator")

	rows, err = store.Find(context.Background(), model.FindQuery{OnlyIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
