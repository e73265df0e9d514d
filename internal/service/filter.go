package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hybridsearch/internal/model"
)

const (
	// DefaultStructuredCap bounds fusion cost for over-broad queries
	DefaultStructuredCap = 100
	// DefaultStructuralBonus is given to rows the semantic pass also found
	DefaultStructuralBonus = 100.0
)

// PropertyStore is the authoritative attribute/graph store
type PropertyStore interface {
	Find(ctx context.Context, q model.FindQuery) ([]model.CandidateProperty, error)
	GetProperty(ctx context.Context, id string) (*model.Property, error)
}

// BuildPredicate translates an intent into mandatory constraints. Numeric
// bounds, type, vocabulary features and zones are all conjunctive.
func BuildPredicate(intent *model.Intent, vocab *model.Vocabulary) model.Predicate {
	p := model.Predicate{
		Price: model.Range{Min: intent.PriceMin, Max: intent.PriceMax},
		Rooms: model.Range{Min: intent.RoomsMin, Max: intent.RoomsMax},
		Area:  model.Range{Min: intent.AreaMin},
	}

	if intent.PropertyType != nil {
		p.TypeEquals = strings.TrimSpace(*intent.PropertyType)
	}

	for _, f := range intent.RequiredFeatures {
		if vocab != nil && !vocab.Contains(f) {
			continue
		}
		p.RequiredFeatures = append(p.RequiredFeatures, f)
	}

	for _, z := range intent.PreferredZones {
		if z = strings.TrimSpace(z); z != "" {
			p.Zones = append(p.Zones, z)
		}
	}

	return p
}

// StructuredFilter runs the predicate against the store
type StructuredFilter struct {
	store   PropertyStore
	vocab   *model.Vocabulary
	maxRows int
	bonus   float64
	timeout time.Duration
	logger  *slog.Logger
}

// NewStructuredFilter creates a filter; zero maxRows and bonus take the defaults
func NewStructuredFilter(store PropertyStore, vocab *model.Vocabulary, maxRows int, bonus float64, timeout time.Duration, logger *slog.Logger) *StructuredFilter {
	if maxRows <= 0 {
		maxRows = DefaultStructuredCap
	}
	if bonus <= 0 {
		bonus = DefaultStructuralBonus
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuredFilter{store: store, vocab: vocab, maxRows: maxRows, bonus: bonus, timeout: timeout, logger: logger}
}

// Bonus is the structural bonus given to hinted rows
func (f *StructuredFilter) Bonus() float64 {
	return f.bonus
}

// Filter returns every property satisfying the intent's mandatory predicates,
// pre-sorted and capped. candidateIDs only adjust StructuralBonus.
func (f *StructuredFilter) Filter(ctx context.Context, intent *model.Intent, candidateIDs []string) ([]model.CandidateProperty, error) {
	q := model.FindQuery{
		Predicate: BuildPredicate(intent, f.vocab),
		HintIDs:   candidateIDs,
		Bonus:     f.bonus,
		Limit:     f.maxRows,
	}

	if !intent.HasConstraints() {
		f.logger.Debug("intent has no mandatory constraints, filtering the whole catalogue", "stage", "structured")
	}
	rows, err := f.find(ctx, q)
	if err != nil {
		return nil, err
	}

	rows = ApplyHint(rows, candidateIDs, f.bonus)
	if len(rows) > f.maxRows {
		rows = rows[:f.maxRows]
	}
	if len(rows) == f.maxRows {
		f.logger.Debug("structured result set reached the cap", "stage", "structured", "cap", f.maxRows)
	}
	return rows, nil
}

func (f *StructuredFilter) find(ctx context.Context, q model.FindQuery) ([]model.CandidateProperty, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	rows, err := f.store.Find(ctx, q)
	if err != nil {
		f.logger.Error("structured store query failed",
			"stage", "structured", "dependency", "property_store", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFilterUnavailable, err)
	}
	return rows, nil
}

// CompleteHint applies candidateIDs to rows fetched without them, as in the
// parallel pipeline. When rows hit the cap, hinted properties the store had
// cut are fetched by ID so the result equals a hinted Filter call.
func (f *StructuredFilter) CompleteHint(ctx context.Context, intent *model.Intent, rows []model.CandidateProperty, candidateIDs []string) ([]model.CandidateProperty, error) {
	if len(rows) >= f.maxRows && len(candidateIDs) > 0 {
		present := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			present[r.ID] = struct{}{}
		}
		var missing []string
		for _, id := range candidateIDs {
			if _, ok := present[id]; !ok {
				missing = append(missing, id)
			}
		}

		if len(missing) > 0 {
			extra, err := f.find(ctx, model.FindQuery{
				Predicate: BuildPredicate(intent, f.vocab),
				Limit:     len(missing),
				OnlyIDs:   missing,
			})
			if err != nil {
				return nil, err
			}
			rows = append(append([]model.CandidateProperty(nil), rows...), extra...)
		}
	}

	rows = ApplyHint(rows, candidateIDs, f.bonus)
	if len(rows) > f.maxRows {
		rows = rows[:f.maxRows]
	}
	return rows, nil
}

// ApplyHint returns a copy of rows with bonuses recomputed from ids and the
// pre-sort reapplied. It never drops a row.
func ApplyHint(rows []model.CandidateProperty, ids []string, bonus float64) []model.CandidateProperty {
	hinted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		hinted[id] = struct{}{}
	}

	out := make([]model.CandidateProperty, len(rows))
	for i, row := range rows {
		row.StructuralBonus = 0
		if _, ok := hinted[row.ID]; ok {
			row.StructuralBonus = bonus
		}
		out[i] = row
	}
	model.SortCandidates(out)
	return out
}
