package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"hybridsearch/internal/model"
)

// DefaultSemanticLimit is generous on purpose: fusion needs candidates to re-rank
const DefaultSemanticLimit = 50

// Embedder turns query text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex answers nearest-neighbour queries
type VectorIndex interface {
	Query(ctx context.Context, embedding []float32, limit int) ([]model.VectorMatch, error)
}

// SemanticRetriever returns property IDs ranked by similarity to free text.
// It never applies structured filters.
type SemanticRetriever struct {
	embedder     Embedder
	index        VectorIndex
	defaultLimit int
	timeout      time.Duration
	logger       *slog.Logger
}

// NewSemanticRetriever creates a retriever; timeout bounds each external call
func NewSemanticRetriever(embedder Embedder, index VectorIndex, defaultLimit int, timeout time.Duration, logger *slog.Logger) *SemanticRetriever {
	if defaultLimit <= 0 {
		defaultLimit = DefaultSemanticLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticRetriever{
		embedder:     embedder,
		index:        index,
		defaultLimit: defaultLimit,
		timeout:      timeout,
		logger:       logger,
	}
}

// Retrieve returns candidates, or an empty slice if retrieval is unavailable
func (r *SemanticRetriever) Retrieve(ctx context.Context, queryText string, limit int) []model.SemanticCandidate {
	candidates, _ := r.RetrieveWithStatus(ctx, queryText, limit)
	return candidates
}

// RetrieveWithStatus is Retrieve plus the reason retrieval degraded. The
// error always wraps ErrRetrievalUnavailable and the slice is then empty.
func (r *SemanticRetriever) RetrieveWithStatus(ctx context.Context, queryText string, limit int) ([]model.SemanticCandidate, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if strings.TrimSpace(queryText) == "" {
		queryText = DefaultSemanticDescription
	}
	if r.embedder == nil || r.index == nil {
		return r.degrade("config", errors.New("not configured"))
	}

	embedding, err := r.embed(ctx, queryText)
	if err != nil {
		return r.degrade("embedding", err)
	}

	matches, err := r.query(ctx, embedding, limit)
	if err != nil {
		return r.degrade("vector_index", err)
	}

	return toCandidates(matches, limit), nil
}

func (r *SemanticRetriever) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	return r.embedder.Embed(ctx, text)
}

func (r *SemanticRetriever) query(ctx context.Context, embedding []float32, limit int) ([]model.VectorMatch, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()
	return r.index.Query(ctx, embedding, limit)
}

func (r *SemanticRetriever) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *SemanticRetriever) degrade(dependency string, err error) ([]model.SemanticCandidate, error) {
	r.logger.Warn("semantic retrieval unavailable, continuing structured-only",
		"stage", "semantic", "dependency", dependency, "error", err)
	return []model.SemanticCandidate{}, fmt.Errorf("%w: %s: %w", ErrRetrievalUnavailable, dependency, err)
}

// toCandidates converts distances to similarity in [0,100], keeps the best
// hit per ID and orders by similarity desc, then ID
func toCandidates(matches []model.VectorMatch, limit int) []model.SemanticCandidate {
	best := make(map[string]float64, len(matches))
	for _, m := range matches {
		if m.ID == "" {
			continue
		}
		sim := (1 - m.Distance) * 100
		switch {
		case sim < 0:
			sim = 0
		case sim > 100:
			sim = 100
		}
		if prev, ok := best[m.ID]; !ok || sim > prev {
			best[m.ID] = sim
		}
	}

	out := make([]model.SemanticCandidate, 0, len(best))
	for id, sim := range best {
		out = append(out, model.SemanticCandidate{PropertyID: id, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].PropertyID < out[j].PropertyID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CandidateIDs lists candidate IDs in rank order
func CandidateIDs(candidates []model.SemanticCandidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.PropertyID
	}
	return ids
}
