package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"hybridsearch/internal/config"
	"hybridsearch/internal/model"
	"hybridsearch/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fptr(v float64) *float64 { return &v }

func testVocabulary() *model.Vocabulary {
	return model.NewVocabulary(config.DefaultFeatureVocabulary, config.DefaultFeatureAliases)
}

type MockExtractor struct {
	Payload string
	Err     error
	Calls   int
}

func (m *MockExtractor) ExtractIntent(ctx context.Context, query string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Payload, nil
}

type MockEmbedder struct {
	Vector []float32
	Err    error
	Block  bool // wait for ctx cancellation
	mu     sync.Mutex
	Texts  []string
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	m.mu.Unlock()
	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Vector, nil
}

func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Texts)
}

type MockIndex struct {
	Matches []model.VectorMatch
	Err     error
	Limit   int
}

func (m *MockIndex) Query(ctx context.Context, embedding []float32, limit int) ([]model.VectorMatch, error) {
	m.Limit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Matches, nil
}

// MockStore records queries and delegates to a MemoryStore unless Err is set
type MockStore struct {
	Memory  *repository.MemoryStore
	Err     error
	Block   bool
	mu      sync.Mutex
	Queries []model.FindQuery
}

func (m *MockStore) Find(ctx context.Context, q model.FindQuery) ([]model.CandidateProperty, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	m.mu.Unlock()
	if m.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Memory.Find(ctx, q)
}

func (m *MockStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Memory.GetProperty(ctx, id)
}

func (m *MockStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}
