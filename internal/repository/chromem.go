package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"hybridsearch/internal/model"
)

// errNoEmbeddingFunc is returned if chromem is asked to embed text. Documents
// and queries always carry precomputed vectors here.
var errNoEmbeddingFunc = errors.New("chromem index only accepts precomputed embeddings")

func precomputedOnly(ctx context.Context, text string) ([]float32, error) {
	return nil, errNoEmbeddingFunc
}

// ChromemIndex is an embedded vector index backed by chromem-go
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	name       string
}

// NewChromemIndex creates an empty in-memory index
func NewChromemIndex(collectionName string) (*ChromemIndex, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemIndex{db: db, collection: col, name: collectionName}, nil
}

// OpenChromemIndex loads a persisted index exported by the ingestion
// pipeline. A missing file yields an empty index.
func OpenChromemIndex(path, collectionName string) (*ChromemIndex, error) {
	idx, err := NewChromemIndex(collectionName)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}

	if err := idx.db.ImportFromFile(path, ""); err != nil {
		return nil, fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := idx.db.GetCollection(collectionName, precomputedOnly)
	if col == nil {
		return nil, fmt.Errorf("collection %q not found after import", collectionName)
	}
	idx.collection = col
	return idx, nil
}

// Add stores a document vector
func (c *ChromemIndex) Add(ctx context.Context, id string, embedding []float32, metadata model.Metadata) error {
	return c.collection.AddDocument(ctx, chromem.Document{
		ID:        id,
		Embedding: embedding,
		Metadata:  metadata,
	})
}

// Save persists the index as a gzip-compressed file readable by
// OpenChromemIndex
func (c *ChromemIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := c.db.ExportToFile(path, true, ""); err != nil {
		return fmt.Errorf("export to file: %w", err)
	}
	return nil
}

// Query returns the nearest documents by cosine distance
func (c *ChromemIndex) Query(ctx context.Context, embedding []float32, limit int) ([]model.VectorMatch, error) {
	count := c.collection.Count()
	if count == 0 || limit <= 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	if limit > count {
		limit = count
	}

	results, err := c.collection.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	matches := make([]model.VectorMatch, len(results))
	for i, r := range results {
		matches[i] = model.VectorMatch{
			ID:       r.ID,
			Distance: 1 - float64(r.Similarity),
			Metadata: model.Metadata(r.Metadata),
		}
	}
	return matches, nil
}

// Count returns the number of indexed documents
func (c *ChromemIndex) Count() int {
	return c.collection.Count()
}
