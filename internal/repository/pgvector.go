package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"hybridsearch/internal/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PgVectorIndex queries property embeddings stored in PostgreSQL with the
// pgvector extension. Expected table:
//
//	property_id text PRIMARY KEY, embedding vector(N), metadata jsonb
type PgVectorIndex struct {
	db    *sqlx.DB
	query string
}

type vectorRow struct {
	ID       string         `db:"property_id"`
	Distance float64        `db:"distance"`
	Metadata model.Metadata `db:"metadata"`
}

// NewPgVectorIndex connects to PostgreSQL and prepares the nearest-neighbour query
func NewPgVectorIndex(dsn, table string, maxConn, maxIdleConn int) (*PgVectorIndex, error) {
	query, err := buildVectorQuery(table)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPgVectorIndexFromDB(db, query), nil
}

// NewPgVectorIndexFromDB wraps an existing pool
func NewPgVectorIndexFromDB(db *sqlx.DB, query string) *PgVectorIndex {
	return &PgVectorIndex{db: db, query: query}
}

// Close closes the database connection
func (r *PgVectorIndex) Close() error {
	return r.db.Close()
}

// Query returns the nearest embeddings by cosine distance (<=>)
func (r *PgVectorIndex) Query(ctx context.Context, embedding []float32, limit int) ([]model.VectorMatch, error) {
	if limit <= 0 {
		return nil, nil
	}

	var rows []vectorRow
	if err := r.db.SelectContext(ctx, &rows, r.query, pgvector.NewVector(embedding), limit); err != nil {
		return nil, fmt.Errorf("pgvector query: %w", err)
	}

	matches := make([]model.VectorMatch, len(rows))
	for i, row := range rows {
		matches[i] = model.VectorMatch{ID: row.ID, Distance: row.Distance, Metadata: row.Metadata}
	}
	return matches, nil
}

// buildVectorQuery validates the table identifier before interpolating it
func buildVectorQuery(table string) (string, error) {
	if !tableName.MatchString(table) {
		return "", fmt.Errorf("invalid vector table name %q", table)
	}
	return fmt.Sprintf(`
		SELECT property_id, embedding <=> $1 AS distance, COALESCE(metadata, '{}'::jsonb) AS metadata
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, table), nil
}
