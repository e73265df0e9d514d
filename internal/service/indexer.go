package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"hybridsearch/internal/model"
)

// VectorSink accepts document vectors
type VectorSink interface {
	Add(ctx context.Context, id string, embedding []float32, metadata model.Metadata) error
}

// Indexer embeds property documents into a vector index. It is an offline
// tool; the search path never writes.
type Indexer struct {
	embedder Embedder
	sink     VectorSink
	logger   *slog.Logger
	progress func(done, total int)
}

// NewIndexer creates a new indexer
func NewIndexer(embedder Embedder, sink VectorSink, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{embedder: embedder, sink: sink, logger: logger}
}

// OnProgress registers a callback run after each property
func (ix *Indexer) OnProgress(fn func(done, total int)) *Indexer {
	ix.progress = fn
	return ix
}

// Index embeds and stores every property, returning the number indexed and
// one message per failed property
func (ix *Indexer) Index(ctx context.Context, properties []model.Property) (int, []string) {
	success := 0
	var errs []string

	for i, p := range properties {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Sprintf("aborted: %v", err))
			break
		}
		if err := ix.indexOne(ctx, p); err != nil {
			errs = append(errs, fmt.Sprintf("property %s: %v", p.ID, err))
		} else {
			success++
		}
		if ix.progress != nil {
			ix.progress(i+1, len(properties))
		}
	}

	ix.logger.Info("indexing finished", "stage", "index", "indexed", success, "failed", len(errs))
	return success, errs
}

func (ix *Indexer) indexOne(ctx context.Context, p model.Property) error {
	embedding, err := ix.embedder.Embed(ctx, PropertyDocument(p))
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	return ix.sink.Add(ctx, p.ID, embedding, propertyMetadata(p))
}

// PropertyDocument renders the text a property is embedded from
func PropertyDocument(p model.Property) string {
	var parts []string
	if p.Type != "" {
		parts = append(parts, p.Type)
	} else {
		parts = append(parts, DefaultSemanticDescription)
	}
	if p.Zone != "" {
		parts = append(parts, "en "+p.Zone)
	}
	if p.Rooms != nil {
		parts = append(parts, strconv.FormatFloat(*p.Rooms, 'f', -1, 64)+" habitaciones")
	}
	if p.Area != nil {
		parts = append(parts, strconv.FormatFloat(*p.Area, 'f', -1, 64)+" m2")
	}
	for _, attr := range []string{p.Floor, p.Luminosity, p.Orientation, p.RenovationState} {
		if attr != "" {
			parts = append(parts, attr)
		}
	}
	for _, f := range p.Features {
		parts = append(parts, strings.ReplaceAll(f, "_", " "))
	}
	return strings.Join(parts, ", ")
}

func propertyMetadata(p model.Property) model.Metadata {
	md := model.Metadata{}
	if p.Zone != "" {
		md["zone"] = p.Zone
	}
	if p.Type != "" {
		md["type"] = p.Type
	}
	if p.URL != "" {
		md["url"] = p.URL
	}
	return md
}
