// Package app wires configured backends into a search service shared by the
// HTTP server and the command line tool.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"hybridsearch/internal/config"
	"hybridsearch/internal/model"
	"hybridsearch/internal/repository"
	"hybridsearch/internal/service"
)

// Engine holds the wired pipeline and the resources it owns
type Engine struct {
	Config *config.Config
	Search *service.SearchService
	Store  service.PropertyStore
	OpenAI *service.OpenAIClient // nil when disabled
	Logger *slog.Logger

	closers []func() error
}

// NewLogger builds a slog logger from logging configuration
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New connects the configured backends and builds the search service. On
// error every resource opened so far is released.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{Config: cfg, Logger: logger}

	store, err := e.openStore(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Store = store

	index, err := e.openIndex()
	if err != nil {
		e.Close()
		return nil, err
	}

	var (
		extractor service.IntentExtractor
		embedder  service.Embedder
	)
	if cfg.OpenAI.Enabled {
		e.OpenAI = service.NewOpenAIClient(cfg.OpenAI, cfg.Intent.FeatureVocabulary)
		extractor = e.OpenAI
		embedder = e.OpenAI
	} else {
		logger.Warn("OpenAI is disabled, queries run without intent extraction or semantic retrieval",
			"dependency", "llm")
	}

	vocab := model.NewVocabulary(cfg.Intent.FeatureVocabulary, cfg.Intent.FeatureAliases)
	validator := service.NewIntentValidator(service.IntentPolicy{
		MinPlausiblePrice:  cfg.Intent.MinPlausiblePrice,
		DefaultDescription: cfg.Intent.DefaultDescription,
	}, vocab, logger)

	fuser := service.NewFuser(fusionWeights(cfg.Ranking), service.DefaultTagRules())
	logger.Info("ranking policy loaded", "weights", fuser.Weights(), "parallel", cfg.Search.Parallel)

	e.Search = service.NewSearchService(
		service.NewIntentParser(extractor, validator, cfg.Timeouts.Intent, logger),
		validator,
		service.NewSemanticRetriever(embedder, index, cfg.Search.SemanticLimit, cfg.Timeouts.Embedding, logger),
		service.NewStructuredFilter(store, vocab, cfg.Search.StructuredCap, cfg.Search.StructuralBonus, cfg.Timeouts.Store, logger),
		fuser,
		store,
		service.SearchOptions{
			SemanticLimit:    cfg.Search.SemanticLimit,
			PresentationSize: cfg.Search.PresentationSize,
			MaxResults:       cfg.Search.MaxResults,
			Parallel:         cfg.Search.Parallel,
		},
		logger,
	)
	return e, nil
}

func fusionWeights(r config.RankingConfig) service.FusionWeights {
	return service.FusionWeights{
		Semantic:            r.WeightSemantic,
		SemanticMissPenalty: r.SemanticMissPenalty,
		Structural:          r.WeightStructural,
		Features:            r.WeightFeatures,
		Desired:             r.WeightDesired,
		TagBonus:            r.TagBonus,
		PricePenalty:        r.WeightPricePenalty,
	}
}

func (e *Engine) openStore(ctx context.Context) (service.PropertyStore, error) {
	cfg := e.Config.Neo4j
	switch cfg.Backend {
	case "memory":
		store, err := repository.LoadMemoryStore(cfg.Fixture)
		if err != nil {
			return nil, fmt.Errorf("load property fixture: %w", err)
		}
		e.Logger.Info("using in-memory property store", "fixture", cfg.Fixture, "properties", store.Len())
		return store, nil
	default:
		driver, err := repository.NewNeo4jDriver(ctx, cfg.URI, cfg.User, cfg.Password, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to neo4j: %w", err)
		}
		e.closers = append(e.closers, func() error { return driver.Close(context.Background()) })
		e.Logger.Info("connected to neo4j", "uri", cfg.URI, "database", cfg.Database)
		return repository.NewNeo4jStore(driver), nil
	}
}

func (e *Engine) openIndex() (service.VectorIndex, error) {
	cfg := e.Config.Vector
	switch cfg.Backend {
	case "pgvector":
		idx, err := repository.NewPgVectorIndex(
			e.Config.GetPostgreSQLDSN(),
			cfg.Table,
			e.Config.PostgreSQL.MaxConnections,
			e.Config.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, fmt.Errorf("connect to pgvector: %w", err)
		}
		e.closers = append(e.closers, idx.Close)
		e.Logger.Info("connected to pgvector index", "table", cfg.Table)
		return idx, nil
	default:
		idx, err := repository.OpenChromemIndex(cfg.PersistPath, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("open chromem index: %w", err)
		}
		e.Logger.Info("opened chromem index", "path", cfg.PersistPath, "documents", idx.Count())
		return idx, nil
	}
}

// Close releases backend connections
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}
