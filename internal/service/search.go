package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hybridsearch/internal/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// User-facing messages for non-ok terminal states
const (
	MessageFailed = "could not process your request, try rephrasing"
	MessageEmpty  = "no matches, try loosening your criteria"
)

// DegradedSemantic marks a response ranked without semantic signal
const DegradedSemantic = "semantic"

// SearchOptions sizes the pipeline
type SearchOptions struct {
	SemanticLimit    int
	PresentationSize int
	MaxResults       int
	Parallel         bool // run both retrieval branches concurrently
}

// SearchService runs the hybrid retrieval pipeline. It holds no per-query
// state; every collaborator is injected.
type SearchService struct {
	intent    *IntentParser
	validator *IntentValidator
	semantic  *SemanticRetriever
	filter    *StructuredFilter
	fuser     *Fuser
	store     PropertyStore
	opts      SearchOptions
	logger    *slog.Logger

	NewSearchID func() string
}

// NewSearchService creates a new search service
func NewSearchService(
	intentParser *IntentParser,
	validator *IntentValidator,
	semantic *SemanticRetriever,
	filter *StructuredFilter,
	fuser *Fuser,
	store PropertyStore,
	opts SearchOptions,
	logger *slog.Logger,
) *SearchService {
	if opts.PresentationSize <= 0 {
		opts.PresentationSize = DefaultPresentationSize
	}
	if opts.MaxResults < opts.PresentationSize {
		opts.MaxResults = opts.PresentationSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchService{
		intent:      intentParser,
		validator:   validator,
		semantic:    semantic,
		filter:      filter,
		fuser:       fuser,
		store:       store,
		opts:        opts,
		logger:      logger,
		NewSearchID: uuid.NewString,
	}
}

// SearchEventCallback is called for streaming search events
type SearchEventCallback func(event string, data any) error

// Search parses a natural-language query and runs the pipeline. The error is
// non-nil only if ctx was cancelled; every other outcome is a response status.
func (s *SearchService) Search(ctx context.Context, query string, limit int) (*model.SearchResponse, error) {
	return s.search(ctx, query, limit, nil)
}

// SearchIntent runs the pipeline on an already extracted intent payload
func (s *SearchService) SearchIntent(ctx context.Context, payload []byte, limit int) (*model.SearchResponse, error) {
	start := time.Now()
	resp := s.newResponse()

	intent, err := s.validator.Validate(payload)
	if err != nil {
		return s.failIntent(resp, start, err), nil
	}
	return s.run(ctx, resp, start, intent, limit, nil)
}

// SearchStream performs a search emitting one event per pipeline stage
func (s *SearchService) SearchStream(ctx context.Context, query string, limit int, callback SearchEventCallback) (*model.SearchResponse, error) {
	return s.search(ctx, query, limit, callback)
}

// GetProperty retrieves a single property by ID
func (s *SearchService) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	return s.store.GetProperty(ctx, id)
}

func (s *SearchService) search(ctx context.Context, query string, limit int, emit SearchEventCallback) (*model.SearchResponse, error) {
	start := time.Now()
	resp := s.newResponse()

	if err := send(emit, "parsing", map[string]any{"status": "Parsing your query..."}); err != nil {
		return nil, err
	}

	intent, err := s.intent.Parse(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return s.failIntent(resp, start, err), nil
	}

	if err := send(emit, "intent", intent); err != nil {
		return nil, err
	}
	return s.run(ctx, resp, start, intent, limit, emit)
}

// run executes retrieval, filtering, fusion and assembly for a valid intent
func (s *SearchService) run(
	ctx context.Context,
	resp *model.SearchResponse,
	start time.Time,
	intent *model.Intent,
	limit int,
	emit SearchEventCallback,
) (*model.SearchResponse, error) {
	resp.Intent = intent

	var (
		candidates []model.SemanticCandidate
		semErr     error
		rows       []model.CandidateProperty
		filterErr  error
	)

	if s.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			candidates, semErr = s.semantic.RetrieveWithStatus(gctx, intent.SemanticQuery(), s.opts.SemanticLimit)
			return nil
		})
		g.Go(func() error {
			rows, filterErr = s.filter.Filter(gctx, intent, nil)
			return filterErr
		})
		_ = g.Wait()

		if filterErr == nil && ctx.Err() == nil {
			rows, filterErr = s.filter.CompleteHint(ctx, intent, rows, CandidateIDs(candidates))
		}
		if err := send(emit, "semantic", semanticEvent(candidates, semErr)); err != nil {
			return nil, err
		}
	} else {
		candidates, semErr = s.semantic.RetrieveWithStatus(ctx, intent.SemanticQuery(), s.opts.SemanticLimit)
		if err := send(emit, "semantic", semanticEvent(candidates, semErr)); err != nil {
			return nil, err
		}
		if ctx.Err() == nil {
			rows, filterErr = s.filter.Filter(ctx, intent, CandidateIDs(candidates))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if semErr != nil {
		resp.Degraded = append(resp.Degraded, DegradedSemantic)
	}

	if filterErr != nil {
		resp.Status = model.StatusFailed
		resp.Message = MessageFailed
		return s.finish(resp, start, emit)
	}
	if err := send(emit, "structured", map[string]any{"count": len(rows)}); err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		resp.Status = model.StatusEmpty
		resp.Message = MessageEmpty
		return s.finish(resp, start, emit)
	}

	fused := s.fuser.Fuse(candidates, rows, intent)
	resp.Results = Assemble(fused, s.presentationSize(limit))
	resp.Total = len(fused)
	resp.Status = model.StatusOK
	return s.finish(resp, start, emit)
}

func (s *SearchService) presentationSize(limit int) int {
	if limit <= 0 {
		return s.opts.PresentationSize
	}
	if limit > s.opts.MaxResults {
		return s.opts.MaxResults
	}
	return limit
}

func (s *SearchService) newResponse() *model.SearchResponse {
	return &model.SearchResponse{
		SearchID: s.NewSearchID(),
		Results:  []model.PresentedResult{},
	}
}

func (s *SearchService) failIntent(resp *model.SearchResponse, start time.Time, err error) *model.SearchResponse {
	s.logger.Warn("intent could not be parsed", "stage", "intent", "search_id", resp.SearchID, "error", err)
	resp.Status = model.StatusFailed
	resp.Message = MessageFailed
	resp.Took = time.Since(start).Milliseconds()
	return resp
}

func (s *SearchService) finish(resp *model.SearchResponse, start time.Time, emit SearchEventCallback) (*model.SearchResponse, error) {
	resp.Took = time.Since(start).Milliseconds()
	s.logger.Info("search finished",
		"search_id", resp.SearchID,
		"status", resp.Status,
		"results", len(resp.Results),
		"total", resp.Total,
		"degraded", resp.Degraded,
		"took_ms", resp.Took,
	)
	if err := send(emit, "ranked", map[string]any{"status": resp.Status, "total": resp.Total}); err != nil {
		return nil, err
	}
	return resp, nil
}

func semanticEvent(candidates []model.SemanticCandidate, err error) map[string]any {
	return map[string]any{
		"count":    len(candidates),
		"degraded": errors.Is(err, ErrRetrievalUnavailable),
	}
}

func send(emit SearchEventCallback, event string, data any) error {
	if emit == nil {
		return nil
	}
	return emit(event, data)
}
