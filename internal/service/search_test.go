package service

import (
	"context"
	"errors"
	"testing"

	"hybridsearch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchFixture struct {
	extractor *MockExtractor
	embedder  *MockEmbedder
	index     *MockIndex
	store     *MockStore
}

func newSearchFixture(t *testing.T) *searchFixture {
	return &searchFixture{
		extractor: &MockExtractor{Payload: `{"price_max": 1500, "required_features": ["ascensor"], "semantic_description": "piso luminoso"}`},
		embedder:  &MockEmbedder{Vector: []float32{1, 0}},
		index: &MockIndex{Matches: []model.VectorMatch{
			{ID: "3", Distance: 0.1},
			{ID: "2", Distance: 0.2},
		}},
		store: scenarioStore(t),
	}
}

func (f *searchFixture) service(opts SearchOptions) *SearchService {
	logger := quietLogger()
	vocab := testVocabulary()
	validator := NewIntentValidator(IntentPolicy{MinPlausiblePrice: 50}, vocab, logger)
	svc := NewSearchService(
		NewIntentParser(f.extractor, validator, 0, logger),
		validator,
		NewSemanticRetriever(f.embedder, f.index, DefaultSemanticLimit, 0, logger),
		NewStructuredFilter(f.store, vocab, 0, 0, 0, logger),
		NewFuser(DefaultFusionWeights(), DefaultTagRules()),
		f.store,
		opts,
		logger,
	)
	svc.NewSearchID = func() string { return "search-1" }
	return svc
}

func presentedIDs(results []model.PresentedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestSearchService_Search(t *testing.T) {
	f := newSearchFixture(t)
	resp, err := f.service(SearchOptions{}).Search(context.Background(), "piso con ascensor hasta 1500", 0)
	require.NoError(t, err)

	assert.Equal(t, "search-1", resp.SearchID)
	assert.Equal(t, model.StatusOK, resp.Status)
	assert.Empty(t, resp.Message)
	assert.Empty(t, resp.Degraded)
	assert.Equal(t, []string{"3", "1"}, presentedIDs(resp.Results), "semantic hit ranks first, 1600 never appears")
	assert.Equal(t, 2, resp.Total)
	require.NotNil(t, resp.Intent)
	assert.Equal(t, []string{"ascensor"}, resp.Intent.RequiredFeatures)

	require.Len(t, f.store.Queries, 1)
	assert.Equal(t, []string{"3", "2"}, f.store.Queries[0].HintIDs)
	assert.Equal(t, []string{"piso luminoso"}, f.embedder.Texts)
}

func TestSearchService_EmptyStore(t *testing.T) {
	f := newSearchFixture(t)
	f.extractor.Payload = `{"price_max": 100}`

	resp, err := f.service(SearchOptions{}).Search(context.Background(), "algo muy barato", 0)
	require.NoError(t, err)

	assert.Equal(t, model.StatusEmpty, resp.Status)
	assert.Equal(t, MessageEmpty, resp.Message)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.Total)
}

func TestSearchIntent_InvalidPayloadFailsBeforeRetrieval(t *testing.T) {
	f := newSearchFixture(t)
	svc := f.service(SearchOptions{})

	for _, payload := range []string{"", "not json", "[1,2]", "null"} {
		resp, err := svc.SearchIntent(context.Background(), []byte(payload), 0)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, resp.Status, payload)
		assert.Equal(t, MessageFailed, resp.Message)
		assert.Empty(t, resp.Results)
	}
	assert.Zero(t, f.embedder.Calls())
	assert.Zero(t, f.store.Calls())
}

func TestSearchService_ExtractorFailure(t *testing.T) {
	f := newSearchFixture(t)
	f.extractor.Err = errors.New("model overloaded")

	resp, err := f.service(SearchOptions{}).Search(context.Background(), "piso", 0)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, resp.Status)
	assert.Nil(t, resp.Intent)
	assert.Zero(t, f.embedder.Calls())
	assert.Zero(t, f.store.Calls())
}

func TestSearchService_DegradesWithoutSemantic(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.Err = errors.New("connection refused")

	resp, err := f.service(SearchOptions{}).Search(context.Background(), "piso", 0)
	require.NoError(t, err)

	assert.Equal(t, model.StatusOK, resp.Status)
	assert.Equal(t, []string{DegradedSemantic}, resp.Degraded)
	assert.Equal(t, []string{"1", "3"}, presentedIDs(resp.Results), "price breaks the tie")
	require.Len(t, f.store.Queries, 1)
	assert.Empty(t, f.store.Queries[0].HintIDs)
}

func TestSearchService_StoreFailure(t *testing.T) {
	f := newSearchFixture(t)
	f.store.Err = errors.New("neo4j down")

	resp, err := f.service(SearchOptions{}).Search(context.Background(), "piso", 0)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, resp.Status)
	assert.Equal(t, MessageFailed, resp.Message)
	assert.Empty(t, resp.Results)
}

func TestSearchService_ParallelMatchesSequential(t *testing.T) {
	seq, err := newSearchFixture(t).service(SearchOptions{}).Search(context.Background(), "piso", 0)
	require.NoError(t, err)

	f := newSearchFixture(t)
	par, err := f.service(SearchOptions{Parallel: true}).Search(context.Background(), "piso", 0)
	require.NoError(t, err)

	assert.Equal(t, seq.Status, par.Status)
	assert.Equal(t, seq.Results, par.Results)
	require.Len(t, f.store.Queries, 1)
	assert.Empty(t, f.store.Queries[0].HintIDs, "parallel mode applies the hint in process")
}

func TestSearchService_Limit(t *testing.T) {
	f := newSearchFixture(t)
	f.extractor.Payload = `{}`
	svc := f.service(SearchOptions{PresentationSize: 1, MaxResults: 2})

	resp, err := svc.Search(context.Background(), "piso", 0)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, 3, resp.Total)

	resp, err = svc.Search(context.Background(), "piso", 50)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearchService_Cancelled(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.Block = true
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := f.service(SearchOptions{}).Search(ctx, "piso", 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, resp)
}

func TestSearchService_StreamEvents(t *testing.T) {
	f := newSearchFixture(t)
	var events []string
	resp, err := f.service(SearchOptions{}).SearchStream(context.Background(), "piso", 0, func(event string, data any) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, resp.Status)
	assert.Equal(t, []string{"parsing", "intent", "semantic", "structured", "ranked"}, events)
}

func TestSearchService_StreamCallbackError(t *testing.T) {
	f := newSearchFixture(t)
	boom := errors.New("client gone")
	_, err := f.service(SearchOptions{}).SearchStream(context.Background(), "piso", 0, func(event string, data any) error {
		if event == "semantic" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.store.Calls())
}

func TestSearchService_GetProperty(t *testing.T) {
	f := newSearchFixture(t)
	svc := f.service(SearchOptions{})

	p, err := svc.GetProperty(context.Background(), "2")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Salamanca", p.Zone)

	p, err = svc.GetProperty(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSearchService_ParallelKeepsHintedRowsBeyondCap(t *testing.T) {
	build := func(parallel bool) (*SearchService, *MockStore) {
		logger := quietLogger()
		vocab := testVocabulary()
		store := &MockStore{Memory: tenProperties()}
		validator := NewIntentValidator(IntentPolicy{}, vocab, logger)
		index := &MockIndex{Matches: []model.VectorMatch{{ID: "9", Distance: 0.1}}}
		svc := NewSearchService(
			NewIntentParser(&MockExtractor{Payload: `{}`}, validator, 0, logger),
			validator,
			NewSemanticRetriever(&MockEmbedder{Vector: []float32{1}}, index, 0, 0, logger),
			NewStructuredFilter(store, vocab, 2, 0, 0, logger),
			NewFuser(DefaultFusionWeights(), DefaultTagRules()),
			store,
			SearchOptions{Parallel: parallel},
			logger,
		)
		return svc, store
	}

	seqSvc, _ := build(false)
	seq, err := seqSvc.Search(context.Background(), "piso", 0)
	require.NoError(t, err)

	parSvc, parStore := build(true)
	par, err := parSvc.Search(context.Background(), "piso", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"9", "1"}, presentedIDs(seq.Results))
	assert.Equal(t, presentedIDs(seq.Results), presentedIDs(par.Results))
	assert.Equal(t, seq.Results, par.Results)
	require.Len(t, parStore.Queries, 2)
	assert.Equal(t, []string{"9"}, parStore.Queries[1].OnlyIDs)
}
