package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rchen/bookmind/internal/format"
	"github.com/rchen/bookmind/internal/model"
	"github.com/rchen/bookmind/internal/schema"
)

// fakeClient records calls and serves canned results.
type fakeClient struct {
	storeCalls  int
	searchCalls int
	fetchCalls  int
	lastTag     string
	lastQuery   string
	lastFilters map[string]string
	results     []model.Record
	err         error
}

func (f *fakeClient) Store(_ context.Context, tag string, features map[string]string, appendFeatures []string) error {
	f.storeCalls++
	f.lastTag = tag
	return f.err
}

func (f *fakeClient) Fetch(_ context.Context, tag string) ([]model.Record, error) {
	f.fetchCalls++
	f.lastTag = tag
	return f.results, f.err
}

func (f *fakeClient) Search(_ context.Context, scopeTag, query string, filters map[string]string) ([]model.Record, error) {
	f.searchCalls++
	f.lastTag = scopeTag
	f.lastQuery = query
	f.lastFilters = filters
	return f.results, f.err
}

func (f *fakeClient) Close() error { return nil }

func newTestAgent(client *fakeClient) *Agent {
	return New(schema.NewRegistry(), client, zap.NewNop())
}

func TestHandleLogBook(t *testing.T) {
	client := &fakeClient{}
	a := newTestAgent(client)

	resp, err := a.Handle(context.Background(), &model.Request{
		Operation: "log_book",
		User:      "reader",
		Payload: map[string]any{
			"book_title": "Scythe",
			"author":     "Neal Shusterman",
			"rating":     5,
			"status":     "finished",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.IntentLogBook, resp.Intent)
	assert.Equal(t, 1, client.storeCalls)
	assert.Equal(t, "bk-scythe", client.lastTag)

	conf, ok := resp.Data.(*format.Confirmation)
	require.True(t, ok)
	assert.Equal(t, "ok", conf.Status)
	assert.Equal(t, "bk-scythe", conf.Tag)
	assert.Equal(t, []string{"author", "book_title", "rating", "status"}, conf.AppliedFields)
}

func TestHandleRecommendFlow(t *testing.T) {
	client := &fakeClient{results: []model.Record{
		{Tag: "bk-hyperion", Features: map[string]string{"book_title": "Hyperion"}, Score: 0.8},
	}}
	a := newTestAgent(client)

	resp, err := a.Handle(context.Background(), &model.Request{
		Text: "What should I read next?",
		User: "reader",
	})
	require.NoError(t, err)
	assert.Equal(t, model.IntentRecommend, resp.Intent)
	assert.Equal(t, "user-reader", client.lastTag)

	recs, ok := resp.Data.([]format.Recommendation)
	require.True(t, ok)
	require.Len(t, recs, 1)
	assert.Equal(t, "Hyperion", recs[0].Title)
}

func TestHandleValidationFailsBeforeBackend(t *testing.T) {
	client := &fakeClient{}
	a := newTestAgent(client)

	resp, err := a.Handle(context.Background(), &model.Request{
		Operation: "log_book",
		Payload:   map[string]any{"book_title": "X", "rating": 9},
	})
	require.Error(t, err)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rating", verr.Field)
	assert.Zero(t, client.storeCalls, "validation failure must not reach the backend")
	assert.NotEmpty(t, resp.Error)
}

func TestHandleBackendFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	a := newTestAgent(client)

	_, err := a.Handle(context.Background(), &model.Request{
		Operation: "analytics",
		User:      "reader",
	})
	require.Error(t, err)
	var unavailable *model.BackendUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestHandleUnknownOperation(t *testing.T) {
	client := &fakeClient{}
	a := newTestAgent(client)

	_, err := a.Handle(context.Background(), &model.Request{Operation: "levitate"})
	var unrecognized *model.UnrecognizedOperationError
	require.ErrorAs(t, err, &unrecognized)
	assert.Zero(t, client.storeCalls+client.fetchCalls+client.searchCalls)
}

func TestHandleAnalytics(t *testing.T) {
	client := &fakeClient{results: []model.Record{
		{Tag: "bk-a", Features: map[string]string{"status": "finished", "rating": "5"}},
		{Tag: "bk-b", Features: map[string]string{"status": "reading"}},
	}}
	a := newTestAgent(client)

	resp, err := a.Handle(context.Background(), &model.Request{Operation: "analytics", User: "reader"})
	require.NoError(t, err)
	assert.Equal(t, "bk-", client.lastTag)

	report, ok := resp.Data.(*format.AnalyticsReport)
	require.True(t, ok)
	assert.Equal(t, 2, report.TotalBooks)
	assert.Equal(t, 1, report.ByStatus["finished"])
}

func TestHandleSimilarMissingReference(t *testing.T) {
	client := &fakeClient{}
	a := newTestAgent(client)

	_, err := a.Handle(context.Background(), &model.Request{
		Operation: "recommend_similar",
		User:      "reader",
	})
	var missing *model.MissingParameterError
	require.ErrorAs(t, err, &missing)
	assert.Zero(t, client.searchCalls)
}
