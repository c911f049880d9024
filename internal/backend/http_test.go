package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPStore(t *testing.T) {
	var got storeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/store", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(storeResponse{Applied: true})
	}))
	defer srv.Close()

	h := NewHTTPBackend(srv.URL, time.Second, zap.NewNop())
	err := h.Store(context.Background(), "bk-scythe",
		map[string]string{"book_title": "Scythe"}, []string{"additional_info"})
	require.NoError(t, err)
	assert.Equal(t, "bk-scythe", got.Tag)
	assert.Equal(t, "Scythe", got.Features["book_title"])
	assert.Equal(t, []string{"additional_info"}, got.AppendFeatures)
}

func TestHTTPStoreRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(storeResponse{Applied: false, Error: "duplicate write"})
	}))
	defer srv.Close()

	h := NewHTTPBackend(srv.URL, time.Second, zap.NewNop())
	err := h.Store(context.Background(), "bk-scythe", map[string]string{"book_title": "Scythe"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate write")
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/fetch", r.URL.Path)
		require.Equal(t, "bk-", r.URL.Query().Get("tag"))
		w.Write([]byte(`{"results":[{"tag":"bk-dune","features":{"book_title":"Dune"}}]}`))
	}))
	defer srv.Close()

	h := NewHTTPBackend(srv.URL, time.Second, zap.NewNop())
	records, err := h.Fetch(context.Background(), "bk-")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "bk-dune", records[0].Tag)
	assert.Equal(t, "Dune", records[0].Features["book_title"])
}

func TestHTTPSearch(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"results":[{"tag":"bk-hyperion","features":{"book_title":"Hyperion"},"score":0.82}]}`))
	}))
	defer srv.Close()

	h := NewHTTPBackend(srv.URL, time.Second, zap.NewNop())
	records, err := h.Search(context.Background(), "user-reader", "space opera",
		map[string]string{"genre": "science fiction"})
	require.NoError(t, err)

	assert.Equal(t, "user-reader", got.ScopeTag)
	assert.Equal(t, "space opera", got.Query)
	assert.Equal(t, "science fiction", got.Filters["genre"])
	assert.Equal(t, defaultSearchLimit, got.Limit)

	require.Len(t, records, 1)
	assert.InDelta(t, 0.82, records[0].Score, 0.001)
}

func TestHTTPServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := NewHTTPBackend(srv.URL, time.Second, zap.NewNop())
	_, err := h.Fetch(context.Background(), "bk-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // shut down immediately

	h := NewHTTPBackend(srv.URL, time.Second, zap.NewNop())
	_, err := h.Fetch(context.Background(), "bk-")
	require.Error(t, err)
}
