package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rchen/bookmind/internal/model"
)

// HTTPBackend implements Client against a remote profile-memory server.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
	limit   int
}

// NewHTTPBackend builds a client for the server at baseURL. The timeout
// bounds every call; the core itself carries no timeout logic.
func NewHTTPBackend(baseURL string, timeout time.Duration, log *zap.Logger) *HTTPBackend {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
		limit:   defaultSearchLimit,
	}
}

type storeRequest struct {
	Tag            string            `json:"tag"`
	Features       map[string]string `json:"features"`
	AppendFeatures []string          `json:"append_features,omitempty"`
}

type storeResponse struct {
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

type searchRequest struct {
	ScopeTag string            `json:"scope_tag,omitempty"`
	Query    string            `json:"query,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`
	Limit    int               `json:"limit,omitempty"`
}

type resultsResponse struct {
	Results []model.Record `json:"results"`
}

func (h *HTTPBackend) Store(ctx context.Context, tag string, features map[string]string, appendFeatures []string) error {
	var out storeResponse
	err := h.post(ctx, "/v1/store", storeRequest{
		Tag:            tag,
		Features:       features,
		AppendFeatures: appendFeatures,
	}, &out)
	if err != nil {
		return err
	}
	if !out.Applied {
		if out.Error != "" {
			return fmt.Errorf("store rejected: %s", out.Error)
		}
		return fmt.Errorf("store rejected")
	}
	return nil
}

func (h *HTTPBackend) Fetch(ctx context.Context, tag string) ([]model.Record, error) {
	u := h.baseURL + "/v1/fetch?tag=" + url.QueryEscape(tag)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var out resultsResponse
	if err := h.do(req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (h *HTTPBackend) Search(ctx context.Context, scopeTag, query string, filters map[string]string) ([]model.Record, error) {
	var out resultsResponse
	err := h.post(ctx, "/v1/search", searchRequest{
		ScopeTag: scopeTag,
		Query:    query,
		Filters:  filters,
		Limit:    h.limit,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (h *HTTPBackend) Close() error { return nil }

func (h *HTTPBackend) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return h.do(req, out)
}

func (h *HTTPBackend) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	h.log.Debug("backend call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}
