// Package testutil provides testing utilities for the zoning crawler.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Upstream paths mirrored by the mock.
const (
	ListPath     = "/geoportal/docs/list"
	GeometryPath = "/map/numberarea"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockAPI is a configurable mock of the geoportal API for testing.
type MockAPI struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	PathCounts   map[string]int
}

// NewMockAPI creates a new mock geoportal server.
func NewMockAPI() *MockAPI {
	mock := &MockAPI{
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + "?" + r.URL.RawQuery

		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[key]++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[key]
		if !exists {
			handler, exists = mock.handlers[r.URL.Path]
		}
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockAPI) Close() {
	m.server.Close()
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// CountFor returns the number of requests for a path (with or without
// query).
func (m *MockAPI) CountFor(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[key]
}

// SetHandler sets a custom handler for a path, or for an exact
// "path?query" key.
func (m *MockAPI) SetHandler(key string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[key] = handler
}

// SetResponse configures a canned response for a path or "path?query" key.
func (m *MockAPI) SetResponse(key string, resp MockResponse) {
	m.SetHandler(key, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetListPage configures the listing endpoint response for one page of a
// catalog.
func (m *MockAPI) SetListPage(docID, page, show int, resp MockResponse) {
	key := fmt.Sprintf("%s?id=%d&page=%d&show=%d", ListPath, docID, page, show)
	m.SetResponse(key, resp)
}

// SetGeometry configures the geometry endpoint response for one card.
func (m *MockAPI) SetGeometry(id string, resp MockResponse) {
	key := fmt.Sprintf("%s?numberarea=%s", GeometryPath, id)
	m.SetResponse(key, resp)
}

// ListRow builds one listing-page row in the upstream wire shape.
func ListRow(number, municipality, zoneName, zoneCode, description, info, cardID string) map[string]any {
	row := map[string]any{
		"columns": []string{number, municipality, zoneName, zoneCode, description, info},
		"meta":    map[string]any{},
	}
	if cardID != "" {
		row["meta"] = map[string]any{"card": cardID}
	}
	return row
}

// ListPageBody serializes rows into a listing page body.
func ListPageBody(rows ...map[string]any) string {
	if rows == nil {
		rows = []map[string]any{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// NewListResponse creates a 200 listing page response from rows.
func NewListResponse(rows ...map[string]any) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       ListPageBody(rows...),
	}
}

// NewGeometryResponse creates a 200 geometry card response.
func NewGeometryResponse(geometryJSON string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"type": "card", "geometry": %s}`, geometryJSON),
	}
}

// NewAbsentGeometryResponse creates a 200 card response without geometry.
func NewAbsentGeometryResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"type": "card"}`,
	}
}

// NewRateLimitResponse creates a 429 response with a Retry-After header.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "rate limit exceeded"}`,
		Headers: map[string]string{
			"Retry-After": fmt.Sprintf("%d", retryAfterSeconds),
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "internal server error"}`,
	}
}
