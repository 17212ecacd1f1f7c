package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"zonecrawl/internal/testutil"
)

// newTestClient creates a client pointed at a mock upstream, without
// redis.
func newTestClient(t *testing.T, mock *testutil.MockAPI) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = mock.URL()
	cfg.Timeout = 5 * time.Second

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name: "empty base URL",
			config: Config{
				DocID:    50,
				PageSize: 100,
			},
			expectError: true,
			errorMsg:    "base URL is required",
		},
		{
			name: "doc id zero",
			config: Config{
				BaseURL:  "https://rgis.mosreg.ru/v3/swagger",
				PageSize: 100,
			},
			expectError: true,
			errorMsg:    "doc id must be positive (got 0)",
		},
		{
			name: "negative page size",
			config: Config{
				BaseURL:  "https://rgis.mosreg.ru/v3/swagger",
				DocID:    50,
				PageSize: -1,
			},
			expectError: true,
			errorMsg:    "page size must be positive (got -1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatalf("Expected error but got nil")
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestListPage(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetListPage(50, 1, 100, testutil.NewListResponse(
		testutil.ListRow("1", "Балашиха", "Жилая зона", "Ж-1", "Зона застройки", "", "101"),
		testutil.ListRow("2", "Балашиха", "Общественно-деловая зона", "О-1", "", "", ""),
	))

	c := newTestClient(t, mock)

	records, err := c.ListPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListPage() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("ListPage() returned %d records, want 2", len(records))
	}
	if records[0].CardID != "101" {
		t.Errorf("records[0].CardID = %q, want %q", records[0].CardID, "101")
	}
	if records[0].ZoneCode != "Ж-1" {
		t.Errorf("records[0].ZoneCode = %q, want %q", records[0].ZoneCode, "Ж-1")
	}
	if records[1].CardID != "" {
		t.Errorf("records[1].CardID = %q, want empty", records[1].CardID)
	}
}

func TestListPage_ParseError(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetListPage(50, 1, 100, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html>not json</html>`,
	})

	c := newTestClient(t, mock)

	_, err := c.ListPage(context.Background(), 1)
	if err == nil {
		t.Fatal("Expected error for malformed listing body")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %T", err)
	}
	if apiErr.Class != ClassParse {
		t.Errorf("Class = %q, want %q", apiErr.Class, ClassParse)
	}
	if apiErr.Retryable() {
		t.Error("Parse errors must not be retryable")
	}
}

func TestListPage_StatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		resp      testutil.MockResponse
		wantClass string
	}{
		{
			name:      "server error",
			resp:      testutil.NewServerErrorResponse(),
			wantClass: string(ClassServer),
		},
		{
			name:      "rate limit",
			resp:      testutil.NewRateLimitResponse(0),
			wantClass: string(ClassRateLimit),
		},
		{
			name: "not found",
			resp: testutil.MockResponse{
				StatusCode: http.StatusNotFound,
				Body:       `{"error": "unknown document"}`,
			},
			wantClass: string(ClassClient),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockAPI()
			defer mock.Close()
			mock.SetListPage(50, 1, 100, tt.resp)

			c := newTestClient(t, mock)

			_, err := c.ListPage(context.Background(), 1)
			if err == nil {
				t.Fatal("Expected error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected APIError, got %T", err)
			}
			if string(apiErr.Class) != tt.wantClass {
				t.Errorf("Class = %q, want %q", apiErr.Class, tt.wantClass)
			}
			if apiErr.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.resp.StatusCode)
			}
		})
	}
}

func TestGeometry(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetGeometry("101", testutil.NewGeometryResponse(
		`{"type": "Polygon", "coordinates": [[[37.5, 55.7], [37.6, 55.7], [37.6, 55.8], [37.5, 55.7]]]}`,
	))

	c := newTestClient(t, mock)

	payload, err := c.Geometry(context.Background(), "101")
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	if payload.ID != "101" {
		t.Errorf("payload.ID = %q, want %q", payload.ID, "101")
	}
	if payload.Absent() {
		t.Error("Expected geometry to be present")
	}
}

func TestGeometry_Absent(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetGeometry("102", testutil.NewAbsentGeometryResponse())

	c := newTestClient(t, mock)

	payload, err := c.Geometry(context.Background(), "102")
	if err != nil {
		t.Fatalf("Geometry() error = %v", err)
	}
	if !payload.Absent() {
		t.Error("Expected absent geometry for card without polygon")
	}
}

func TestGeometry_NotFoundIsAbsent(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	// No handler registered for the id, so the mock answers 404.

	c := newTestClient(t, mock)

	payload, err := c.Geometry(context.Background(), "999")
	if err != nil {
		t.Fatalf("Geometry() error = %v, want absent payload", err)
	}
	if !payload.Absent() {
		t.Error("Expected 404 to map to an absent payload")
	}
	if payload.ID != "999" {
		t.Errorf("payload.ID = %q, want %q", payload.ID, "999")
	}
}

func TestGeometry_CollapsesConcurrentRequests(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetGeometry("101", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"geometry": {"type": "Point", "coordinates": [37.5, 55.7]}}`,
		Delay:      50 * time.Millisecond,
	})

	c := newTestClient(t, mock)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Geometry(context.Background(), "101"); err != nil {
				t.Errorf("Geometry() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("Upstream saw %d requests for one id, want 1", got)
	}
}

func TestGet_NoCacheWithoutRedis(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	mock.SetListPage(50, 1, 100, testutil.NewListResponse())

	c := newTestClient(t, mock)

	for i := 0; i < 2; i++ {
		if _, err := c.ListPage(context.Background(), 1); err != nil {
			t.Fatalf("ListPage() error = %v", err)
		}
	}

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("Upstream saw %d requests, want 2 (caching disabled without redis)", got)
	}
}
