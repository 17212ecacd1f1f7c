// Package client provides the HTTP client for the zoning geoportal with
// error classification, cooldown gating, and optional redis response
// caching.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"zonecrawl/pkg/cache"
	"zonecrawl/pkg/catalog"
	"zonecrawl/pkg/geometry"
	"zonecrawl/pkg/ratelimit"
)

// Upstream endpoint paths.
const (
	ListEndpoint     = "/geoportal/docs/list"
	GeometryEndpoint = "/map/numberarea"
)

// maxBodySize caps response bodies; geometry cards for large
// municipalities run to a few megabytes.
const maxBodySize = 32 << 20

// Prometheus metrics for client operations.
var (
	crawlRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	crawlRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawl_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	crawlErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})
)

// Client is the remote client shared by both pipeline stages. It is safe
// for concurrent use by many workers.
type Client struct {
	httpClient *http.Client
	cache      *cache.Manager
	gate       *ratelimit.Gate
	config     Config
	logger     zerolog.Logger
	geomGroup  singleflight.Group
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the geoportal API root.
	BaseURL string

	// DocID selects the document catalog to list.
	DocID int

	// PageSize is the rows-per-page parameter of the listing endpoint.
	PageSize int

	// UserAgent identifies the crawler to the upstream.
	UserAgent string

	// Redis enables the response cache and cross-process cooldown state.
	// Nil disables both; the client then runs fully in-process.
	Redis *redis.Client

	// CacheTTL is how long cached responses stay valid.
	CacheTTL time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxConns sizes the connection pool. Keep it at or above the worker
	// count so the transport never serializes the pool.
	MaxConns int
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://rgis.mosreg.ru/v3/swagger",
		DocID:     50,
		PageSize:  100,
		UserAgent: "zonecrawl/1.0",
		CacheTTL:  time.Hour,
		Timeout:   30 * time.Second,
		MaxConns:  16,
	}
}

// New creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.DocID <= 0 {
		return nil, fmt.Errorf("doc id must be positive (got %d)", cfg.DocID)
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive (got %d)", cfg.PageSize)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultConfig().MaxConns
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	logger := log.With().Str("component", "client").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		ttl := cfg.CacheTTL
		if ttl <= 0 {
			ttl = DefaultConfig().CacheTTL
		}
		cacheManager = cache.NewManager(cfg.Redis, ttl)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxConns,
		MaxIdleConnsPerHost: cfg.MaxConns,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		cache:  cacheManager,
		gate:   ratelimit.NewGate(cfg.Redis, logger),
		config: cfg,
		logger: logger,
	}, nil
}

// ListPage fetches and parses one listing page of the catalog.
func (c *Client) ListPage(ctx context.Context, page int) ([]catalog.Record, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(c.config.DocID))
	params.Set("page", strconv.Itoa(page))
	params.Set("show", strconv.Itoa(c.config.PageSize))

	body, err := c.get(ctx, ListEndpoint, params)
	if err != nil {
		return nil, err
	}

	records, err := catalog.ParsePage(body)
	if err != nil {
		crawlErrorsTotal.WithLabelValues(string(ClassParse)).Inc()
		return nil, &APIError{Class: ClassParse, Message: fmt.Sprintf("listing page %d", page), Err: err}
	}
	return records, nil
}

// Geometry fetches the geometry card for one identifier. A card that
// exists but carries no geometry, and an identifier the upstream does not
// know (404), both return an absent payload rather than an error.
// Concurrent calls for the same identifier are collapsed into one request.
func (c *Client) Geometry(ctx context.Context, id string) (*geometry.Payload, error) {
	v, err, _ := c.geomGroup.Do(id, func() (interface{}, error) {
		return c.fetchGeometry(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*geometry.Payload), nil
}

func (c *Client) fetchGeometry(ctx context.Context, id string) (*geometry.Payload, error) {
	params := url.Values{}
	params.Set("numberarea", id)

	body, err := c.get(ctx, GeometryEndpoint, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return &geometry.Payload{ID: id}, nil
		}
		return nil, err
	}

	payload, err := geometry.ParseResponse(id, body)
	if err != nil {
		crawlErrorsTotal.WithLabelValues(string(ClassParse)).Inc()
		return nil, &APIError{Class: ClassParse, Message: fmt.Sprintf("geometry %s", id), Err: err}
	}
	return payload, nil
}

// get performs one GET against the upstream: cooldown gate, cache lookup,
// HTTP call, classification, cache fill.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()
	defer func() {
		crawlRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	if err := c.gate.Wait(ctx); err != nil {
		return nil, &APIError{Class: ClassNetwork, Message: "cooldown wait", Err: err}
	}

	key := cache.Key{Endpoint: endpoint, Params: params}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Cache hit")
			crawlRequestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return entry.Data, nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	reqURL := c.config.BaseURL + endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", reqURL).
		Msg("Executing upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		crawlErrorsTotal.WithLabelValues(string(ClassNetwork)).Inc()
		crawlRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{Class: ClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	crawlRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	c.gate.Observe(ctx, resp.StatusCode, resp.Header)

	if resp.StatusCode != http.StatusOK {
		class := classifyStatus(resp.StatusCode)
		crawlErrorsTotal.WithLabelValues(string(class)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("class", string(class)).
			Msg("Upstream request error")
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Class:      class,
			Message:    resp.Status,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		crawlErrorsTotal.WithLabelValues(string(ClassNetwork)).Inc()
		return nil, &APIError{Class: ClassNetwork, Message: "read body", Err: err}
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, resp.StatusCode, body); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
		}
	}

	return body, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
