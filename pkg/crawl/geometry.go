package crawl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zonecrawl/pkg/catalog"
	"zonecrawl/pkg/client"
	"zonecrawl/pkg/geometry"
	"zonecrawl/pkg/pipeline"
)

// GeometryConfig holds geometry stage configuration.
type GeometryConfig struct {
	// Concurrent is the concurrency bound.
	Concurrent int

	// MaxAttempts caps retries per identifier; zero keeps per-class
	// defaults.
	MaxAttempts int

	// Timeout bounds each geometry fetch attempt.
	Timeout time.Duration
}

// GeometryFetch retrieves the geometry card of every discovered record.
type GeometryFetch struct {
	client *client.Client
	cfg    GeometryConfig
	logger zerolog.Logger
}

// NewGeometryFetch creates the geometry stage.
func NewGeometryFetch(c *client.Client, cfg GeometryConfig) (*GeometryFetch, error) {
	if cfg.Concurrent < 1 {
		return nil, fmt.Errorf("concurrent must be at least 1 (got %d)", cfg.Concurrent)
	}
	return &GeometryFetch{
		client: c,
		cfg:    cfg,
		logger: log.With().Str("component", "geometry").Logger(),
	}, nil
}

// Run fetches geometry for the distinct card identifiers of records.
// Every identifier appears exactly once in the returned set, as geometry,
// an absence marker, or an error entry; per-identifier failures are never
// fatal. An empty input yields an empty set.
func (g *GeometryFetch) Run(ctx context.Context, records []catalog.Record) (geometry.ResultSet, pipeline.Run, error) {
	start := time.Now()
	ids := catalog.CardIDs(records)

	g.logger.Info().
		Int("records", len(records)).
		Int("card_ids", len(ids)).
		Int("concurrent", g.cfg.Concurrent).
		Msg("Starting geometry fetch")

	src := pipeline.NewSliceSource(ids)
	agg := newGeometryAggregator(src.Len())

	pool := pipeline.NewPool(
		pipeline.Config{Workers: g.cfg.Concurrent, Timeout: g.cfg.Timeout},
		pipeline.NewRetryer(g.cfg.MaxAttempts),
		g.fetchGeometry,
	)
	pool.Run(ctx, src, agg)

	results, run := agg.finalize()
	g.logger.Info().
		Int("fetched", run.Success).
		Int("absent", run.Empty).
		Int("failed", run.Failed).
		Dur("duration", time.Since(start)).
		Msg("Geometry fetch complete")

	return results, run, nil
}

func (g *GeometryFetch) fetchGeometry(ctx context.Context, id string) pipeline.Outcome[*geometry.Payload] {
	payload, err := g.client.Geometry(ctx, id)
	if err != nil {
		return client.OutcomeOf[*geometry.Payload](err)
	}
	if payload.Absent() {
		return pipeline.Empty[*geometry.Payload]()
	}
	return pipeline.Success(payload)
}

// geometryAggregator owns the keyed result set and the run counters.
type geometryAggregator struct {
	mu      sync.Mutex
	run     pipeline.Run
	results geometry.ResultSet
}

func newGeometryAggregator(total int) *geometryAggregator {
	return &geometryAggregator{
		run:     pipeline.Run{Total: total},
		results: make(geometry.ResultSet, total),
	}
}

// Merge records the terminal entry for one identifier. Permanent failures
// become error entries so no input identifier is ever silently dropped.
func (a *geometryAggregator) Merge(id string, out pipeline.Outcome[*geometry.Payload]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.run.Observe(out.Status)
	switch out.Status {
	case pipeline.StatusSuccess:
		a.results[id] = geometry.Entry{Geometry: out.Payload.Geometry}
	case pipeline.StatusEmpty:
		a.results[id] = geometry.Entry{Absent: true}
	default:
		log.Warn().Str("card_id", id).Err(out.Err).Msg("Geometry fetch failed")
		a.results[id] = geometry.Entry{Error: out.Err.Error()}
	}
}

func (a *geometryAggregator) finalize() (geometry.ResultSet, pipeline.Run) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.results, a.run
}
