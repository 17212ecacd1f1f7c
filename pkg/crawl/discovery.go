// Package crawl wires the generic fetch pipeline to the two concrete
// stages: catalog discovery over listing pages and per-card geometry
// retrieval.
package crawl

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zonecrawl/pkg/catalog"
	"zonecrawl/pkg/client"
	"zonecrawl/pkg/pipeline"
)

// DiscoveryConfig holds discovery stage configuration.
type DiscoveryConfig struct {
	// MaxPages is the number of listing pages to walk.
	MaxPages int

	// Workers is the concurrency bound.
	Workers int

	// MaxAttempts caps retries per page; zero keeps per-class defaults.
	MaxAttempts int

	// Timeout bounds each page fetch attempt.
	Timeout time.Duration
}

// Discovery walks the listing pages and collects the catalog records that
// reference geometry.
type Discovery struct {
	client *client.Client
	cfg    DiscoveryConfig
	logger zerolog.Logger
}

// NewDiscovery creates the discovery stage.
func NewDiscovery(c *client.Client, cfg DiscoveryConfig) (*Discovery, error) {
	if cfg.MaxPages < 1 {
		return nil, fmt.Errorf("max pages must be at least 1 (got %d)", cfg.MaxPages)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1 (got %d)", cfg.Workers)
	}
	return &Discovery{
		client: c,
		cfg:    cfg,
		logger: log.With().Str("component", "discovery").Logger(),
	}, nil
}

// Run walks pages 1..MaxPages and returns the records with geometry,
// ordered by page. Per-page failures are counted, not fatal; on context
// cancellation the records merged so far are returned.
func (d *Discovery) Run(ctx context.Context) ([]catalog.Record, pipeline.Run, error) {
	start := time.Now()
	d.logger.Info().
		Int("max_pages", d.cfg.MaxPages).
		Int("workers", d.cfg.Workers).
		Msg("Starting catalog discovery")

	src := pipeline.NewPageSource(d.cfg.MaxPages)
	agg := newDiscoveryAggregator(src.Len())

	pool := pipeline.NewPool(
		pipeline.Config{Workers: d.cfg.Workers, Timeout: d.cfg.Timeout},
		pipeline.NewRetryer(d.cfg.MaxAttempts),
		d.fetchPage,
	)
	pool.Run(ctx, src, agg)

	records, run := agg.finalize()
	d.logger.Info().
		Int("pages", run.Completed).
		Int("failed_pages", run.Failed).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Discovery complete")

	return records, run, nil
}

func (d *Discovery) fetchPage(ctx context.Context, page int) pipeline.Outcome[[]catalog.Record] {
	records, err := d.client.ListPage(ctx, page)
	if err != nil {
		return client.OutcomeOf[[]catalog.Record](err)
	}
	if len(records) == 0 {
		return pipeline.Empty[[]catalog.Record]()
	}
	return pipeline.Success(records)
}

// discoveryAggregator owns the run counters and the per-page record
// buckets. Buckets are keyed by page so the final catalog is ordered by
// page number regardless of completion order.
type discoveryAggregator struct {
	mu    sync.Mutex
	run   pipeline.Run
	pages map[int][]catalog.Record
}

func newDiscoveryAggregator(total int) *discoveryAggregator {
	return &discoveryAggregator{
		run:   pipeline.Run{Total: total},
		pages: make(map[int][]catalog.Record, total),
	}
}

// Merge retains the records of a successful page that reference geometry
// and counts everything else.
func (a *discoveryAggregator) Merge(page int, out pipeline.Outcome[[]catalog.Record]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.run.Observe(out.Status)
	if out.Status != pipeline.StatusSuccess {
		if out.Err != nil {
			log.Warn().Int("page", page).Err(out.Err).Msg("Page fetch failed")
		}
		return
	}

	kept := out.Payload[:0:0]
	for _, r := range out.Payload {
		if r.HasGeometry() {
			kept = append(kept, r)
		}
	}
	a.pages[page] = kept
}

func (a *discoveryAggregator) finalize() ([]catalog.Record, pipeline.Run) {
	a.mu.Lock()
	defer a.mu.Unlock()

	pageNums := make([]int, 0, len(a.pages))
	for page := range a.pages {
		pageNums = append(pageNums, page)
	}
	sort.Ints(pageNums)

	var records []catalog.Record
	for _, page := range pageNums {
		records = append(records, a.pages[page]...)
	}
	return records, a.run
}
