package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for pool execution.
var (
	crawlUnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_units_total",
		Help: "Total work units merged by terminal status",
	}, []string{"status"})

	crawlUnitDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawl_unit_duration_seconds",
		Help:    "End-to-end duration of one work unit including retries",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)

// Config holds worker pool configuration.
type Config struct {
	// Workers is the concurrency bound. It is the sole admission control:
	// never more than Workers units are in flight.
	Workers int

	// Timeout bounds each individual fetch attempt. Zero disables the
	// per-attempt timeout.
	Timeout time.Duration
}

// DefaultConfig returns a safe default pool configuration.
func DefaultConfig() Config {
	return Config{
		Workers: 8,
		Timeout: 15 * time.Second,
	}
}

// Fetch performs the network call for one unit and classifies the result.
type Fetch[U, R any] func(ctx context.Context, unit U) Outcome[R]

// Pool is a fixed-size set of workers pulling units from a Source, running
// each through the retryer, and merging outcomes into an Aggregator.
type Pool[U, R any] struct {
	cfg     Config
	retryer *Retryer
	fetch   Fetch[U, R]
}

// NewPool creates a pool. Non-positive config fields fall back to
// defaults.
func NewPool[U, R any](cfg Config, retryer *Retryer, fetch Fetch[U, R]) *Pool[U, R] {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if retryer == nil {
		retryer = NewRetryer(0)
	}
	return &Pool[U, R]{cfg: cfg, retryer: retryer, fetch: fetch}
}

// Run executes the pool until the source is exhausted or ctx is
// cancelled. On cancellation no new units are dispatched; in-flight units
// finish and their results are merged, so already-aggregated output
// survives as a partial result. Run returns when every worker has exited.
func (p *Pool[U, R]) Run(ctx context.Context, src Source[U], agg Aggregator[U, R]) {
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, src, agg, &wg)
	}
	wg.Wait()

	log.Debug().
		Int("workers", p.cfg.Workers).
		Int("units", src.Len()).
		Dur("duration", time.Since(start)).
		Msg("Pool drained")
}

// worker loops pull → retry-wrapped fetch → merge until the source runs
// dry or the context is cancelled.
func (p *Pool[U, R]) worker(ctx context.Context, id int, src Source[U], agg Aggregator[U, R], wg *sync.WaitGroup) {
	defer wg.Done()
	processed := 0

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", id).
				Int("units_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		unit, ok := src.Next()
		if !ok {
			break
		}

		unitStart := time.Now()
		out := Retry(ctx, p.retryer, func(c context.Context) Outcome[R] {
			if p.cfg.Timeout > 0 {
				var cancel context.CancelFunc
				c, cancel = context.WithTimeout(c, p.cfg.Timeout)
				defer cancel()
			}
			return p.fetch(c, unit)
		})

		agg.Merge(unit, out)
		crawlUnitsTotal.WithLabelValues(out.Status.String()).Inc()
		crawlUnitDurationSeconds.Observe(time.Since(unitStart).Seconds())
		processed++
	}

	if processed > 0 {
		log.Debug().
			Int("worker_id", id).
			Int("units_processed", processed).
			Msg("Worker completed")
	}
}
