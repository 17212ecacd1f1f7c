package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry behavior.
var (
	crawlRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"class"})

	crawlRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crawl_retry_backoff_seconds",
		Help:    "Backoff duration before retries by error class",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"class"})

	crawlRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_retry_exhausted_total",
		Help: "Total number of units whose retry attempts were exhausted, by error class",
	}, []string{"class"})
)

// Common errors produced by the retryer.
var (
	// ErrRetryExhausted marks a permanent outcome produced by exhausting
	// the attempt cap on a retryable failure.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrAborted marks a permanent outcome produced by context
	// cancellation during backoff.
	ErrAborted = errors.New("aborted")
)

// RetryConfig holds the bounded-retry policy for one error class.
type RetryConfig struct {
	// MaxAttempts is the attempt cap per unit, including the first attempt.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the exponential growth.
	MaxBackoff time.Duration

	// BackoffMultiplier is the exponential growth factor.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForClass returns the retry policy for an error class.
// Rate-limit failures back off longer than generic transport errors.
func RetryConfigForClass(class Class) RetryConfig {
	switch class {
	case ClassServer:
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    1 * time.Second,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ClassRateLimit:
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    5 * time.Second,
			MaxBackoff:        60 * time.Second,
			BackoffMultiplier: 2.0,
		}
	case ClassNetwork:
		return RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    2 * time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		}
	default:
		return DefaultRetryConfig()
	}
}

// Retryer wraps one unit's end-to-end handling with a bounded retry loop.
// Both stages share one Retryer so backoff semantics stay identical.
type Retryer struct {
	// MaxAttempts overrides the per-class attempt cap when > 0.
	MaxAttempts int

	// Profiles overrides the per-class backoff policy. Classes without an
	// entry fall back to RetryConfigForClass.
	Profiles map[Class]RetryConfig
}

// NewRetryer creates a retryer with the given attempt cap. A cap of zero
// keeps the per-class defaults.
func NewRetryer(maxAttempts int) *Retryer {
	return &Retryer{MaxAttempts: maxAttempts}
}

func (r *Retryer) profile(class Class) RetryConfig {
	cfg, ok := r.Profiles[class]
	if !ok {
		cfg = RetryConfigForClass(class)
	}
	if r.MaxAttempts > 0 {
		cfg.MaxAttempts = r.MaxAttempts
	}
	return cfg
}

// Retry runs attempt until it returns a terminal outcome or the retryable
// budget is spent. Success, Empty, and Permanent outcomes pass through
// unchanged on the attempt that produced them; a Retryable outcome after
// the final attempt becomes Permanent carrying the last error. Backoff is
// exponential with ±20% jitter and respects context cancellation.
func Retry[R any](ctx context.Context, r *Retryer, attempt func(context.Context) Outcome[R]) Outcome[R] {
	backoff := time.Duration(0)

	for att := 1; ; att++ {
		out := attempt(ctx)
		if out.Status != StatusRetryable {
			if att > 1 && (out.Status == StatusSuccess || out.Status == StatusEmpty) {
				log.Info().
					Str("class", string(out.Class)).
					Int("attempt", att).
					Msg("Unit succeeded after retry")
			}
			return out
		}

		cfg := r.profile(out.Class)
		if att >= cfg.MaxAttempts {
			crawlRetryExhaustedTotal.WithLabelValues(string(out.Class)).Inc()
			log.Warn().
				Str("class", string(out.Class)).
				Int("max_attempts", cfg.MaxAttempts).
				Err(out.Err).
				Msg("Retry attempts exhausted")
			return Permanent[R](out.Class,
				fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, cfg.MaxAttempts, out.Err))
		}

		if backoff == 0 {
			backoff = cfg.InitialBackoff
		}

		crawlRetriesTotal.WithLabelValues(string(out.Class)).Inc()

		// ±20% jitter to avoid synchronized retries across workers.
		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		crawlRetryBackoffSeconds.WithLabelValues(string(out.Class)).Observe(jitter.Seconds())

		log.Debug().
			Str("class", string(out.Class)).
			Int("attempt", att).
			Dur("backoff", jitter).
			Msg("Retrying unit after backoff")

		select {
		case <-ctx.Done():
			return Permanent[R](out.Class, fmt.Errorf("%w: %v", ErrAborted, ctx.Err()))
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}
