// Package ratelimit implements a cooldown gate fed by upstream 429
// responses. When the remote source asks for a pause via Retry-After, the
// gate holds all workers back until the cooldown expires instead of
// letting each worker discover the limit on its own. With a redis client
// the cooldown is shared across processes; without one it is kept
// in-process.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis key for the shared cooldown deadline (unix seconds).
const redisKeyCooldownUntil = "zonecrawl:ratelimit:cooldown_until"

// DefaultCooldown applies when a 429 arrives without a usable Retry-After
// header.
const DefaultCooldown = 5 * time.Second

// Prometheus metrics for cooldown gating.
var (
	crawlCooldownWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crawl_cooldown_waits_total",
		Help: "Total number of requests held back by the cooldown gate",
	})

	crawlCooldownSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crawl_cooldown_seconds",
		Help: "Remaining cooldown at the last gate check, in seconds",
	})
)

// Gate holds requests back while an upstream-imposed cooldown is active.
type Gate struct {
	redis  *redis.Client
	logger zerolog.Logger

	mu    sync.Mutex
	until time.Time
}

// NewGate creates a gate. redisClient may be nil; cooldown state is then
// kept in-process only.
func NewGate(redisClient *redis.Client, logger zerolog.Logger) *Gate {
	return &Gate{redis: redisClient, logger: logger}
}

// Wait blocks until any active cooldown has expired or ctx is cancelled.
// It returns ctx.Err() on cancellation and nil otherwise.
func (g *Gate) Wait(ctx context.Context) error {
	until := g.cooldownUntil(ctx)
	remaining := time.Until(until)
	crawlCooldownSeconds.Set(remaining.Seconds())
	if remaining <= 0 {
		return nil
	}

	crawlCooldownWaitsTotal.Inc()
	g.logger.Warn().
		Dur("remaining", remaining).
		Time("until", until).
		Msg("Cooldown active - holding request")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}

// Observe inspects a 429 response and arms the cooldown from its
// Retry-After header. Other status codes are ignored.
func (g *Gate) Observe(ctx context.Context, status int, headers http.Header) {
	if status != http.StatusTooManyRequests {
		return
	}

	cooldown := parseRetryAfter(headers.Get("Retry-After"))
	g.SetCooldown(ctx, cooldown)
}

// SetCooldown arms the gate for the given duration, keeping the later of
// the new and any existing deadline.
func (g *Gate) SetCooldown(ctx context.Context, d time.Duration) {
	until := time.Now().Add(d)

	g.mu.Lock()
	if until.After(g.until) {
		g.until = until
	}
	g.mu.Unlock()

	if g.redis != nil {
		if err := g.redis.Set(ctx, redisKeyCooldownUntil, until.Unix(), d).Err(); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to store cooldown in redis")
		}
	}

	g.logger.Warn().
		Dur("cooldown", d).
		Time("until", until).
		Msg("Rate limited - cooldown armed")
}

// cooldownUntil returns the effective cooldown deadline, preferring the
// redis-shared value and falling back to local state when redis is absent
// or unreachable.
func (g *Gate) cooldownUntil(ctx context.Context) time.Time {
	g.mu.Lock()
	local := g.until
	g.mu.Unlock()

	if g.redis == nil {
		return local
	}

	unix, err := g.redis.Get(ctx, redisKeyCooldownUntil).Int64()
	if err != nil {
		if err != redis.Nil {
			g.logger.Warn().Err(err).Msg("Failed to read cooldown from redis")
		}
		return local
	}

	shared := time.Unix(unix, 0)
	if shared.After(local) {
		return shared
	}
	return local
}

// parseRetryAfter handles both forms of the header: delay seconds and
// HTTP date.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return DefaultCooldown
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return DefaultCooldown
}
