package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"zonecrawl/pkg/client"
)

// buildClient assembles the upstream client from the shared flags.
// maxConns should be at least the worker count so the transport never
// serializes the pool.
func buildClient(ctx context.Context, docID, pageSize, maxConns int) (*client.Client, error) {
	cfg := client.DefaultConfig()
	if flagBaseURL != "" {
		cfg.BaseURL = flagBaseURL
	}
	if docID > 0 {
		cfg.DocID = docID
	}
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
	if maxConns > cfg.MaxConns {
		cfg.MaxConns = maxConns
	}

	if flagRedis != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: flagRedis})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", flagRedis, err)
		}
		log.Info().Str("addr", flagRedis).Msg("Connected to redis")
		cfg.Redis = redisClient
	}

	return client.New(cfg)
}
