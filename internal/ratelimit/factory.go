package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/valai/valai-api/internal/storage"
)

// Picks the limiter backend once at startup. A reachable Redis gives the
// distributed limiter; otherwise the process falls back to the in-memory
// one with a warning. The decision holds for the process lifetime - there
// is no mid-run failover.
func New(redisClient *storage.RedisClient, logger zerolog.Logger) Limiter {
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx); err == nil {
			logger.Info().Msg("rate limiting backed by redis")
			return NewRedisLimiter(redisClient)
		}

		logger.Warn().Msg("redis unreachable at startup, falling back to in-memory rate limiting")
	} else {
		logger.Warn().Msg("redis not configured, using in-memory rate limiting (single instance only)")
	}

	return NewMemoryLimiter()
}
