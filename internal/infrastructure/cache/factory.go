package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

const memorySweepInterval = 5 * time.Minute

// NewIdempotencyStore builds the store selected by cfg.Backend.
// Outside production an unreachable redis falls back to the in-memory store.
func NewIdempotencyStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if cfg.Idempotency.Backend != "redis" {
		return NewInMemoryIdempotencyStore(memorySweepInterval), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg.Redis)
	if err == nil {
		logger.Info("using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
		return store, nil
	}
	if cfg.App.Env == "production" {
		return nil, fmt.Errorf("redis required for idempotency: %w", err)
	}
	logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(memorySweepInterval), nil
}
