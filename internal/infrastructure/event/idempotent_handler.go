package event

import (
	"context"
	"sync/atomic"

	"github.com/foodops/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotentHandler wraps a handler so that each event id is handled at most
// once per TTL, even when the same event is delivered twice
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
}

func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{
		handler: handler,
		store:   store,
		config:  config,
		logger:  logger,
	}
}

func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, evt)
	}

	key := "event:" + evt.EventID().String()
	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		// a lost event is worse than a duplicate audit line
		h.logger.Warn("idempotency check failed, handling anyway",
			zap.String("event_id", evt.EventID().String()),
			zap.Error(err),
		)
	case !claimed:
		h.duplicates.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", evt.EventID().String()),
			zap.String("event_type", evt.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		if relErr := h.store.Release(ctx, key); relErr != nil {
			h.logger.Warn("failed to release idempotency key", zap.String("key", key), zap.Error(relErr))
		}
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns how many events were handled and how many were skipped as duplicates
func (h *IdempotentHandler) Stats() (processed, duplicates int64) {
	return h.processed.Load(), h.duplicates.Load()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
