package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"github.com/foodops/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader names the client-chosen key that guards a POST against replays
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// Idempotency claims the Idempotency-Key of a POST request before it runs.
// A replayed key is rejected with 409 while the first request's claim is
// alive. A claim whose request did not succeed is released so the client can
// retry with the same key. Requests without the header pass straight through.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		requestID := c.GetString(RequestIDKey)
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, "Idempotency-Key is too long", requestID))
			return
		}

		ctx := c.Request.Context()
		log := logger.L(ctx)

		// keys are scoped to the tenant and the request path so clients may reuse them across resources
		tenantID, _ := GetTenantUUID(c)
		scoped := fmt.Sprintf("%s:%s:%s", tenantID, c.Request.URL.Path, key)

		claimed, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			// the store being down must not block writes
			log.Warn("Idempotency store unavailable, processing without a claim",
				zap.String("idempotency_key", key), zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "A request with this Idempotency-Key was already processed", requestID))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, scoped); err != nil {
				log.Warn("Failed to release idempotency key",
					zap.String("idempotency_key", key), zap.Error(err))
			}
		}
	}
}
