package middleware

import (
	"net/http"
	"strings"

	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"github.com/foodops/backoffice/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantConfig holds configuration for tenant middleware
type TenantConfig struct {
	// SkipPaths are path prefixes that don't require tenant context
	SkipPaths []string
	// DefaultTenantID is used when the header is absent. uuid.Nil makes the header mandatory.
	DefaultTenantID uuid.UUID
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{"/health", "/swagger", "/api/v1/system"},
	}
}

// Tenant resolves the tenant a request acts for from the X-Tenant-ID header
// and stores it on both the gin context and the request context
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip || strings.HasPrefix(path, skip+"/") {
				c.Next()
				return
			}
		}

		tenantID := cfg.DefaultTenantID
		if header := c.GetHeader(TenantHeaderKey); header != "" {
			parsed, err := uuid.Parse(header)
			if err != nil || len(header) > MaxTenantIDLength {
				abortTenant(c, "Invalid tenant ID format")
				return
			}
			tenantID = parsed
		}
		if tenantID == uuid.Nil {
			abortTenant(c, "Tenant identification required")
			return
		}

		c.Set(TenantIDKey, tenantID)

		c.Request = c.Request.WithContext(logger.WithTenantID(c.Request.Context(), tenantID))
		logger.GetGinLogger(c).Debug("Tenant identified", zap.String("tenant_id", tenantID.String()))

		c.Next()
	}
}

func abortTenant(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeMissingTenant, message, c.GetString(RequestIDKey)))
}

// GetTenantUUID retrieves the tenant resolved by Tenant
func GetTenantUUID(c *gin.Context) (uuid.UUID, bool) {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok && id != uuid.Nil {
			return id, true
		}
	}
	return uuid.Nil, false
}
