package event

import (
	"context"

	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

func contextWithLogger(l *zap.Logger) context.Context {
	return logger.WithContext(context.Background(), l)
}
