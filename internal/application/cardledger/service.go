// Package cardledger runs the credit card ledger use cases: card profiles,
// installment expenses, and the invoice lifecycle with its settlement and
// reversal paths.
package cardledger

import (
	"context"
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"github.com/foodops/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service runs the ledger operations. Each mutation is a single unit of work;
// domain events raised inside it are published once it has committed.
type Service struct {
	uow       cardledger.UnitOfWork
	reads     cardledger.Repositories
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	logger    *zap.Logger
	now       func() time.Time

	createPayableOnClose bool
	payableDueDays       int
}

// Option configures a Service
type Option func(*Service)

// WithEventPublisher publishes committed domain events to p
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records ledger metrics
func WithMetrics(m *telemetry.LedgerMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the base logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l.Named("card_ledger") }
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPayableOnClose opens an account payable for the total of every closed
// invoice, due dueDays after the invoice due date
func WithPayableOnClose(enabled bool, dueDays int) Option {
	return func(s *Service) {
		s.createPayableOnClose = enabled
		s.payableDueDays = dueDays
	}
}

// NewService creates a Service. reads serves the query operations and must not
// be bound to a transaction.
func NewService(uow cardledger.UnitOfWork, reads cardledger.Repositories, opts ...Option) *Service {
	s := &Service{
		uow:    uow,
		reads:  reads,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mutate runs fn in a unit of work, flushes the touched aggregates and
// publishes their events after commit
func (s *Service) mutate(ctx context.Context, operation string, fn func(ctx context.Context, sc *scope) error) error {
	started := time.Now()
	var events []shared.DomainEvent

	err := s.uow.Do(ctx, func(ctx context.Context, repos cardledger.Repositories) error {
		sc := newScope(repos, s.now)
		if err := fn(ctx, sc); err != nil {
			return err
		}
		if err := sc.flush(ctx); err != nil {
			return err
		}
		events = sc.events
		return nil
	})
	s.metrics.ObserveOperation(ctx, operation, started, err)
	if err != nil {
		return err
	}

	s.publish(ctx, events)
	return nil
}

// publish hands events to the bus. The writes are already committed, so a
// failing publisher is logged and not returned.
func (s *Service) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Warn("Failed to publish ledger events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// log returns the service logger tagged with the request and tenant in ctx
func (s *Service) log(ctx context.Context) *zap.Logger {
	l := s.logger
	if id := logger.RequestID(ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if id := logger.TenantID(ctx); id != uuid.Nil {
		l = l.With(zap.String("tenant_id", id.String()))
	}
	return l
}

// civilDay truncates t to its calendar day, defaulting to today
func (s *Service) civilDay(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return cardledger.CivilDate(t)
}
