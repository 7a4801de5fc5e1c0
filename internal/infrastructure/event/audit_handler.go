package event

import (
	"context"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LedgerAuditHandler writes one structured log line per committed ledger event
type LedgerAuditHandler struct {
	logger *zap.Logger
}

func NewLedgerAuditHandler(l *zap.Logger) *LedgerAuditHandler {
	return &LedgerAuditHandler{logger: l.Named("ledger_audit")}
}

// EventTypes subscribes to every card ledger event
func (h *LedgerAuditHandler) EventTypes() []string {
	return []string{
		cardledger.EventTypeCardCreated,
		cardledger.EventTypeExpenseCharged,
		cardledger.EventTypeExpenseUpdated,
		cardledger.EventTypeExpenseDeleted,
		cardledger.EventTypeInvoiceOpened,
		cardledger.EventTypeInvoiceClosed,
		cardledger.EventTypeInvoicePaid,
		cardledger.EventTypeInvoiceUnpaid,
		cardledger.EventTypeInvoiceReopened,
		cardledger.EventTypeInvoiceDeleted,
	}
}

func (h *LedgerAuditHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", evt.EventID().String()),
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.String("tenant_id", evt.TenantID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	}

	switch e := evt.(type) {
	case *cardledger.ExpenseChargedEvent:
		fields = append(fields,
			zap.String("card_id", e.CardID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.Int("installment", e.InstallmentNumber),
			zap.Int("installments", e.Installments),
		)
	case *cardledger.ExpenseUpdatedEvent:
		fields = append(fields,
			zap.String("old_amount", e.OldAmount.StringFixed(2)),
			zap.String("new_amount", e.NewAmount.StringFixed(2)),
			zap.Bool("card_changed", e.OldCardID != e.NewCardID),
		)
	case *cardledger.ExpenseDeletedEvent:
		fields = append(fields,
			zap.String("card_id", e.CardID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
		)
	case interface{ Invoice() cardledger.InvoiceEvent }:
		inv := e.Invoice()
		fields = append(fields,
			zap.String("card_id", inv.CardID.String()),
			zap.String("reference_month", inv.ReferenceMonth.Format("2006-01")),
			zap.String("status", string(inv.Status)),
			zap.String("total_amount", inv.TotalAmount.StringFixed(2)),
		)
	}

	logger.L(logger.WithContext(ctx, h.logger)).Info("ledger event", fields...)
	return nil
}

var _ shared.EventHandler = (*LedgerAuditHandler)(nil)
