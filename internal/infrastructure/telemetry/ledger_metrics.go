package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	AttrTenantID  = attribute.Key("tenant_id")
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
)

// LedgerMetrics records card ledger activity.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	expensesCharged   metric.Int64Counter
	installmentRows   metric.Int64Counter
	amountCharged     metric.Float64Counter
	invoiceOperations metric.Int64Counter
	amountSettled     metric.Float64Counter
	operationDuration metric.Float64Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		m   LedgerMetrics
		err error
	)
	if m.expensesCharged, err = meter.Int64Counter("card_ledger.expenses.charged",
		metric.WithDescription("Purchases charged to cards"), metric.WithUnit("{purchase}")); err != nil {
		return nil, err
	}
	if m.installmentRows, err = meter.Int64Counter("card_ledger.expenses.installment_rows",
		metric.WithDescription("Installment rows written for charged purchases"), metric.WithUnit("{row}")); err != nil {
		return nil, err
	}
	if m.amountCharged, err = meter.Float64Counter("card_ledger.expenses.amount",
		metric.WithDescription("Amount charged to cards"), metric.WithUnit("BRL")); err != nil {
		return nil, err
	}
	if m.invoiceOperations, err = meter.Int64Counter("card_ledger.invoices.operations",
		metric.WithDescription("Invoice lifecycle operations by kind"), metric.WithUnit("{operation}")); err != nil {
		return nil, err
	}
	if m.amountSettled, err = meter.Float64Counter("card_ledger.invoices.amount_settled",
		metric.WithDescription("Invoice amounts moved by pay and unpay"), metric.WithUnit("BRL")); err != nil {
		return nil, err
	}
	if m.operationDuration, err = meter.Float64Histogram("card_ledger.operation.duration",
		metric.WithDescription("Duration of ledger units of work"), metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500)); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordExpenseCharged counts one purchase split into rows installments
func (m *LedgerMetrics) RecordExpenseCharged(ctx context.Context, tenantID uuid.UUID, rows int, amount decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrTenantID.String(tenantID.String()))
	m.expensesCharged.Add(ctx, 1, attrs)
	m.installmentRows.Add(ctx, int64(rows), attrs)
	m.amountCharged.Add(ctx, amount.InexactFloat64(), attrs)
}

// RecordInvoiceOperation counts a close/pay/unpay/reopen/delete.
// settled is the amount that changed hands, zero for operations without money movement.
func (m *LedgerMetrics) RecordInvoiceOperation(ctx context.Context, tenantID uuid.UUID, operation string, settled decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrTenantID.String(tenantID.String()), AttrOperation.String(operation))
	m.invoiceOperations.Add(ctx, 1, attrs)
	if !settled.IsZero() {
		// Float64Counter must stay monotonic; reversals are tracked by the operation attribute
		m.amountSettled.Add(ctx, settled.Abs().InexactFloat64(), attrs)
	}
}

// ObserveOperation records how long a unit of work took and whether it failed
func (m *LedgerMetrics) ObserveOperation(ctx context.Context, operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operationDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000.0,
		metric.WithAttributes(AttrOperation.String(operation), AttrOutcome.String(outcome)))
}
