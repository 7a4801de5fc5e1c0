package finance

import (
	"context"
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodePayableNotFound is returned for unknown payables
const CodePayableNotFound = "PAYABLE_NOT_FOUND"

// PayableInput describes a payable to open
type PayableInput struct {
	Amount      decimal.Decimal
	DueDate     time.Time
	Description string
	SourceType  finance.PayableSourceType
	SourceID    *uuid.UUID
}

// PayableLedger opens and settles accounts payable inside a unit of work
type PayableLedger struct {
	payables finance.AccountPayableRepository
}

// NewPayableLedger creates a PayableLedger over a transaction-bound repository
func NewPayableLedger(payables finance.AccountPayableRepository) *PayableLedger {
	return &PayableLedger{payables: payables}
}

// Create opens a pending payable and returns it
func (l *PayableLedger) Create(ctx context.Context, tenantID uuid.UUID, in PayableInput) (*finance.AccountPayable, error) {
	sourceType := in.SourceType
	if sourceType == "" {
		sourceType = finance.PayableSourceTypeManual
	}
	number, err := l.payables.GeneratePayableNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	payable, err := finance.NewAccountPayable(tenantID, number, in.Description, sourceType, in.SourceID, in.Amount, in.DueDate)
	if err != nil {
		return nil, err
	}
	if err := l.payables.Save(ctx, payable); err != nil {
		return nil, err
	}
	return payable, nil
}

// MarkPaid settles the payable from bankAccountID, which may be nil
func (l *PayableLedger) MarkPaid(ctx context.Context, tenantID, payableID uuid.UUID, paymentDate time.Time, bankAccountID *uuid.UUID) error {
	payable, err := l.find(ctx, tenantID, payableID)
	if err != nil {
		return err
	}
	if err := payable.MarkPaid(paymentDate, bankAccountID); err != nil {
		return err
	}
	return l.payables.Save(ctx, payable)
}

// RevertPayment puts a paid payable back to pending
func (l *PayableLedger) RevertPayment(ctx context.Context, tenantID, payableID uuid.UUID) error {
	payable, err := l.find(ctx, tenantID, payableID)
	if err != nil {
		return err
	}
	if err := payable.RevertPayment(); err != nil {
		return err
	}
	return l.payables.Save(ctx, payable)
}

// Delete removes the payable and returns the removed row
func (l *PayableLedger) Delete(ctx context.Context, tenantID, payableID uuid.UUID) (*finance.AccountPayable, error) {
	payable, err := l.find(ctx, tenantID, payableID)
	if err != nil {
		return nil, err
	}
	if err := l.payables.Delete(ctx, tenantID, payableID); err != nil {
		return nil, err
	}
	return payable, nil
}

func (l *PayableLedger) find(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountPayable, error) {
	payable, err := l.payables.FindByID(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError(CodePayableNotFound, "Account payable", id)
		}
		return nil, err
	}
	return payable, nil
}
