package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayableStatus represents the status of an account payable
type PayableStatus string

const (
	PayableStatusPending   PayableStatus = "PENDING"
	PayableStatusPaid      PayableStatus = "PAID"
	PayableStatusCancelled PayableStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PayableStatus
func (s PayableStatus) IsValid() bool {
	switch s {
	case PayableStatusPending, PayableStatusPaid, PayableStatusCancelled:
		return true
	}
	return false
}

func (s PayableStatus) String() string {
	return string(s)
}

// PayableSourceType identifies what produced the payable
type PayableSourceType string

const (
	PayableSourceTypeCardInvoice PayableSourceType = "CARD_INVOICE"
	PayableSourceTypeManual      PayableSourceType = "MANUAL"
)

// IsValid checks if the source type is valid
func (s PayableSourceType) IsValid() bool {
	return s == PayableSourceTypeCardInvoice || s == PayableSourceTypeManual
}

// AccountPayable is money owed by the business, optionally linked to the
// document that produced it (a closed card invoice)
type AccountPayable struct {
	shared.TenantAggregateRoot
	PayableNumber string
	Description   string
	SourceType    PayableSourceType
	SourceID      *uuid.UUID
	Amount        decimal.Decimal
	DueDate       time.Time
	Status        PayableStatus
	PaidAt        *time.Time
	BankAccountID *uuid.UUID
}

// NewAccountPayable creates a pending payable
func NewAccountPayable(
	tenantID uuid.UUID,
	payableNumber string,
	description string,
	sourceType PayableSourceType,
	sourceID *uuid.UUID,
	amount decimal.Decimal,
	dueDate time.Time,
) (*AccountPayable, error) {
	if strings.TrimSpace(payableNumber) == "" {
		return nil, shared.NewInvalidInputError("INVALID_PAYABLE_NUMBER", "Payable number cannot be empty")
	}
	if len(payableNumber) > 50 {
		return nil, shared.NewInvalidInputError("INVALID_PAYABLE_NUMBER", "Payable number cannot exceed 50 characters")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewInvalidInputError("INVALID_SOURCE_TYPE", "Source type is not valid")
	}
	if sourceType == PayableSourceTypeCardInvoice && (sourceID == nil || *sourceID == uuid.Nil) {
		return nil, shared.NewInvalidInputError("INVALID_SOURCE_ID", "Card invoice payables must reference the invoice")
	}
	// A closed invoice with no charges still produces a zero payable.
	if amount.IsNegative() {
		return nil, shared.NewInvalidInputError("INVALID_AMOUNT", "Payable amount cannot be negative")
	}
	if dueDate.IsZero() {
		return nil, shared.NewInvalidInputError("INVALID_DUE_DATE", "Due date is required")
	}

	return &AccountPayable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PayableNumber:       payableNumber,
		Description:         description,
		SourceType:          sourceType,
		SourceID:            sourceID,
		Amount:              amount,
		DueDate:             dueDate,
		Status:              PayableStatusPending,
	}, nil
}

// MarkPaid settles the payable in full
func (ap *AccountPayable) MarkPaid(paidAt time.Time, bankAccountID *uuid.UUID) error {
	if ap.Status != PayableStatusPending {
		return shared.NewInvalidStateError("PAYABLE_NOT_PENDING",
			fmt.Sprintf("Cannot mark payable %s as paid in %s status", ap.PayableNumber, ap.Status)).
			WithDetail("status", ap.Status.String())
	}
	ap.Status = PayableStatusPaid
	ap.PaidAt = &paidAt
	ap.BankAccountID = bankAccountID
	ap.IncrementVersion()
	return nil
}

// RevertPayment puts a paid payable back to pending
func (ap *AccountPayable) RevertPayment() error {
	if ap.Status != PayableStatusPaid {
		return shared.NewInvalidStateError("PAYABLE_NOT_PAID",
			fmt.Sprintf("Cannot revert payment of payable %s in %s status", ap.PayableNumber, ap.Status)).
			WithDetail("status", ap.Status.String())
	}
	ap.Status = PayableStatusPending
	ap.PaidAt = nil
	ap.BankAccountID = nil
	ap.IncrementVersion()
	return nil
}

// Cancel voids a payable that was never paid
func (ap *AccountPayable) Cancel() error {
	if ap.Status != PayableStatusPending {
		return shared.NewInvalidStateError("PAYABLE_NOT_PENDING",
			fmt.Sprintf("Cannot cancel payable %s in %s status", ap.PayableNumber, ap.Status))
	}
	ap.Status = PayableStatusCancelled
	ap.IncrementVersion()
	return nil
}

func (ap *AccountPayable) IsPaid() bool {
	return ap.Status == PayableStatusPaid
}
