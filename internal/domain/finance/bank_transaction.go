package finance

import (
	"fmt"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a bank movement
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// TransactionStatus tracks whether a movement still counts against the balance
type TransactionStatus string

const (
	TransactionStatusPosted   TransactionStatus = "POSTED"
	TransactionStatusReversed TransactionStatus = "REVERSED"
)

// BankTransaction is one movement on a bank account
type BankTransaction struct {
	shared.TenantAggregateRoot
	BankAccountID   uuid.UUID
	Type            TransactionType
	Amount          decimal.Decimal
	Description     string
	ReferenceID     *uuid.UUID
	TransactionDate time.Time
	Status          TransactionStatus
	ReversedAt      *time.Time
}

// NewDebitTransaction records money leaving the account
func NewDebitTransaction(
	tenantID, bankAccountID uuid.UUID,
	amount decimal.Decimal,
	description string,
	referenceID *uuid.UUID,
	date time.Time,
) (*BankTransaction, error) {
	if bankAccountID == uuid.Nil {
		return nil, shared.NewInvalidInputError("INVALID_BANK_ACCOUNT", "Bank account ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewInvalidInputError("INVALID_AMOUNT", "Transaction amount cannot be negative")
	}
	return &BankTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BankAccountID:       bankAccountID,
		Type:                TransactionTypeDebit,
		Amount:              amount,
		Description:         description,
		ReferenceID:         referenceID,
		TransactionDate:     date,
		Status:              TransactionStatusPosted,
	}, nil
}

// SignedAmount is the effect the transaction had on the account balance
func (t *BankTransaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Reverse marks the transaction as no longer counting against the balance.
// The caller is responsible for moving the balance back.
func (t *BankTransaction) Reverse(at time.Time) error {
	if t.Status == TransactionStatusReversed {
		return shared.NewInvalidStateError("TRANSACTION_ALREADY_REVERSED",
			fmt.Sprintf("Bank transaction %s is already reversed", t.ID)).
			WithDetail("id", t.ID.String())
	}
	t.Status = TransactionStatusReversed
	t.ReversedAt = &at
	t.IncrementVersion()
	return nil
}
