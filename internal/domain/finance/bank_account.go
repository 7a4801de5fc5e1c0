package finance

import (
	"strings"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccount is a business bank account whose balance is moved by bank transactions
type BankAccount struct {
	shared.TenantAggregateRoot
	Name     string
	BankName string
	Balance  decimal.Decimal
}

// NewBankAccount creates a bank account with an opening balance
func NewBankAccount(tenantID uuid.UUID, name, bankName string, openingBalance decimal.Decimal) (*BankAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewInvalidInputError("INVALID_NAME", "Bank account name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewInvalidInputError("INVALID_NAME", "Bank account name cannot exceed 100 characters")
	}
	return &BankAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		BankName:            strings.TrimSpace(bankName),
		Balance:             openingBalance,
	}, nil
}

// AdjustBalance applies delta to the balance and returns the new balance.
// Overdrafts are allowed; the bank, not the ledger, enforces them.
func (a *BankAccount) AdjustBalance(delta decimal.Decimal) decimal.Decimal {
	a.Balance = a.Balance.Add(delta)
	a.IncrementVersion()
	return a.Balance
}
