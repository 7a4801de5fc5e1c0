package cardledger

import (
	"context"
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardFilter extends shared.Filter with card-specific options
type CardFilter struct {
	shared.Filter
	Search string
}

// InvoiceFilter extends shared.Filter with invoice-specific options
type InvoiceFilter struct {
	shared.Filter
	CardID         *uuid.UUID
	Status         *InvoiceStatus
	ReferenceMonth *time.Time
}

// ExpenseFilter extends shared.Filter with expense-specific options
type ExpenseFilter struct {
	shared.Filter
	CardID          *uuid.UUID
	InvoiceID       *uuid.UUID
	PurchaseGroupID *uuid.UUID
	Category        string
	From            *time.Time
	To              *time.Time
}

// CardRepository persists card profiles.
// Every lookup is tenant-scoped and returns shared.ErrNotFound for unknown ids.
type CardRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Card, error)
	// FindByIDForUpdate reads and row-locks the card for the current transaction
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Card, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter CardFilter) ([]Card, int64, error)
	Save(ctx context.Context, card *Card) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// InvoiceRepository persists invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindOpenForUpdate returns the OPEN invoice for the card and reference month,
	// row-locked, or shared.ErrNotFound when there is none
	FindOpenForUpdate(ctx context.Context, tenantID, cardID uuid.UUID, referenceMonth time.Time) (*Invoice, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)
	CountByCard(ctx context.Context, tenantID, cardID uuid.UUID) (int64, error)
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// ExpenseRepository persists card expenses
type ExpenseRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Expense, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) ([]Expense, int64, error)
	Save(ctx context.Context, expense *Expense) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// DeleteByInvoice removes every expense attached to the invoice and returns how many went
	DeleteByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error)
	// SumByInvoice totals the expenses attached to each of the card's invoices
	SumByInvoice(ctx context.Context, tenantID, cardID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
	// SumOutstanding totals the card's expenses that are not on a PAID invoice
	SumOutstanding(ctx context.Context, tenantID, cardID uuid.UUID) (decimal.Decimal, error)
}

// Repositories is the set of repositories bound to one unit of work
type Repositories struct {
	Cards            CardRepository
	Invoices         InvoiceRepository
	Expenses         ExpenseRepository
	BankAccounts     finance.BankAccountRepository
	BankTransactions finance.BankTransactionRepository
	Payables         finance.AccountPayableRepository
}

// UnitOfWork runs fn inside one database transaction.
// The repositories passed to fn are bound to that transaction; returning an
// error from fn rolls every write back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
