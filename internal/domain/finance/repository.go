package finance

import (
	"context"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// PayableFilter extends shared.Filter with payable-specific options
type PayableFilter struct {
	shared.Filter
	Status     *PayableStatus
	SourceType *PayableSourceType
	SourceID   *uuid.UUID
}

// AccountPayableRepository persists account payables
type AccountPayableRepository interface {
	// FindByID returns shared.ErrNotFound when the payable does not exist for the tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountPayable, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter PayableFilter) ([]AccountPayable, int64, error)
	Save(ctx context.Context, payable *AccountPayable) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// GeneratePayableNumber returns the next "AP-YYYYMMDD-NNNNN" number for the tenant
	GeneratePayableNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// BankAccountRepository persists bank accounts
type BankAccountRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)
	// FindByIDForUpdate reads and row-locks the account for the current transaction
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankAccount, int64, error)
	Save(ctx context.Context, account *BankAccount) error
}

// BankTransactionRepository persists bank transactions
type BankTransactionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BankTransaction, error)
	FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]BankTransaction, int64, error)
	Save(ctx context.Context, tx *BankTransaction) error
}
