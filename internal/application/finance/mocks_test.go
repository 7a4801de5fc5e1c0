package finance

import (
	"context"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.BankAccount, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.BankAccount), args.Get(1).(int64), args.Error(2)
}

func (m *MockBankAccountRepository) Save(ctx context.Context, account *finance.BankAccount) error {
	return m.Called(ctx, account).Error(0)
}

type MockBankTransactionRepository struct {
	mock.Mock
}

func (m *MockBankTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.BankTransaction), args.Error(1)
}

func (m *MockBankTransactionRepository) FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]finance.BankTransaction, int64, error) {
	args := m.Called(ctx, tenantID, accountID, filter)
	return args.Get(0).([]finance.BankTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockBankTransactionRepository) Save(ctx context.Context, tx *finance.BankTransaction) error {
	return m.Called(ctx, tx).Error(0)
}

type MockAccountPayableRepository struct {
	mock.Mock
}

func (m *MockAccountPayableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountPayable, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.AccountPayable), args.Error(1)
}

func (m *MockAccountPayableRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.PayableFilter) ([]finance.AccountPayable, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]finance.AccountPayable), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountPayableRepository) Save(ctx context.Context, payable *finance.AccountPayable) error {
	return m.Called(ctx, payable).Error(0)
}

func (m *MockAccountPayableRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockAccountPayableRepository) GeneratePayableNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}
