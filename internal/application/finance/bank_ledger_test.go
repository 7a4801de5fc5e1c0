package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAccount(t *testing.T, tenantID uuid.UUID, balance string) *finance.BankAccount {
	t.Helper()
	account, err := finance.NewBankAccount(tenantID, "Operating", "First Bank", decimal.RequireFromString(balance))
	require.NoError(t, err)
	return account
}

func TestBankLedger_Debit(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	account := newTestAccount(t, tenantID, "1000")
	invoiceID := uuid.New()

	accounts := new(MockBankAccountRepository)
	txs := new(MockBankTransactionRepository)
	accounts.On("FindByID", mock.Anything, tenantID, account.ID).Return(account, nil)
	accounts.On("FindByIDForUpdate", mock.Anything, tenantID, account.ID).Return(account, nil)
	accounts.On("Save", mock.Anything, account).Return(nil)
	txs.On("Save", mock.Anything, mock.AnythingOfType("*finance.BankTransaction")).Return(nil)

	ledger := NewBankLedger(accounts, txs)
	tx, err := ledger.Debit(ctx, tenantID, account.ID, decimal.NewFromInt(250), "Card invoice 2024-03", &invoiceID, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, finance.TransactionTypeDebit, tx.Type)
	assert.Equal(t, finance.TransactionStatusPosted, tx.Status)
	assert.Equal(t, &invoiceID, tx.ReferenceID)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(750)))
	accounts.AssertExpectations(t)
	txs.AssertExpectations(t)
}

func TestBankLedger_AdjustBalance_AllowsOverdraft(t *testing.T) {
	tenantID := uuid.New()
	account := newTestAccount(t, tenantID, "10")

	accounts := new(MockBankAccountRepository)
	accounts.On("FindByIDForUpdate", mock.Anything, tenantID, account.ID).Return(account, nil)
	accounts.On("Save", mock.Anything, account).Return(nil)

	balance, err := NewBankLedger(accounts, new(MockBankTransactionRepository)).
		AdjustBalance(context.Background(), tenantID, account.ID, decimal.NewFromInt(-25))

	require.NoError(t, err)
	assert.Equal(t, "-15", balance.String())
}

func TestBankLedger_UnknownAccount(t *testing.T) {
	tenantID := uuid.New()
	missing := uuid.New()

	accounts := new(MockBankAccountRepository)
	accounts.On("FindByID", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)
	txs := new(MockBankTransactionRepository)

	_, err := NewBankLedger(accounts, txs).
		CreateDebitTransaction(context.Background(), tenantID, missing, decimal.NewFromInt(1), "x", nil, time.Now())

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CodeBankAccountNotFound, de.Code)
	assert.Equal(t, shared.KindNotFound, de.Kind)
	txs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBankLedger_ReverseTransaction(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	account := newTestAccount(t, tenantID, "750")
	tx, err := finance.NewDebitTransaction(tenantID, account.ID, decimal.NewFromInt(250), "Card invoice", nil, time.Now())
	require.NoError(t, err)

	accounts := new(MockBankAccountRepository)
	txs := new(MockBankTransactionRepository)
	txs.On("FindByID", mock.Anything, tenantID, tx.ID).Return(tx, nil)
	txs.On("Save", mock.Anything, tx).Return(nil)
	accounts.On("FindByIDForUpdate", mock.Anything, tenantID, account.ID).Return(account, nil)
	accounts.On("Save", mock.Anything, account).Return(nil)

	ledger := NewBankLedger(accounts, txs)
	reversed, err := ledger.ReverseTransaction(ctx, tenantID, tx.ID)

	require.NoError(t, err)
	assert.Equal(t, finance.TransactionStatusReversed, reversed.Status)
	assert.NotNil(t, reversed.ReversedAt)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))

	t.Run("twice is rejected", func(t *testing.T) {
		_, err := ledger.ReverseTransaction(ctx, tenantID, tx.ID)
		assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(1000)))
	})
}

func TestBankLedger_ReverseUnknownTransaction(t *testing.T) {
	tenantID := uuid.New()
	missing := uuid.New()
	txs := new(MockBankTransactionRepository)
	txs.On("FindByID", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)

	_, err := NewBankLedger(new(MockBankAccountRepository), txs).ReverseTransaction(context.Background(), tenantID, missing)

	assert.True(t, shared.IsNotFound(err))
	assert.ErrorIs(t, err, shared.NewNotFoundError(CodeBankTransactionNotFound, "Bank transaction", missing))
}
