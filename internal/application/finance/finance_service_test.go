package finance

import (
	"context"
	"testing"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type financeMocks struct {
	accounts *MockBankAccountRepository
	txs      *MockBankTransactionRepository
	payables *MockAccountPayableRepository
}

func newTestFinanceService() (*FinanceService, financeMocks) {
	m := financeMocks{
		accounts: new(MockBankAccountRepository),
		txs:      new(MockBankTransactionRepository),
		payables: new(MockAccountPayableRepository),
	}
	return NewFinanceService(m.accounts, m.txs, m.payables), m
}

func TestFinanceService_CreateBankAccount(t *testing.T) {
	svc, m := newTestFinanceService()
	tenantID := uuid.New()
	m.accounts.On("Save", mock.Anything, mock.AnythingOfType("*finance.BankAccount")).Return(nil)

	resp, err := svc.CreateBankAccount(context.Background(), tenantID, CreateBankAccountRequest{
		Name:           "  Operating  ",
		BankName:       "First Bank",
		OpeningBalance: decimal.NewFromInt(1000),
	})

	require.NoError(t, err)
	assert.Equal(t, "Operating", resp.Name)
	assert.Equal(t, tenantID, resp.TenantID)
	assert.Equal(t, "1000", resp.Balance.String())
}

func TestFinanceService_CreateBankAccount_Invalid(t *testing.T) {
	svc, m := newTestFinanceService()

	_, err := svc.CreateBankAccount(context.Background(), uuid.New(), CreateBankAccountRequest{Name: " "})

	assert.Equal(t, shared.KindInvalidInput, shared.KindOf(err))
	m.accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFinanceService_GetBankAccount_NotFound(t *testing.T) {
	svc, m := newTestFinanceService()
	tenantID, id := uuid.New(), uuid.New()
	m.accounts.On("FindByID", mock.Anything, tenantID, id).Return(nil, shared.ErrNotFound)

	_, err := svc.GetBankAccount(context.Background(), tenantID, id)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodeBankAccountNotFound, de.Code)
	assert.Equal(t, id.String(), de.Details["id"])
}

func TestFinanceService_ListTransactions(t *testing.T) {
	svc, m := newTestFinanceService()
	tenantID := uuid.New()
	account, err := finance.NewBankAccount(tenantID, "Operating", "", decimal.Zero)
	require.NoError(t, err)
	tx, err := finance.NewDebitTransaction(tenantID, account.ID, decimal.NewFromInt(40), "Card invoice", nil, account.CreatedAt)
	require.NoError(t, err)

	filter := shared.DefaultFilter()
	m.accounts.On("FindByID", mock.Anything, tenantID, account.ID).Return(account, nil)
	m.txs.On("FindByAccount", mock.Anything, tenantID, account.ID, filter).Return([]finance.BankTransaction{*tx}, int64(1), nil)

	items, total, err := svc.ListTransactions(context.Background(), tenantID, account.ID, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "DEBIT", items[0].Type)
	assert.Equal(t, "POSTED", items[0].Status)
}

func TestFinanceService_ListPayables_TranslatesFilter(t *testing.T) {
	svc, m := newTestFinanceService()
	tenantID := uuid.New()
	pending := finance.PayableStatusPending
	cardInvoice := finance.PayableSourceTypeCardInvoice

	m.payables.On("FindAll", mock.Anything, tenantID, mock.MatchedBy(func(f finance.PayableFilter) bool {
		return f.Status != nil && *f.Status == pending &&
			f.SourceType != nil && *f.SourceType == cardInvoice &&
			f.Page == 2 && f.PageSize == 10 && f.OrderBy == "due_date"
	})).Return([]finance.AccountPayable{}, int64(0), nil)

	items, total, err := svc.ListPayables(context.Background(), tenantID, PayableListFilter{
		Status: "PENDING", SourceType: "CARD_INVOICE", Page: 2, PageSize: 10,
	})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
	m.payables.AssertExpectations(t)
}
