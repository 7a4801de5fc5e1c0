package cardledger

import (
	"context"
	"testing"
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence"
	"github.com/foodops/backoffice/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

// fixedNow is the clock used by every fixture
var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type ledgerFixture struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	repos    cardledger.Repositories
	svc      *Service
	tenantID uuid.UUID
}

func newFixture(t *testing.T, opts ...Option) *ledgerFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repos := persistence.RepositoriesFor(db)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return &ledgerFixture{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		repos:    repos,
		svc:      NewService(persistence.NewGormUnitOfWork(db), repos, opts...),
		tenantID: uuid.New(),
	}
}

// createCard registers a card closing on closingDay and due on dueDay; an empty
// limit leaves it untracked
func (f *ledgerFixture) createCard(limit string, closingDay, dueDay int) *CardResponse {
	f.t.Helper()
	in := CreateCardInput{Name: "Corporate Visa", ClosingDay: closingDay, DueDay: dueDay}
	if limit != "" {
		in.Limit = ptr(dec(limit))
	}
	card, err := f.svc.CreateCard(f.ctx, f.tenantID, in)
	require.NoError(f.t, err)
	return card
}

func (f *ledgerFixture) charge(cardID uuid.UUID, amount string, purchased time.Time, installments int) []ExpenseResponse {
	f.t.Helper()
	rows, err := f.svc.CreateExpense(f.ctx, f.tenantID, CreateExpenseInput{
		CardID:       cardID,
		Amount:       dec(amount),
		PurchaseDate: purchased,
		Installments: installments,
		Description:  "Produce order",
		Category:     "ingredients",
	})
	require.NoError(f.t, err)
	return rows
}

func (f *ledgerFixture) card(id uuid.UUID) *CardResponse {
	f.t.Helper()
	card, err := f.svc.GetCard(f.ctx, f.tenantID, id)
	require.NoError(f.t, err)
	return card
}

func (f *ledgerFixture) invoice(id uuid.UUID) *InvoiceResponse {
	f.t.Helper()
	inv, err := f.svc.GetInvoice(f.ctx, f.tenantID, id)
	require.NoError(f.t, err)
	return inv
}

func (f *ledgerFixture) bankAccount(opening string) *finance.BankAccount {
	f.t.Helper()
	account, err := finance.NewBankAccount(f.tenantID, "Operating", "Itau", dec(opening))
	require.NoError(f.t, err)
	require.NoError(f.t, f.repos.BankAccounts.Save(f.ctx, account))
	return account
}

func (f *ledgerFixture) balance(accountID uuid.UUID) decimal.Decimal {
	f.t.Helper()
	account, err := f.repos.BankAccounts.FindByID(f.ctx, f.tenantID, accountID)
	require.NoError(f.t, err)
	return account.Balance
}

func (f *ledgerFixture) closeAndPay(invoiceID uuid.UUID, accountID *uuid.UUID) *InvoiceResponse {
	f.t.Helper()
	_, err := f.svc.CloseInvoice(f.ctx, f.tenantID, invoiceID, CloseInvoiceInput{})
	require.NoError(f.t, err)
	inv, err := f.svc.PayInvoice(f.ctx, f.tenantID, invoiceID, PayInvoiceInput{
		BankAccountID: accountID,
		PaymentDate:   date(2024, 2, 20),
	})
	require.NoError(f.t, err)
	return inv
}

func (f *ledgerFixture) requireBalanced(cardID uuid.UUID) {
	f.t.Helper()
	report, err := f.svc.Reconcile(f.ctx, f.tenantID, cardID)
	require.NoError(f.t, err)
	require.True(f.t, report.Balanced, "ledger drifted: %+v", report)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, dec(want).StringFixed(2), got.StringFixed(2))
}

func assertAvailable(t *testing.T, want string, card *CardResponse) {
	t.Helper()
	require.NotNil(t, card.AvailableLimit)
	assertAmount(t, want, *card.AvailableLimit)
}

func requireCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, code, de.Code)
	return de
}

// MockEventPublisher is a testify mock of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func eventTypes(events []shared.DomainEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventType()
	}
	return out
}
