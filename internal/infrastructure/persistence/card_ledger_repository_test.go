package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

func saveCard(t *testing.T, db *gorm.DB, tenantID uuid.UUID, limit string) *cardledger.Card {
	t.Helper()
	var l *decimal.Decimal
	if limit != "" {
		v := d(limit)
		l = &v
	}
	card, err := cardledger.NewCard(tenantID, "Corporate Visa", l, 10, 20)
	require.NoError(t, err)
	require.NoError(t, NewGormCardRepository(db).Save(context.Background(), card))
	return card
}

func saveInvoice(t *testing.T, db *gorm.DB, card *cardledger.Card, month time.Month) *cardledger.Invoice {
	t.Helper()
	cycle, err := cardledger.CycleForMonth(card.CycleConfig(), day(2024, month, 1))
	require.NoError(t, err)
	inv := cardledger.NewInvoice(card.TenantID, card.ID, cycle)
	require.NoError(t, NewGormInvoiceRepository(db).Save(context.Background(), inv))
	return inv
}

func saveExpense(t *testing.T, db *gorm.DB, card *cardledger.Card, invoiceID uuid.UUID, amount string) *cardledger.Expense {
	t.Helper()
	p := cardledger.Purchase{
		TenantID:     card.TenantID,
		CardID:       card.ID,
		Amount:       d(amount),
		PurchaseDate: day(2024, 1, 5),
		Installments: 1,
		Metadata:     cardledger.ExpenseMetadata{Description: "Supplies", Category: "office"},
	}
	plans, err := cardledger.PlanInstallments(p, card.CycleConfig())
	require.NoError(t, err)
	e := cardledger.NewInstallmentExpense(p, uuid.New(), plans[0], invoiceID)
	require.NoError(t, NewGormCardExpenseRepository(db).Save(context.Background(), e))
	return e
}

func TestGormCardRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewGormCardRepository(db)
	tenantID := uuid.New()

	t.Run("round trips a limit-tracked card", func(t *testing.T) {
		card := saveCard(t, db, tenantID, "1000")
		require.NoError(t, card.Hold(d("250.50")))
		require.NoError(t, repo.Save(ctx, card))

		found, err := repo.FindByIDForUpdate(ctx, tenantID, card.ID)
		require.NoError(t, err)
		assert.Equal(t, "Corporate Visa", found.Name)
		assert.True(t, found.Limit.Equal(d("1000")))
		assert.True(t, found.AvailableLimit.Equal(d("749.50")))
		assert.Equal(t, 10, found.ClosingDay)
		assert.Equal(t, 20, found.DueDay)
	})

	t.Run("keeps an untracked limit as null", func(t *testing.T) {
		card := saveCard(t, db, tenantID, "")

		found, err := repo.FindByID(ctx, tenantID, card.ID)
		require.NoError(t, err)
		assert.Nil(t, found.Limit)
		assert.Nil(t, found.AvailableLimit)
		assert.False(t, found.HasLimit())
	})

	t.Run("is tenant scoped", func(t *testing.T) {
		card := saveCard(t, db, tenantID, "500")

		_, err := repo.FindByID(ctx, uuid.New(), card.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.True(t, errors.Is(repo.Delete(ctx, uuid.New(), card.ID), shared.ErrNotFound))
	})

	t.Run("lists with search and total", func(t *testing.T) {
		other := uuid.New()
		for range 3 {
			saveCard(t, db, other, "100")
		}
		filter := cardledger.CardFilter{Filter: shared.Filter{Page: 1, PageSize: 2}, Search: "visa"}

		cards, total, err := repo.FindAll(ctx, other, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, cards, 2)

		cards, total, err = repo.FindAll(ctx, other, cardledger.CardFilter{Filter: shared.DefaultFilter(), Search: "amex"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, cards)
	})
}

func TestGormInvoiceRepository_FindOpenForUpdate(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewGormInvoiceRepository(db)
	tenantID := uuid.New()
	card := saveCard(t, db, tenantID, "1000")
	inv := saveInvoice(t, db, card, time.March)

	found, err := repo.FindOpenForUpdate(ctx, tenantID, card.ID, day(2024, 3, 17))
	require.NoError(t, err)
	assert.Equal(t, inv.ID, found.ID)
	assert.Equal(t, day(2024, 3, 1), found.ReferenceMonth)
	assert.Equal(t, day(2024, 3, 10), found.ClosingDate)
	assert.Equal(t, day(2024, 4, 20), found.DueDate)

	_, err = repo.FindOpenForUpdate(ctx, tenantID, card.ID, day(2024, 4, 1))
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.NoError(t, found.Close(time.Now()))
	require.NoError(t, repo.Save(ctx, found))

	_, err = repo.FindOpenForUpdate(ctx, tenantID, card.ID, day(2024, 3, 1))
	assert.True(t, errors.Is(err, shared.ErrNotFound), "closed invoices are not open")

	count, err := repo.CountByCard(ctx, tenantID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	status := cardledger.InvoiceStatusClosed
	invoices, total, err := repo.FindAll(ctx, tenantID, cardledger.InvoiceFilter{Filter: shared.DefaultFilter(), Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, invoices, 1)
	assert.NotNil(t, invoices[0].ClosedAt)
}

func TestGormCardExpenseRepository_Sums(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewGormCardExpenseRepository(db)
	tenantID := uuid.New()
	card := saveCard(t, db, tenantID, "1000")

	open := saveInvoice(t, db, card, time.January)
	paid := saveInvoice(t, db, card, time.February)
	saveExpense(t, db, card, open.ID, "0.10")
	saveExpense(t, db, card, open.ID, "0.20")
	saveExpense(t, db, card, paid.ID, "99.99")

	require.NoError(t, paid.Close(time.Now()))
	require.NoError(t, paid.Pay(day(2024, 3, 20), nil, nil))
	require.NoError(t, NewGormInvoiceRepository(db).Save(ctx, paid))

	sums, err := repo.SumByInvoice(ctx, tenantID, card.ID)
	require.NoError(t, err)
	assert.True(t, sums[open.ID].Equal(d("0.30")), "got %s", sums[open.ID])
	assert.True(t, sums[paid.ID].Equal(d("99.99")), "got %s", sums[paid.ID])

	outstanding, err := repo.SumOutstanding(ctx, tenantID, card.ID)
	require.NoError(t, err)
	assert.True(t, outstanding.Equal(d("0.30")), "got %s", outstanding)

	rows, err := repo.FindByInvoice(ctx, tenantID, open.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	removed, err := repo.DeleteByInvoice(ctx, tenantID, open.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	outstanding, err = repo.SumOutstanding(ctx, tenantID, card.ID)
	require.NoError(t, err)
	assert.True(t, outstanding.IsZero())
}

func TestGormCardExpenseRepository_FindAll(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewGormCardExpenseRepository(db)
	tenantID := uuid.New()
	card := saveCard(t, db, tenantID, "")
	inv := saveInvoice(t, db, card, time.January)
	e := saveExpense(t, db, card, inv.ID, "42.00")
	saveExpense(t, db, card, inv.ID, "8.00")

	expenses, total, err := repo.FindAll(ctx, tenantID, cardledger.ExpenseFilter{
		Filter:          shared.DefaultFilter(),
		PurchaseGroupID: &e.PurchaseGroupID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Supplies", expenses[0].Description)
	assert.Equal(t, day(2024, 1, 5), expenses[0].PurchaseDate)

	_, total, err = repo.FindAll(ctx, tenantID, cardledger.ExpenseFilter{Filter: shared.DefaultFilter(), Category: "office"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestGormAccountPayableRepository_GeneratePayableNumber(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	repo := NewGormAccountPayableRepository(db)
	tenantID := uuid.New()

	first, err := repo.GeneratePayableNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Regexp(t, `^AP-\d{8}-00001$`, first)

	ap, err := finance.NewAccountPayable(tenantID, first, "Card invoice", finance.PayableSourceTypeManual, nil, d("10"), day(2024, 2, 20))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, ap))

	second, err := repo.GeneratePayableNumber(ctx, tenantID)
	require.NoError(t, err)
	assert.Regexp(t, `^AP-\d{8}-00002$`, second)

	require.NoError(t, repo.Delete(ctx, tenantID, ap.ID))
	_, err = repo.FindByID(ctx, tenantID, ap.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormBankRepositories(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	accounts := NewGormBankAccountRepository(db)
	txs := NewGormBankTransactionRepository(db)
	tenantID := uuid.New()

	account, err := finance.NewBankAccount(tenantID, "Operating", "Itau", d("5000"))
	require.NoError(t, err)
	require.NoError(t, accounts.Save(ctx, account))

	ref := uuid.New()
	tx, err := finance.NewDebitTransaction(tenantID, account.ID, d("120.35"), "Card invoice", &ref, day(2024, 2, 20))
	require.NoError(t, err)
	require.NoError(t, txs.Save(ctx, tx))
	account.AdjustBalance(tx.SignedAmount())
	require.NoError(t, accounts.Save(ctx, account))

	locked, err := accounts.FindByIDForUpdate(ctx, tenantID, account.ID)
	require.NoError(t, err)
	assert.True(t, locked.Balance.Equal(d("4879.65")))

	list, total, err := txs.FindByAccount(ctx, tenantID, account.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, finance.TransactionStatusPosted, list[0].Status)
	assert.Equal(t, &ref, list[0].ReferenceID)
}

func TestGormUnitOfWork(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	uow := NewGormUnitOfWork(db)
	tenantID := uuid.New()

	t.Run("commits every write", func(t *testing.T) {
		var cardID uuid.UUID
		err := uow.Do(ctx, func(ctx context.Context, repos cardledger.Repositories) error {
			card, err := cardledger.NewCard(tenantID, "Committed", nil, 1, 10)
			if err != nil {
				return err
			}
			cardID = card.ID
			return repos.Cards.Save(ctx, card)
		})
		require.NoError(t, err)

		_, err = NewGormCardRepository(db).FindByID(ctx, tenantID, cardID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		var cardID uuid.UUID
		boom := errors.New("boom")
		err := uow.Do(ctx, func(ctx context.Context, repos cardledger.Repositories) error {
			card, err := cardledger.NewCard(tenantID, "Rolled back", nil, 1, 10)
			if err != nil {
				return err
			}
			cardID = card.ID
			if err := repos.Cards.Save(ctx, card); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = NewGormCardRepository(db).FindByID(ctx, tenantID, cardID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}
