package cardledger

import (
	"context"
	"testing"
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateExpense_Validation(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)

	tests := []struct {
		name string
		in   CreateExpenseInput
		code string
	}{
		{
			name: "zero amount",
			in:   CreateExpenseInput{CardID: card.ID, Amount: decimal.Zero, PurchaseDate: date(2024, 1, 5)},
			code: cardledger.CodeInvalidAmount,
		},
		{
			name: "negative amount",
			in:   CreateExpenseInput{CardID: card.ID, Amount: dec("-10"), PurchaseDate: date(2024, 1, 5)},
			code: cardledger.CodeInvalidAmount,
		},
		{
			name: "negative installments",
			in:   CreateExpenseInput{CardID: card.ID, Amount: dec("10"), PurchaseDate: date(2024, 1, 5), Installments: -2},
			code: cardledger.CodeInvalidInstallments,
		},
		{
			name: "unknown card",
			in:   CreateExpenseInput{CardID: uuid.New(), Amount: dec("10"), PurchaseDate: date(2024, 1, 5)},
			code: cardledger.CodeCardNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateExpense(f.ctx, f.tenantID, tt.in)
			requireCode(t, err, tt.code)
		})
	}

	assertAvailable(t, "1000", f.card(card.ID))
	_, total, err := f.svc.ListInvoices(f.ctx, f.tenantID, cardledger.InvoiceFilter{Filter: shared.DefaultFilter(), CardID: &card.ID})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateExpense_InsufficientLimitRollsBack(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("200", 10, 20)
	f.charge(card.ID, "150", date(2024, 1, 5), 1)

	_, err := f.svc.CreateExpense(f.ctx, f.tenantID, CreateExpenseInput{
		CardID:       card.ID,
		Amount:       dec("90"),
		PurchaseDate: date(2024, 3, 5),
		Installments: 2,
	})

	de := requireCode(t, err, cardledger.CodeInsufficientLimit)
	assert.Equal(t, shared.KindInvalidState, de.Kind)
	assertAvailable(t, "50", f.card(card.ID))

	month := date(2024, 3, 1)
	_, total, err := f.svc.ListInvoices(f.ctx, f.tenantID, cardledger.InvoiceFilter{
		Filter:         shared.DefaultFilter(),
		CardID:         &card.ID,
		ReferenceMonth: &month,
	})
	require.NoError(t, err)
	assert.Zero(t, total, "no invoice may survive a rejected charge")
}

func TestCreateExpense_UntrackedCardAcceptsAnyAmount(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("", 10, 20)

	rows := f.charge(card.ID, "25000", date(2024, 1, 5), 1)

	assert.Nil(t, f.card(card.ID).AvailableLimit)
	assertAmount(t, "25000", f.invoice(*rows[0].InvoiceID).TotalAmount)
	f.requireBalanced(card.ID)
}

func TestCreateExpense_AfterCloseOpensNewInvoice(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	first := f.charge(card.ID, "100", date(2024, 1, 5), 1)
	closedID := *first[0].InvoiceID
	_, err := f.svc.CloseInvoice(f.ctx, f.tenantID, closedID, CloseInvoiceInput{})
	require.NoError(t, err)

	late := f.charge(card.ID, "30", date(2024, 1, 8), 1)

	require.NotEqual(t, closedID, *late[0].InvoiceID)
	reopened := f.invoice(*late[0].InvoiceID)
	assert.Equal(t, "2024-01", reopened.ReferenceMonth)
	assert.Equal(t, "OPEN", reopened.Status)
	assertAmount(t, "30", reopened.TotalAmount)
	assertAmount(t, "100", f.invoice(closedID).TotalAmount)
	f.requireBalanced(card.ID)
}

func TestUpdateExpense_Amount(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "150", date(2024, 1, 5), 1)

	updated, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{
		Amount:      ptr(dec("200")),
		Description: ptr("Produce order, corrected"),
	})
	require.NoError(t, err)

	assertAmount(t, "200", updated.Amount)
	assert.Equal(t, "Produce order, corrected", updated.Description)
	assert.Equal(t, "ingredients", updated.Category)
	assertAmount(t, "200", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "800", f.card(card.ID))

	_, err = f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("50"))})
	require.NoError(t, err)
	assertAmount(t, "50", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "950", f.card(card.ID))
	f.requireBalanced(card.ID)
}

func TestUpdateExpense_MoveToAnotherCard(t *testing.T) {
	f := newFixture(t)
	source := f.createCard("1000", 10, 20)
	target := f.createCard("1000", 25, 5)
	rows := f.charge(source.ID, "150", date(2024, 1, 5), 1)

	moved, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{
		CardID: &target.ID,
		Amount: ptr(dec("120")),
	})
	require.NoError(t, err)

	assert.Equal(t, target.ID, moved.CardID)
	require.NotNil(t, moved.InvoiceID)
	assert.NotEqual(t, *rows[0].InvoiceID, *moved.InvoiceID)

	newInvoice := f.invoice(*moved.InvoiceID)
	assert.Equal(t, target.ID, newInvoice.CardID)
	assert.Equal(t, "2024-01", newInvoice.ReferenceMonth)
	assert.Equal(t, "2024-02-05", newInvoice.DueDate)
	assertAmount(t, "120", newInvoice.TotalAmount)
	assertAmount(t, "0", f.invoice(*rows[0].InvoiceID).TotalAmount)

	assertAvailable(t, "1000", f.card(source.ID))
	assertAvailable(t, "880", f.card(target.ID))
	f.requireBalanced(source.ID)
	f.requireBalanced(target.ID)
}

func TestUpdateExpense_MoveToExplicitInvoice(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "150", date(2024, 1, 5), 1)
	april, err := f.svc.GetOrCreateOpenInvoice(f.ctx, f.tenantID, card.ID, date(2024, 4, 1))
	require.NoError(t, err)

	moved, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{InvoiceID: &april.ID})
	require.NoError(t, err)

	assert.Equal(t, &april.ID, moved.InvoiceID)
	assertAmount(t, "150", f.invoice(april.ID).TotalAmount)
	assertAmount(t, "0", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "850", f.card(card.ID))
	f.requireBalanced(card.ID)
}

func TestUpdateExpense_Rejections(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	other := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "150", date(2024, 1, 5), 1)
	otherInvoice, err := f.svc.GetOrCreateOpenInvoice(f.ctx, f.tenantID, other.ID, date(2024, 1, 1))
	require.NoError(t, err)

	t.Run("invoice of another card", func(t *testing.T) {
		_, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{InvoiceID: &otherInvoice.ID})
		requireCode(t, err, cardledger.CodeInvoiceCardMismatch)
	})

	t.Run("non positive amount", func(t *testing.T) {
		_, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(decimal.Zero)})
		requireCode(t, err, cardledger.CodeInvalidAmount)
	})

	t.Run("amount above the limit", func(t *testing.T) {
		_, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("1150.01"))})
		requireCode(t, err, cardledger.CodeInsufficientLimit)
	})

	t.Run("unknown expense", func(t *testing.T) {
		_, err := f.svc.UpdateExpense(f.ctx, f.tenantID, uuid.New(), UpdateExpenseInput{Amount: ptr(dec("1"))})
		requireCode(t, err, cardledger.CodeExpenseNotFound)
	})

	t.Run("settled source invoice", func(t *testing.T) {
		_, err := f.svc.CloseInvoice(f.ctx, f.tenantID, *rows[0].InvoiceID, CloseInvoiceInput{})
		require.NoError(t, err)

		_, err = f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("10"))})
		requireCode(t, err, cardledger.CodeCannotModifySettledInvoice)
	})

	assertAmount(t, "150", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "850", f.card(card.ID))
	assertAvailable(t, "1000", f.card(other.ID))
}

func TestDeleteExpense(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "300", date(2024, 1, 5), 3)

	require.NoError(t, f.svc.DeleteExpense(f.ctx, f.tenantID, rows[1].ID))

	assertAmount(t, "0", f.invoice(*rows[1].InvoiceID).TotalAmount)
	assertAmount(t, "100", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "800", f.card(card.ID))
	_, err := f.svc.GetExpense(f.ctx, f.tenantID, rows[1].ID)
	requireCode(t, err, cardledger.CodeExpenseNotFound)
	f.requireBalanced(card.ID)

	t.Run("settled invoice", func(t *testing.T) {
		_, err := f.svc.CloseInvoice(f.ctx, f.tenantID, *rows[0].InvoiceID, CloseInvoiceInput{})
		require.NoError(t, err)

		err = f.svc.DeleteExpense(f.ctx, f.tenantID, rows[0].ID)
		requireCode(t, err, cardledger.CodeCannotModifySettledInvoice)
		assertAvailable(t, "800", f.card(card.ID))
	})
}

func TestListExpenses_ByPurchaseGroup(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "90", date(2024, 1, 5), 3)
	f.charge(card.ID, "15", date(2024, 1, 6), 1)

	group := rows[0].PurchaseGroupID
	list, total, err := f.svc.ListExpenses(f.ctx, f.tenantID, cardledger.ExpenseFilter{
		Filter:          shared.DefaultFilter(),
		PurchaseGroupID: &group,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 3)

	byInvoice, err := f.svc.ListInvoiceExpenses(f.ctx, f.tenantID, *rows[0].InvoiceID)
	require.NoError(t, err)
	assert.Len(t, byInvoice, 2)
}

func TestUpdateExpense_SubCentAmountKeepsTotalsInCents(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "100", date(2024, 1, 5), 1)

	updated, err := f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("100.005"))})
	require.NoError(t, err)

	assert.Equal(t, "100.01", updated.Amount.StringFixed(2))
	inv := f.invoice(*rows[0].InvoiceID)
	assert.True(t, dec("100.01").Equal(inv.TotalAmount), "invoice total %s", inv.TotalAmount)
	available := f.card(card.ID).AvailableLimit
	require.NotNil(t, available)
	assert.True(t, dec("899.99").Equal(*available), "available %s", *available)
	f.requireBalanced(card.ID)

	_, err = f.svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("0.004"))})
	requireCode(t, err, cardledger.CodeInvalidAmount)
}

// txUnitOfWork runs fn on an already open transaction
type txUnitOfWork struct {
	tx *gorm.DB
}

func (u txUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos cardledger.Repositories) error) error {
	return fn(ctx, persistence.RepositoriesFor(u.tx))
}

// interleavedExpenses runs between once right after the first unlocked
// expense read, the window where a competing request can commit
type interleavedExpenses struct {
	cardledger.ExpenseRepository
	between func()
}

func (r *interleavedExpenses) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Expense, error) {
	expense, err := r.ExpenseRepository.FindByID(ctx, tenantID, id)
	if r.between != nil {
		between := r.between
		r.between = nil
		between()
	}
	return expense, err
}

// interleavedUnitOfWork lets a competing service act on the same transaction
// after the expense was read but before any row was locked
type interleavedUnitOfWork struct {
	db      *gorm.DB
	compete func(ctx context.Context, competitor *Service)
}

func (u *interleavedUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos cardledger.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := persistence.RepositoriesFor(tx)
		compete := u.compete
		u.compete = nil
		expenses := &interleavedExpenses{ExpenseRepository: repos.Expenses}
		if compete != nil {
			competitor := NewService(txUnitOfWork{tx: tx}, persistence.RepositoriesFor(tx), WithClock(func() time.Time { return fixedNow }))
			expenses.between = func() { compete(ctx, competitor) }
		}
		repos.Expenses = expenses
		return fn(ctx, repos)
	})
}

func (f *ledgerFixture) interleaved(compete func(ctx context.Context, competitor *Service)) *Service {
	uow := &interleavedUnitOfWork{db: f.db, compete: compete}
	return NewService(uow, f.repos, WithClock(func() time.Time { return fixedNow }))
}

func TestUpdateExpense_InterleavedUpdateIsNotLost(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "100", date(2024, 1, 5), 1)

	svc := f.interleaved(func(ctx context.Context, competitor *Service) {
		_, err := competitor.UpdateExpense(ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("150"))})
		require.NoError(t, err)
	})

	updated, err := svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("200"))})
	require.NoError(t, err)

	assertAmount(t, "200", updated.Amount)
	assertAmount(t, "200", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "800", f.card(card.ID))
	f.requireBalanced(card.ID)
}

func TestUpdateExpense_InterleavedMoveFollowsTheRow(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "100", date(2024, 1, 5), 1)
	april, err := f.svc.GetOrCreateOpenInvoice(f.ctx, f.tenantID, card.ID, date(2024, 4, 1))
	require.NoError(t, err)

	svc := f.interleaved(func(ctx context.Context, competitor *Service) {
		_, err := competitor.UpdateExpense(ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{InvoiceID: &april.ID})
		require.NoError(t, err)
	})

	updated, err := svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("200"))})
	require.NoError(t, err)

	assert.Equal(t, &april.ID, updated.InvoiceID)
	assertAmount(t, "200", f.invoice(april.ID).TotalAmount)
	assertAmount(t, "0", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "800", f.card(card.ID))
	f.requireBalanced(card.ID)
}

func TestUpdateExpense_InterleavedDeleteReportsNotFound(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "100", date(2024, 1, 5), 1)

	deleted := false
	svc := f.interleaved(func(ctx context.Context, competitor *Service) {
		require.NoError(t, competitor.DeleteExpense(ctx, f.tenantID, rows[0].ID))
		deleted = true
	})

	_, err := svc.UpdateExpense(f.ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("200"))})
	require.True(t, deleted)
	requireCode(t, err, cardledger.CodeExpenseNotFound)

	// the competing delete shared the transaction, so the rollback restores the row untouched
	got, err := f.svc.GetExpense(f.ctx, f.tenantID, rows[0].ID)
	require.NoError(t, err)
	assertAmount(t, "100", got.Amount)
	assertAmount(t, "100", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "900", f.card(card.ID))
	f.requireBalanced(card.ID)
}

func TestDeleteExpense_InterleavedUpdateReleasesCurrentAmount(t *testing.T) {
	f := newFixture(t)
	card := f.createCard("1000", 10, 20)
	rows := f.charge(card.ID, "100", date(2024, 1, 5), 1)
	f.charge(card.ID, "40", date(2024, 1, 6), 1)

	svc := f.interleaved(func(ctx context.Context, competitor *Service) {
		_, err := competitor.UpdateExpense(ctx, f.tenantID, rows[0].ID, UpdateExpenseInput{Amount: ptr(dec("150"))})
		require.NoError(t, err)
	})

	require.NoError(t, svc.DeleteExpense(f.ctx, f.tenantID, rows[0].ID))

	assertAmount(t, "40", f.invoice(*rows[0].InvoiceID).TotalAmount)
	assertAvailable(t, "960", f.card(card.ID))
	f.requireBalanced(card.ID)
}
