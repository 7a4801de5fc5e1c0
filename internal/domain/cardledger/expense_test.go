package cardledger

import (
	"testing"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchase_Validate(t *testing.T) {
	valid := Purchase{
		TenantID:     uuid.New(),
		CardID:       uuid.New(),
		Amount:       dec("150"),
		PurchaseDate: date(2024, 1, 5),
		Installments: 1,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *Purchase)
		code   string
	}{
		{"zero amount", func(p *Purchase) { p.Amount = decimal.Zero }, CodeInvalidAmount},
		{"negative amount", func(p *Purchase) { p.Amount = dec("-5") }, CodeInvalidAmount},
		{"sub-cent amount", func(p *Purchase) { p.Amount = dec("0.004") }, CodeInvalidAmount},
		{"zero installments", func(p *Purchase) { p.Installments = 0 }, CodeInvalidInstallments},
		{"too many installments", func(p *Purchase) { p.Installments = MaxInstallments + 1 }, CodeInvalidInstallments},
		{"missing date", func(p *Purchase) { p.PurchaseDate = date(1, 1, 1) }, CodeInvalidDate},
		{"missing card", func(p *Purchase) { p.CardID = uuid.Nil }, "INVALID_CARD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.code, err.(*shared.DomainError).Code)
			assert.Equal(t, shared.KindInvalidInput, shared.KindOf(err))
		})
	}
}

func TestPlanInstallments(t *testing.T) {
	cfg := CycleConfig{ClosingDay: 10, DueDay: 20}

	t.Run("three installments land on consecutive months", func(t *testing.T) {
		plans, err := PlanInstallments(Purchase{
			CardID:       uuid.New(),
			Amount:       dec("300"),
			PurchaseDate: date(2024, 1, 5),
			Installments: 3,
		}, cfg)
		require.NoError(t, err)
		require.Len(t, plans, 3)

		wantMonths := []int{1, 2, 3}
		for i, p := range plans {
			assert.Equal(t, i+1, p.Number)
			assert.True(t, p.Amount.Equal(dec("100")))
			assert.Equal(t, date(2024, 1, 1).AddDate(0, wantMonths[i]-1, 0), p.Cycle.ReferenceMonth)
		}
	})

	t.Run("remainder goes to the last installment", func(t *testing.T) {
		plans, err := PlanInstallments(Purchase{
			CardID:       uuid.New(),
			Amount:       dec("100"),
			PurchaseDate: date(2024, 1, 15),
			Installments: 3,
		}, cfg)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, p := range plans {
			sum = sum.Add(p.Amount)
		}
		assert.True(t, sum.Equal(dec("100")))
		assert.True(t, plans[0].Amount.Equal(dec("33.33")))
		assert.True(t, plans[2].Amount.Equal(dec("33.34")))
		assert.Equal(t, date(2024, 2, 1), plans[0].Cycle.ReferenceMonth)
		assert.Equal(t, date(2024, 4, 1), plans[2].Cycle.ReferenceMonth)
	})

	t.Run("invalid purchase is rejected", func(t *testing.T) {
		_, err := PlanInstallments(Purchase{CardID: uuid.New(), Amount: dec("10"), PurchaseDate: date(2024, 1, 1)}, cfg)
		assert.Error(t, err)
	})
}

func TestNewInstallmentExpense(t *testing.T) {
	p := Purchase{
		TenantID:     uuid.New(),
		CardID:       uuid.New(),
		Amount:       dec("300"),
		PurchaseDate: date(2024, 1, 5),
		Installments: 3,
		Metadata:     ExpenseMetadata{Description: "  Walk-in freezer  ", Category: "equipment"},
	}
	plans, err := PlanInstallments(p, CycleConfig{ClosingDay: 10, DueDay: 20})
	require.NoError(t, err)

	groupID, invoiceID := uuid.New(), uuid.New()
	e := NewInstallmentExpense(p, groupID, plans[1], invoiceID)

	assert.Equal(t, p.CardID, e.CardID)
	assert.True(t, e.AttachedTo(invoiceID))
	assert.False(t, e.IsPending())
	assert.Equal(t, groupID, e.PurchaseGroupID)
	assert.Equal(t, 2, e.InstallmentNumber)
	assert.Equal(t, 1, e.InstallmentOffset())
	assert.Equal(t, 3, e.Installments)
	assert.Equal(t, "Walk-in freezer", e.Description)
	require.Len(t, e.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeExpenseCharged, e.GetDomainEvents()[0].EventType())
}

func TestExpense_Apply(t *testing.T) {
	oldInvoice, newInvoice, newCard := uuid.New(), uuid.New(), uuid.New()
	e := &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
		CardID:              uuid.New(),
		InvoiceID:           &oldInvoice,
		Amount:              dec("100"),
		Installments:        1,
		InstallmentNumber:   1,
	}
	oldCard := e.CardID

	e.Apply(dec("120.555"), newCard, newInvoice, &ExpenseMetadata{Category: " food "})

	assert.True(t, e.Amount.Equal(dec("120.56")))
	assert.Equal(t, newCard, e.CardID)
	assert.True(t, e.AttachedTo(newInvoice))
	assert.Equal(t, "food", e.Category)

	require.Len(t, e.GetDomainEvents(), 1)
	ev := e.GetDomainEvents()[0].(*ExpenseUpdatedEvent)
	assert.Equal(t, oldCard, ev.OldCardID)
	assert.Equal(t, newCard, ev.NewCardID)
	assert.Equal(t, oldInvoice, *ev.OldInvoiceID)
	assert.True(t, ev.OldAmount.Equal(dec("100")))
}

func TestExpenseChange_Validate(t *testing.T) {
	zero := decimal.Zero
	nilID := uuid.Nil

	assert.NoError(t, ExpenseChange{}.Validate())
	assert.Error(t, ExpenseChange{Amount: &zero}.Validate())
	assert.Error(t, ExpenseChange{CardID: &nilID}.Validate())
	assert.Error(t, ExpenseChange{InvoiceID: &nilID}.Validate())
}
