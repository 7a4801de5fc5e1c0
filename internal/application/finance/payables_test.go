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

func TestPayableLedger_Lifecycle(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	invoiceID := uuid.New()
	bankAccountID := uuid.New()

	repo := new(MockAccountPayableRepository)
	repo.On("GeneratePayableNumber", mock.Anything, tenantID).Return("AP-20240410-00001", nil)
	repo.On("Save", mock.Anything, mock.AnythingOfType("*finance.AccountPayable")).Return(nil)

	ledger := NewPayableLedger(repo)
	payable, err := ledger.Create(ctx, tenantID, PayableInput{
		Amount:      decimal.NewFromInt(300),
		DueDate:     time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
		Description: "Corporate Visa invoice 2024-03",
		SourceType:  finance.PayableSourceTypeCardInvoice,
		SourceID:    &invoiceID,
	})
	require.NoError(t, err)
	assert.Equal(t, "AP-20240410-00001", payable.PayableNumber)
	assert.Equal(t, finance.PayableStatusPending, payable.Status)

	repo.On("FindByID", mock.Anything, tenantID, payable.ID).Return(payable, nil)

	require.NoError(t, ledger.MarkPaid(ctx, tenantID, payable.ID, time.Now(), &bankAccountID))
	assert.Equal(t, finance.PayableStatusPaid, payable.Status)
	assert.Equal(t, &bankAccountID, payable.BankAccountID)

	require.NoError(t, ledger.RevertPayment(ctx, tenantID, payable.ID))
	assert.Equal(t, finance.PayableStatusPending, payable.Status)
	assert.Nil(t, payable.PaidAt)

	err = ledger.RevertPayment(ctx, tenantID, payable.ID)
	assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))

	repo.On("Delete", mock.Anything, tenantID, payable.ID).Return(nil)
	removed, err := ledger.Delete(ctx, tenantID, payable.ID)
	require.NoError(t, err)
	assert.Equal(t, payable.ID, removed.ID)
	repo.AssertExpectations(t)
}

func TestPayableLedger_DefaultsToManual(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockAccountPayableRepository)
	repo.On("GeneratePayableNumber", mock.Anything, tenantID).Return("AP-1", nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	payable, err := NewPayableLedger(repo).Create(context.Background(), tenantID, PayableInput{
		Amount:  decimal.NewFromInt(5),
		DueDate: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, finance.PayableSourceTypeManual, payable.SourceType)
}

func TestPayableLedger_NumberGenerationFails(t *testing.T) {
	tenantID := uuid.New()
	repo := new(MockAccountPayableRepository)
	repo.On("GeneratePayableNumber", mock.Anything, tenantID).Return("", errors.New("connection reset"))

	_, err := NewPayableLedger(repo).Create(context.Background(), tenantID, PayableInput{Amount: decimal.NewFromInt(5), DueDate: time.Now()})
	assert.EqualError(t, err, "connection reset")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPayableLedger_MissingPayable(t *testing.T) {
	tenantID := uuid.New()
	missing := uuid.New()
	repo := new(MockAccountPayableRepository)
	repo.On("FindByID", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)

	err := NewPayableLedger(repo).MarkPaid(context.Background(), tenantID, missing, time.Now(), nil)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, CodePayableNotFound, de.Code)
}
