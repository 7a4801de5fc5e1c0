package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBankAccount(t *testing.T) {
	acc, err := NewBankAccount(uuid.New(), " Operating ", "Itau", decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Equal(t, "Operating", acc.Name)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(5000)))

	_, err = NewBankAccount(uuid.New(), "", "", decimal.Zero)
	assert.Error(t, err)
}

func TestBankAccount_AdjustBalance(t *testing.T) {
	acc, err := NewBankAccount(uuid.New(), "Operating", "", decimal.NewFromInt(5000))
	require.NoError(t, err)

	assert.True(t, acc.AdjustBalance(decimal.NewFromInt(-150)).Equal(decimal.NewFromInt(4850)))
	assert.True(t, acc.AdjustBalance(decimal.NewFromInt(-5000)).Equal(decimal.NewFromInt(-150)))
	assert.Equal(t, 3, acc.Version)
}

func TestBankTransaction(t *testing.T) {
	ref := uuid.New()
	tx, err := NewDebitTransaction(uuid.New(), uuid.New(), decimal.NewFromInt(150), "Card invoice", &ref, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TransactionTypeDebit, tx.Type)
	assert.Equal(t, TransactionStatusPosted, tx.Status)
	assert.True(t, tx.SignedAmount().Equal(decimal.NewFromInt(-150)))

	require.NoError(t, tx.Reverse(time.Now()))
	assert.Equal(t, TransactionStatusReversed, tx.Status)
	assert.NotNil(t, tx.ReversedAt)
	assert.Error(t, tx.Reverse(time.Now()))

	_, err = NewDebitTransaction(uuid.New(), uuid.Nil, decimal.NewFromInt(1), "", nil, time.Now())
	assert.Error(t, err)
}
