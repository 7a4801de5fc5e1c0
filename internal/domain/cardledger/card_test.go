package cardledger

import (
	"testing"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func newTestCard(t *testing.T, limit *decimal.Decimal) *Card {
	t.Helper()
	card, err := NewCard(uuid.New(), "Corporate Visa", limit, 10, 20)
	require.NoError(t, err)
	return card
}

func TestNewCard(t *testing.T) {
	t.Run("starts with the full limit available", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		assert.True(t, card.HasLimit())
		assert.True(t, card.AvailableLimit.Equal(dec("1000")))
		assert.True(t, card.Exposure().IsZero())
		require.Len(t, card.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeCardCreated, card.GetDomainEvents()[0].EventType())
	})

	t.Run("untracked card has no limits", func(t *testing.T) {
		card := newTestCard(t, nil)
		assert.False(t, card.HasLimit())
		assert.Nil(t, card.AvailableLimit)
	})

	t.Run("limit is copied, not aliased", func(t *testing.T) {
		limit := dec("500")
		card, err := NewCard(uuid.New(), "Amex", &limit, 1, 8)
		require.NoError(t, err)
		limit = dec("1")
		assert.True(t, card.Limit.Equal(dec("500")))
	})

	tests := []struct {
		name     string
		cardName string
		limit    *decimal.Decimal
		closing  int
		due      int
		code     string
	}{
		{"empty name", "  ", nil, 10, 20, CodeInvalidName},
		{"negative limit", "Visa", decPtr("-1"), 10, 20, CodeInvalidLimit},
		{"closing day out of range", "Visa", nil, 0, 20, CodeInvalidConfiguration},
		{"due day out of range", "Visa", nil, 10, 40, CodeInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCard(uuid.New(), tt.cardName, tt.limit, tt.closing, tt.due)
			require.Error(t, err)
			assert.Equal(t, tt.code, err.(*shared.DomainError).Code)
		})
	}
}

func TestCard_HoldAndRelease(t *testing.T) {
	t.Run("hold decrements available limit", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		require.NoError(t, card.Hold(dec("150")))
		assert.True(t, card.AvailableLimit.Equal(dec("850")))
		assert.True(t, card.Exposure().Equal(dec("150")))
	})

	t.Run("hold may reach exactly zero", func(t *testing.T) {
		card := newTestCard(t, decPtr("100"))
		require.NoError(t, card.Hold(dec("100")))
		assert.True(t, card.AvailableLimit.IsZero())
	})

	t.Run("hold beyond available limit is rejected without change", func(t *testing.T) {
		card := newTestCard(t, decPtr("100"))
		err := card.Hold(dec("100.01"))
		require.Error(t, err)
		assert.Equal(t, CodeInsufficientLimit, err.(*shared.DomainError).Code)
		assert.Equal(t, shared.KindInvalidState, shared.KindOf(err))
		assert.True(t, card.AvailableLimit.Equal(dec("100")))
	})

	t.Run("release restores available limit", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		require.NoError(t, card.Hold(dec("400")))
		require.NoError(t, card.Release(dec("400")))
		assert.True(t, card.AvailableLimit.Equal(dec("1000")))
	})

	t.Run("release past the limit is a bookkeeping error", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		err := card.Release(dec("1"))
		require.Error(t, err)
		assert.Equal(t, CodeLimitOverflow, err.(*shared.DomainError).Code)
	})

	t.Run("untracked card ignores holds", func(t *testing.T) {
		card := newTestCard(t, nil)
		assert.NoError(t, card.Hold(dec("99999")))
		assert.NoError(t, card.Release(dec("99999")))
		assert.Nil(t, card.AvailableLimit)
	})

	t.Run("adjust with negative delta releases", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		require.NoError(t, card.Hold(dec("300")))
		require.NoError(t, card.Adjust(dec("-100")))
		assert.True(t, card.AvailableLimit.Equal(dec("800")))
	})
}

func TestCard_SetLimit(t *testing.T) {
	t.Run("raising the limit keeps the exposure", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		require.NoError(t, card.Hold(dec("300")))
		require.NoError(t, card.SetLimit(decPtr("2000"), decimal.Zero))
		assert.True(t, card.AvailableLimit.Equal(dec("1700")))
	})

	t.Run("cannot lower the limit below the exposure", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		require.NoError(t, card.Hold(dec("300")))
		err := card.SetLimit(decPtr("200"), decimal.Zero)
		require.Error(t, err)
		assert.True(t, card.Limit.Equal(dec("1000")))
	})

	t.Run("starting to track uses the supplied exposure", func(t *testing.T) {
		card := newTestCard(t, nil)
		require.NoError(t, card.SetLimit(decPtr("1000"), dec("250")))
		assert.True(t, card.AvailableLimit.Equal(dec("750")))
	})

	t.Run("clearing the limit stops tracking", func(t *testing.T) {
		card := newTestCard(t, decPtr("1000"))
		require.NoError(t, card.SetLimit(nil, decimal.Zero))
		assert.False(t, card.HasLimit())
	})
}

func TestCard_UpdateProfile(t *testing.T) {
	card := newTestCard(t, nil)
	version := card.Version

	require.NoError(t, card.UpdateProfile("Ops Mastercard", 25, 5))
	assert.Equal(t, "Ops Mastercard", card.Name)
	assert.Equal(t, CycleConfig{ClosingDay: 25, DueDay: 5}, card.CycleConfig())
	assert.Equal(t, version+1, card.Version)

	assert.Error(t, card.UpdateProfile("Ops", 32, 5))
	assert.Equal(t, 25, card.ClosingDay)
}
