package cardledger

import (
	"fmt"
	"strings"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Card is a credit card profile: its limit, the running available limit and
// the closing/due days that shape its billing cycles.
//
// Limit and AvailableLimit are either both nil (the card is not limit-tracked)
// or both set with 0 <= AvailableLimit <= Limit.
type Card struct {
	shared.TenantAggregateRoot
	Name           string
	Limit          *decimal.Decimal
	AvailableLimit *decimal.Decimal
	ClosingDay     int
	DueDay         int
}

// NewCard creates a card with its full limit available
func NewCard(tenantID uuid.UUID, name string, limit *decimal.Decimal, closingDay, dueDay int) (*Card, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewInvalidInputError(CodeInvalidName, "Card name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewInvalidInputError(CodeInvalidName, "Card name cannot exceed 100 characters")
	}
	cfg := CycleConfig{ClosingDay: closingDay, DueDay: dueDay}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if limit != nil && limit.IsNegative() {
		return nil, shared.NewInvalidInputError(CodeInvalidLimit, "Card limit cannot be negative")
	}

	card := &Card{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		ClosingDay:          closingDay,
		DueDay:              dueDay,
	}
	if limit != nil {
		l := *limit
		available := *limit
		card.Limit = &l
		card.AvailableLimit = &available
	}
	card.AddDomainEvent(NewCardCreatedEvent(card))
	return card, nil
}

// CycleConfig returns the card's billing-cycle settings
func (c *Card) CycleConfig() CycleConfig {
	return CycleConfig{ClosingDay: c.ClosingDay, DueDay: c.DueDay}
}

// HasLimit reports whether the card tracks an available limit
func (c *Card) HasLimit() bool {
	return c.Limit != nil && c.AvailableLimit != nil
}

// Exposure is the amount currently held against the limit
func (c *Card) Exposure() decimal.Decimal {
	if !c.HasLimit() {
		return decimal.Zero
	}
	return c.Limit.Sub(*c.AvailableLimit)
}

// Hold places amount against the available limit.
// Untracked cards accept any hold.
func (c *Card) Hold(amount decimal.Decimal) error {
	if !c.HasLimit() || amount.IsZero() {
		return nil
	}
	next := c.AvailableLimit.Sub(amount)
	if next.IsNegative() {
		return shared.NewInvalidStateError(CodeInsufficientLimit,
			fmt.Sprintf("Card %s has %s available, cannot hold %s", c.Name, c.AvailableLimit.StringFixed(2), amount.StringFixed(2))).
			WithDetail("card_id", c.ID.String()).
			WithDetail("available_limit", c.AvailableLimit.StringFixed(2))
	}
	if next.GreaterThan(*c.Limit) {
		return c.overflow(amount.Neg())
	}
	c.AvailableLimit = &next
	c.IncrementVersion()
	return nil
}

// Release returns amount to the available limit
func (c *Card) Release(amount decimal.Decimal) error {
	return c.Hold(amount.Neg())
}

// Adjust applies a signed change in exposure: positive holds, negative releases
func (c *Card) Adjust(exposureDelta decimal.Decimal) error {
	return c.Hold(exposureDelta)
}

func (c *Card) overflow(amount decimal.Decimal) error {
	return shared.NewKindError(shared.KindInternal, CodeLimitOverflow,
		fmt.Sprintf("Releasing %s on card %s would exceed its limit %s", amount.StringFixed(2), c.Name, c.Limit.StringFixed(2))).
		WithDetail("card_id", c.ID.String())
}

// UpdateProfile changes the name and cycle days.
// Existing invoices keep the dates they were created with.
func (c *Card) UpdateProfile(name string, closingDay, dueDay int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewInvalidInputError(CodeInvalidName, "Card name cannot be empty")
	}
	cfg := CycleConfig{ClosingDay: closingDay, DueDay: dueDay}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Name = name
	c.ClosingDay = closingDay
	c.DueDay = dueDay
	c.IncrementVersion()
	return nil
}

// SetLimit changes the credit limit while keeping the current exposure held.
// exposure is the amount charged against the card and not yet paid; it is only
// consulted when the card was not tracking a limit before.
func (c *Card) SetLimit(limit *decimal.Decimal, exposure decimal.Decimal) error {
	if limit == nil {
		c.Limit = nil
		c.AvailableLimit = nil
		c.IncrementVersion()
		return nil
	}
	if limit.IsNegative() {
		return shared.NewInvalidInputError(CodeInvalidLimit, "Card limit cannot be negative")
	}
	if c.HasLimit() {
		exposure = c.Exposure()
	}
	available := limit.Sub(exposure)
	if available.IsNegative() {
		return shared.NewInvalidStateError(CodeInsufficientLimit,
			fmt.Sprintf("Limit %s is below the %s already charged on card %s", limit.StringFixed(2), exposure.StringFixed(2), c.Name)).
			WithDetail("card_id", c.ID.String())
	}
	l := *limit
	c.Limit = &l
	c.AvailableLimit = &available
	c.IncrementVersion()
	return nil
}
