package cardledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxInstallments bounds how far into the future one purchase may spread
const MaxInstallments = 48

// ExpenseMetadata is the descriptive part of an expense
type ExpenseMetadata struct {
	Description   string
	Category      string
	Supplier      string
	AttachmentRef string
}

func (m ExpenseMetadata) normalized() ExpenseMetadata {
	return ExpenseMetadata{
		Description:   strings.TrimSpace(m.Description),
		Category:      strings.TrimSpace(m.Category),
		Supplier:      strings.TrimSpace(m.Supplier),
		AttachmentRef: strings.TrimSpace(m.AttachmentRef),
	}
}

// Expense is one card line item: a whole purchase or one of its installments
type Expense struct {
	shared.TenantAggregateRoot
	CardID            uuid.UUID
	InvoiceID         *uuid.UUID
	PurchaseGroupID   uuid.UUID
	Amount            decimal.Decimal
	PurchaseDate      time.Time
	Installments      int
	InstallmentNumber int
	ExpenseMetadata
}

// InstallmentOffset is the number of cycles between this installment and the first
func (e *Expense) InstallmentOffset() int {
	return e.InstallmentNumber - 1
}

// IsPending reports whether the expense is not attached to any invoice
func (e *Expense) IsPending() bool {
	return e.InvoiceID == nil
}

// AttachedTo reports whether the expense is attached to invoiceID
func (e *Expense) AttachedTo(invoiceID uuid.UUID) bool {
	return e.InvoiceID != nil && *e.InvoiceID == invoiceID
}

// Purchase is a request to charge a card, possibly in installments
type Purchase struct {
	TenantID     uuid.UUID
	CardID       uuid.UUID
	Amount       decimal.Decimal
	PurchaseDate time.Time
	Installments int
	Metadata     ExpenseMetadata
}

// Validate checks the purchase before anything is written
func (p Purchase) Validate() error {
	if p.CardID == uuid.Nil {
		return shared.NewInvalidInputError("INVALID_CARD", "Card ID cannot be empty")
	}
	if err := ValidateAmount(p.Amount); err != nil {
		return err
	}
	if p.PurchaseDate.IsZero() {
		return shared.NewInvalidInputError(CodeInvalidDate, "Purchase date is required")
	}
	if p.Installments < 1 || p.Installments > MaxInstallments {
		return shared.NewInvalidInputError(CodeInvalidInstallments,
			fmt.Sprintf("Installments must be between 1 and %d, got %d", MaxInstallments, p.Installments)).
			WithDetail("installments", p.Installments)
	}
	return nil
}

// ValidateAmount rejects zero, negative and sub-cent amounts
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !valueobject.NewMoney(amount).IsPositive() {
		return InvalidAmount(amount)
	}
	return nil
}

// InstallmentPlan is one row a purchase fans out into
type InstallmentPlan struct {
	Number int
	Amount decimal.Decimal
	Cycle  BillingCycle
}

// PlanInstallments splits a purchase into its rows and resolves each row's cycle.
// Amounts are split in cents with the remainder on the last installment.
func PlanInstallments(p Purchase, cfg CycleConfig) ([]InstallmentPlan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	parts, err := valueobject.NewMoney(p.Amount).Split(p.Installments)
	if err != nil {
		return nil, shared.NewInvalidInputError(CodeInvalidInstallments, err.Error())
	}

	plans := make([]InstallmentPlan, 0, p.Installments)
	for i, part := range parts {
		cycle, err := ResolveCycle(cfg, p.PurchaseDate, i)
		if err != nil {
			return nil, err
		}
		plans = append(plans, InstallmentPlan{Number: i + 1, Amount: part.Amount(), Cycle: cycle})
	}
	return plans, nil
}

// NewInstallmentExpense builds the row for one planned installment
func NewInstallmentExpense(p Purchase, groupID uuid.UUID, plan InstallmentPlan, invoiceID uuid.UUID) *Expense {
	e := &Expense{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.TenantID),
		CardID:              p.CardID,
		InvoiceID:           &invoiceID,
		PurchaseGroupID:     groupID,
		Amount:              plan.Amount,
		PurchaseDate:        CivilDate(p.PurchaseDate),
		Installments:        p.Installments,
		InstallmentNumber:   plan.Number,
		ExpenseMetadata:     p.Metadata.normalized(),
	}
	e.AddDomainEvent(NewExpenseChargedEvent(e))
	return e
}

// ExpenseChange is a requested edit; nil fields are left unchanged
type ExpenseChange struct {
	Amount    *decimal.Decimal
	CardID    *uuid.UUID
	InvoiceID *uuid.UUID
	Metadata  *ExpenseMetadata
}

// Validate checks the requested field values
func (c ExpenseChange) Validate() error {
	if c.Amount != nil {
		if err := ValidateAmount(*c.Amount); err != nil {
			return err
		}
	}
	if c.CardID != nil && *c.CardID == uuid.Nil {
		return shared.NewInvalidInputError("INVALID_CARD", "Card ID cannot be empty")
	}
	if c.InvoiceID != nil && *c.InvoiceID == uuid.Nil {
		return shared.NewInvalidInputError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	return nil
}

// Apply writes the new state. Balance compensation is the caller's job and must
// be computed from a snapshot taken before Apply.
func (e *Expense) Apply(amount decimal.Decimal, cardID, invoiceID uuid.UUID, meta *ExpenseMetadata) {
	before := *e
	e.Amount = valueobject.NewMoney(amount).Amount()
	e.CardID = cardID
	e.InvoiceID = &invoiceID
	if meta != nil {
		e.ExpenseMetadata = meta.normalized()
	}
	e.IncrementVersion()
	e.AddDomainEvent(NewExpenseUpdatedEvent(&before, e))
}

// MarkDeleted records the deletion event; the row itself is removed by the repository
func (e *Expense) MarkDeleted() {
	e.AddDomainEvent(NewExpenseDeletedEvent(e))
}
