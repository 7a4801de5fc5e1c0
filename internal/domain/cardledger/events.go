package cardledger

import (
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeCardCreated     = "CardCreated"
	EventTypeExpenseCharged  = "CardExpenseCharged"
	EventTypeExpenseUpdated  = "CardExpenseUpdated"
	EventTypeExpenseDeleted  = "CardExpenseDeleted"
	EventTypeInvoiceOpened   = "CardInvoiceOpened"
	EventTypeInvoiceClosed   = "CardInvoiceClosed"
	EventTypeInvoicePaid     = "CardInvoicePaid"
	EventTypeInvoiceUnpaid   = "CardInvoiceUnpaid"
	EventTypeInvoiceReopened = "CardInvoiceReopened"
	EventTypeInvoiceDeleted  = "CardInvoiceDeleted"
)

const (
	aggregateCard    = "Card"
	aggregateInvoice = "CardInvoice"
	aggregateExpense = "CardExpense"
)

// CardCreatedEvent is raised when a card profile is registered
type CardCreatedEvent struct {
	shared.BaseDomainEvent
	CardID     uuid.UUID        `json:"card_id"`
	Name       string           `json:"name"`
	Limit      *decimal.Decimal `json:"limit,omitempty"`
	ClosingDay int              `json:"closing_day"`
	DueDay     int              `json:"due_day"`
}

func NewCardCreatedEvent(c *Card) *CardCreatedEvent {
	return &CardCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCardCreated, aggregateCard, c.ID, c.TenantID),
		CardID:          c.ID,
		Name:            c.Name,
		Limit:           c.Limit,
		ClosingDay:      c.ClosingDay,
		DueDay:          c.DueDay,
	}
}

// ExpenseChargedEvent is raised for every row created from a purchase
type ExpenseChargedEvent struct {
	shared.BaseDomainEvent
	ExpenseID         uuid.UUID       `json:"expense_id"`
	CardID            uuid.UUID       `json:"card_id"`
	InvoiceID         *uuid.UUID      `json:"invoice_id"`
	PurchaseGroupID   uuid.UUID       `json:"purchase_group_id"`
	Amount            decimal.Decimal `json:"amount"`
	InstallmentNumber int             `json:"installment_number"`
	Installments      int             `json:"installments"`
}

func NewExpenseChargedEvent(e *Expense) *ExpenseChargedEvent {
	return &ExpenseChargedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeExpenseCharged, aggregateExpense, e.ID, e.TenantID),
		ExpenseID:         e.ID,
		CardID:            e.CardID,
		InvoiceID:         e.InvoiceID,
		PurchaseGroupID:   e.PurchaseGroupID,
		Amount:            e.Amount,
		InstallmentNumber: e.InstallmentNumber,
		Installments:      e.Installments,
	}
}

// ExpenseUpdatedEvent carries both sides of an edit
type ExpenseUpdatedEvent struct {
	shared.BaseDomainEvent
	ExpenseID    uuid.UUID       `json:"expense_id"`
	OldAmount    decimal.Decimal `json:"old_amount"`
	NewAmount    decimal.Decimal `json:"new_amount"`
	OldCardID    uuid.UUID       `json:"old_card_id"`
	NewCardID    uuid.UUID       `json:"new_card_id"`
	OldInvoiceID *uuid.UUID      `json:"old_invoice_id"`
	NewInvoiceID *uuid.UUID      `json:"new_invoice_id"`
}

func NewExpenseUpdatedEvent(before, after *Expense) *ExpenseUpdatedEvent {
	return &ExpenseUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseUpdated, aggregateExpense, after.ID, after.TenantID),
		ExpenseID:       after.ID,
		OldAmount:       before.Amount,
		NewAmount:       after.Amount,
		OldCardID:       before.CardID,
		NewCardID:       after.CardID,
		OldInvoiceID:    before.InvoiceID,
		NewInvoiceID:    after.InvoiceID,
	}
}

// ExpenseDeletedEvent is raised when a row is removed
type ExpenseDeletedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID       `json:"expense_id"`
	CardID    uuid.UUID       `json:"card_id"`
	InvoiceID *uuid.UUID      `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func NewExpenseDeletedEvent(e *Expense) *ExpenseDeletedEvent {
	return &ExpenseDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseDeleted, aggregateExpense, e.ID, e.TenantID),
		ExpenseID:       e.ID,
		CardID:          e.CardID,
		InvoiceID:       e.InvoiceID,
		Amount:          e.Amount,
	}
}

// InvoiceEvent is the payload shared by invoice lifecycle events
type InvoiceEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	CardID         uuid.UUID       `json:"card_id"`
	ReferenceMonth time.Time       `json:"reference_month"`
	Status         InvoiceStatus   `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// Invoice exposes the shared invoice payload of any invoice lifecycle event
func (e InvoiceEvent) Invoice() InvoiceEvent { return e }

func newInvoiceEvent(eventType string, inv *Invoice) InvoiceEvent {
	return InvoiceEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, aggregateInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		CardID:          inv.CardID,
		ReferenceMonth:  inv.ReferenceMonth,
		Status:          inv.Status,
		TotalAmount:     inv.TotalAmount,
	}
}

type InvoiceOpenedEvent struct{ InvoiceEvent }

func NewInvoiceOpenedEvent(inv *Invoice) *InvoiceOpenedEvent {
	return &InvoiceOpenedEvent{newInvoiceEvent(EventTypeInvoiceOpened, inv)}
}

type InvoiceClosedEvent struct{ InvoiceEvent }

func NewInvoiceClosedEvent(inv *Invoice) *InvoiceClosedEvent {
	return &InvoiceClosedEvent{newInvoiceEvent(EventTypeInvoiceClosed, inv)}
}

// InvoicePaidEvent records where the money came from
type InvoicePaidEvent struct {
	InvoiceEvent
	PaymentDate   time.Time  `json:"payment_date"`
	BankAccountID *uuid.UUID `json:"bank_account_id,omitempty"`
}

func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	e := &InvoicePaidEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoicePaid, inv), BankAccountID: inv.BankAccountID}
	if inv.PaymentDate != nil {
		e.PaymentDate = *inv.PaymentDate
	}
	return e
}

// InvoiceUnpaidEvent is raised before the payment fields are cleared
type InvoiceUnpaidEvent struct {
	InvoiceEvent
	BankAccountID *uuid.UUID `json:"bank_account_id,omitempty"`
}

func NewInvoiceUnpaidEvent(inv *Invoice) *InvoiceUnpaidEvent {
	return &InvoiceUnpaidEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceUnpaid, inv), BankAccountID: inv.BankAccountID}
}

type InvoiceReopenedEvent struct{ InvoiceEvent }

func NewInvoiceReopenedEvent(inv *Invoice) *InvoiceReopenedEvent {
	return &InvoiceReopenedEvent{newInvoiceEvent(EventTypeInvoiceReopened, inv)}
}

type InvoiceDeletedEvent struct {
	InvoiceEvent
	RemovedExpenses int `json:"removed_expenses"`
}

func NewInvoiceDeletedEvent(inv *Invoice, removed int) *InvoiceDeletedEvent {
	return &InvoiceDeletedEvent{InvoiceEvent: newInvoiceEvent(EventTypeInvoiceDeleted, inv), RemovedExpenses: removed}
}
