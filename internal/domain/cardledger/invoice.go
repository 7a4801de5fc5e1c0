package cardledger

import (
	"fmt"
	"time"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusOpen   InvoiceStatus = "OPEN"
	InvoiceStatusClosed InvoiceStatus = "CLOSED"
	InvoiceStatusPaid   InvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusClosed, InvoiceStatusPaid:
		return true
	}
	return false
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// AcceptsCharges reports whether expenses may be attached, edited or removed
func (s InvoiceStatus) AcceptsCharges() bool {
	return s == InvoiceStatusOpen
}

// CanDelete reports whether an invoice in this status may be deleted
func (s InvoiceStatus) CanDelete() bool {
	return s == InvoiceStatusOpen || s == InvoiceStatusClosed
}

// InvoiceAction is an operation that moves an invoice between statuses
type InvoiceAction string

const (
	ActionClose  InvoiceAction = "close"
	ActionPay    InvoiceAction = "pay"
	ActionUnpay  InvoiceAction = "unpay"
	ActionReopen InvoiceAction = "reopen"
)

type transitionKey struct {
	from   InvoiceStatus
	action InvoiceAction
}

// invoiceTransitions is the complete set of legal status changes
var invoiceTransitions = map[transitionKey]InvoiceStatus{
	{InvoiceStatusOpen, ActionClose}:    InvoiceStatusClosed,
	{InvoiceStatusClosed, ActionPay}:    InvoiceStatusPaid,
	{InvoiceStatusPaid, ActionUnpay}:    InvoiceStatusClosed,
	{InvoiceStatusClosed, ActionReopen}: InvoiceStatusOpen,
}

// rejectionCodes picks the error code for a refused transition
var rejectionCodes = map[transitionKey]string{
	{InvoiceStatusClosed, ActionClose}: CodeAlreadyClosed,
	{InvoiceStatusPaid, ActionClose}:   CodeAlreadyClosed,
	{InvoiceStatusOpen, ActionPay}:     CodeInvoiceNotClosed,
	{InvoiceStatusPaid, ActionPay}:     CodeAlreadyPaid,
	{InvoiceStatusOpen, ActionUnpay}:   CodeInvoiceNotPaid,
	{InvoiceStatusClosed, ActionUnpay}: CodeInvoiceNotPaid,
	{InvoiceStatusOpen, ActionReopen}:  CodeInvoiceNotClosed,
	{InvoiceStatusPaid, ActionReopen}:  CodeAlreadyPaid,
}

// NextStatus returns the status reached by applying action from s, or an
// INVALID_STATE domain error when the transition table has no such edge.
func (s InvoiceStatus) NextStatus(action InvoiceAction) (InvoiceStatus, error) {
	key := transitionKey{s, action}
	if to, ok := invoiceTransitions[key]; ok {
		return to, nil
	}
	code, ok := rejectionCodes[key]
	if !ok {
		code = shared.ErrInvalidState.Code
	}
	return s, shared.NewInvalidStateError(code,
		fmt.Sprintf("Cannot %s an invoice in %s status", action, s)).
		WithDetail("status", s.String()).
		WithDetail("action", string(action))
}

// Invoice is one billing cycle's aggregate of charges for a card
type Invoice struct {
	shared.TenantAggregateRoot
	CardID            uuid.UUID
	ReferenceMonth    time.Time
	ClosingDate       time.Time
	DueDate           time.Time
	TotalAmount       decimal.Decimal
	Status            InvoiceStatus
	ClosedAt          *time.Time
	PaymentDate       *time.Time
	PaidAmount        *decimal.Decimal
	BankAccountID     *uuid.UUID
	BankTransactionID *uuid.UUID
	PayableID         *uuid.UUID
}

// NewInvoice creates an empty OPEN invoice for a billing cycle
func NewInvoice(tenantID, cardID uuid.UUID, cycle BillingCycle) *Invoice {
	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CardID:              cardID,
		ReferenceMonth:      cycle.ReferenceMonth,
		ClosingDate:         cycle.ClosingDate,
		DueDate:             cycle.DueDate,
		TotalAmount:         decimal.Zero,
		Status:              InvoiceStatusOpen,
	}
	inv.AddDomainEvent(NewInvoiceOpenedEvent(inv))
	return inv
}

func (inv *Invoice) transition(action InvoiceAction) error {
	next, err := inv.Status.NextStatus(action)
	if err != nil {
		if de, ok := err.(*shared.DomainError); ok {
			return de.WithDetail("invoice_id", inv.ID.String())
		}
		return err
	}
	inv.Status = next
	inv.IncrementVersion()
	return nil
}

// AddCharge adds amount to the running total of an OPEN invoice
func (inv *Invoice) AddCharge(amount decimal.Decimal) error {
	if !inv.Status.AcceptsCharges() {
		return CannotModifySettledInvoice(inv)
	}
	next := inv.TotalAmount.Add(amount)
	if next.IsNegative() {
		return shared.NewKindError(shared.KindInternal, CodeTotalUnderflow,
			fmt.Sprintf("Invoice %s total would become %s", inv.ID, next.StringFixed(2))).
			WithDetail("invoice_id", inv.ID.String())
	}
	inv.TotalAmount = next
	inv.IncrementVersion()
	return nil
}

// RemoveCharge subtracts amount from the running total of an OPEN invoice
func (inv *Invoice) RemoveCharge(amount decimal.Decimal) error {
	return inv.AddCharge(amount.Neg())
}

// Close freezes the total
func (inv *Invoice) Close(at time.Time) error {
	if err := inv.transition(ActionClose); err != nil {
		return err
	}
	inv.ClosedAt = &at
	inv.AddDomainEvent(NewInvoiceClosedEvent(inv))
	return nil
}

// AttachPayable links the payable generated for the frozen total
func (inv *Invoice) AttachPayable(payableID uuid.UUID) {
	inv.PayableID = &payableID
}

// Pay settles a CLOSED invoice for its whole total
func (inv *Invoice) Pay(paymentDate time.Time, bankAccountID, bankTransactionID *uuid.UUID) error {
	if err := inv.transition(ActionPay); err != nil {
		return err
	}
	paid := inv.TotalAmount
	inv.PaymentDate = &paymentDate
	inv.PaidAmount = &paid
	inv.BankAccountID = bankAccountID
	inv.BankTransactionID = bankTransactionID
	inv.AddDomainEvent(NewInvoicePaidEvent(inv))
	return nil
}

// Unpay reverts a PAID invoice to CLOSED and clears the payment record
func (inv *Invoice) Unpay() error {
	if err := inv.transition(ActionUnpay); err != nil {
		return err
	}
	event := NewInvoiceUnpaidEvent(inv)
	inv.PaymentDate = nil
	inv.PaidAmount = nil
	inv.BankAccountID = nil
	inv.BankTransactionID = nil
	inv.AddDomainEvent(event)
	return nil
}

// Reopen puts a CLOSED invoice back to OPEN and drops its payable link
func (inv *Invoice) Reopen() error {
	if err := inv.transition(ActionReopen); err != nil {
		return err
	}
	inv.ClosedAt = nil
	inv.PayableID = nil
	inv.AddDomainEvent(NewInvoiceReopenedEvent(inv))
	return nil
}

// EnsureDeletable rejects deleting a PAID invoice
func (inv *Invoice) EnsureDeletable() error {
	if inv.Status.CanDelete() {
		return nil
	}
	return shared.NewInvalidStateError(CodeCannotDeletePaidInvoice,
		fmt.Sprintf("Invoice %s is paid and cannot be deleted", inv.ID)).
		WithDetail("invoice_id", inv.ID.String()).
		WithDetail("status", inv.Status.String())
}

// MarkDeleted records the deletion event; the row itself is removed by the repository
func (inv *Invoice) MarkDeleted(removedExpenses int) {
	inv.AddDomainEvent(NewInvoiceDeletedEvent(inv, removedExpenses))
}
