package cardledger

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type openKey struct {
	cardID uuid.UUID
	month  time.Time
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// scope is the state of one unit of work. Cards and invoices are row-locked
// and loaded once, so every step of an operation mutates the same copy;
// flush writes the touched ones back in id order.
type scope struct {
	repos cardledger.Repositories
	now   func() time.Time

	cards         map[uuid.UUID]*cardledger.Card
	invoices      map[uuid.UUID]*cardledger.Invoice
	open          map[openKey]*cardledger.Invoice
	dirtyCards    map[uuid.UUID]bool
	dirtyInvoices map[uuid.UUID]bool

	events []shared.DomainEvent
}

func newScope(repos cardledger.Repositories, now func() time.Time) *scope {
	return &scope{
		repos:         repos,
		now:           now,
		cards:         make(map[uuid.UUID]*cardledger.Card),
		invoices:      make(map[uuid.UUID]*cardledger.Invoice),
		open:          make(map[openKey]*cardledger.Invoice),
		dirtyCards:    make(map[uuid.UUID]bool),
		dirtyInvoices: make(map[uuid.UUID]bool),
	}
}

func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return slices.Compact(out)
}

// card returns the row-locked card
func (sc *scope) card(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Card, error) {
	if c, ok := sc.cards[id]; ok {
		return c, nil
	}
	c, err := sc.repos.Cards.FindByIDForUpdate(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, cardledger.CardNotFound(id)
		}
		return nil, err
	}
	sc.cards[id] = c
	return c, nil
}

// lockCards locks every card in id order
func (sc *scope) lockCards(ctx context.Context, tenantID uuid.UUID, ids ...uuid.UUID) error {
	for _, id := range sortedIDs(ids) {
		if _, err := sc.card(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

// invoice returns the row-locked invoice
func (sc *scope) invoice(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Invoice, error) {
	if inv, ok := sc.invoices[id]; ok {
		return inv, nil
	}
	inv, err := sc.repos.Invoices.FindByIDForUpdate(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, cardledger.InvoiceNotFound(id)
		}
		return nil, err
	}
	sc.invoices[id] = inv
	return inv, nil
}

// lockInvoices locks every invoice in id order
func (sc *scope) lockInvoices(ctx context.Context, tenantID uuid.UUID, ids ...uuid.UUID) error {
	for _, id := range sortedIDs(ids) {
		if _, err := sc.invoice(ctx, tenantID, id); err != nil {
			return err
		}
	}
	return nil
}

// expenseLockAttempts bounds how often lockExpense follows a row that keeps moving
const expenseLockAttempts = 3

// lockExpense locks the expense's card and invoice, then the expense row
// itself, keeping the cards-before-invoices lock order. The row is read again
// under its lock and compared with the unlocked read: when another unit of work
// moved it in between, the new card and invoice are locked and the check repeats.
func (sc *scope) lockExpense(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Expense, error) {
	peek, err := sc.repos.Expenses.FindByID(ctx, tenantID, id)
	for range expenseLockAttempts {
		if err != nil {
			if shared.IsNotFound(err) {
				return nil, cardledger.ExpenseNotFound(id)
			}
			return nil, err
		}
		if _, err := sc.card(ctx, tenantID, peek.CardID); err != nil {
			return nil, err
		}
		if peek.InvoiceID != nil {
			if _, err := sc.invoice(ctx, tenantID, *peek.InvoiceID); err != nil {
				return nil, err
			}
		}

		locked, lockErr := sc.repos.Expenses.FindByIDForUpdate(ctx, tenantID, id)
		if lockErr == nil && locked.CardID == peek.CardID && sameInvoice(locked.InvoiceID, peek.InvoiceID) {
			return locked, nil
		}
		peek, err = locked, lockErr
	}
	return nil, cardledger.ExpenseMoving(id)
}

func sameInvoice(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// invoiceWithCard locks the invoice's card and then the invoice itself,
// keeping the cards-before-invoices lock order
func (sc *scope) invoiceWithCard(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Invoice, *cardledger.Card, error) {
	peek, ok := sc.invoices[id]
	if !ok {
		var err error
		if peek, err = sc.repos.Invoices.FindByID(ctx, tenantID, id); err != nil {
			if shared.IsNotFound(err) {
				return nil, nil, cardledger.InvoiceNotFound(id)
			}
			return nil, nil, err
		}
	}
	card, err := sc.card(ctx, tenantID, peek.CardID)
	if err != nil {
		return nil, nil, err
	}
	inv, err := sc.invoice(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	return inv, card, nil
}

// openInvoice returns the card's OPEN invoice for the cycle, creating an empty
// one when there is none. The card must already be locked by this scope.
func (sc *scope) openInvoice(ctx context.Context, card *cardledger.Card, cycle cardledger.BillingCycle) (*cardledger.Invoice, error) {
	key := openKey{cardID: card.ID, month: cycle.ReferenceMonth}
	if inv, ok := sc.open[key]; ok && inv.Status == cardledger.InvoiceStatusOpen {
		return inv, nil
	}

	inv, err := sc.repos.Invoices.FindOpenForUpdate(ctx, card.TenantID, card.ID, cycle.ReferenceMonth)
	switch {
	case err == nil:
		if cached, ok := sc.invoices[inv.ID]; ok {
			inv = cached
		}
	case shared.IsNotFound(err):
		inv = cardledger.NewInvoice(card.TenantID, card.ID, cycle)
		if err := sc.repos.Invoices.Save(ctx, inv); err != nil {
			return nil, err
		}
		sc.record(inv)
	default:
		return nil, err
	}
	sc.invoices[inv.ID] = inv
	sc.open[key] = inv
	return inv, nil
}

// The four functions below are the only places the ledger moves a balance.

// holdLimit takes amount off the card's available limit
func (sc *scope) holdLimit(card *cardledger.Card, amount decimal.Decimal) error {
	if err := card.Hold(amount); err != nil {
		return err
	}
	sc.dirtyCards[card.ID] = true
	return nil
}

// releaseLimit gives amount back to the card's available limit
func (sc *scope) releaseLimit(card *cardledger.Card, amount decimal.Decimal) error {
	if err := card.Release(amount); err != nil {
		return err
	}
	sc.dirtyCards[card.ID] = true
	return nil
}

// attachAmount adds amount to an OPEN invoice total; a negative amount shrinks it
func (sc *scope) attachAmount(inv *cardledger.Invoice, amount decimal.Decimal) error {
	if err := inv.AddCharge(amount); err != nil {
		return err
	}
	sc.dirtyInvoices[inv.ID] = true
	return nil
}

// detachAmount removes amount from an OPEN invoice total
func (sc *scope) detachAmount(inv *cardledger.Invoice, amount decimal.Decimal) error {
	return sc.attachAmount(inv, amount.Neg())
}

func (sc *scope) touchCard(card *cardledger.Card) {
	sc.cards[card.ID] = card
	sc.dirtyCards[card.ID] = true
}

func (sc *scope) touchInvoice(inv *cardledger.Invoice) {
	sc.invoices[inv.ID] = inv
	sc.dirtyInvoices[inv.ID] = true
}

// forgetInvoice drops a deleted invoice so flush does not write it back
func (sc *scope) forgetInvoice(inv *cardledger.Invoice) {
	sc.record(inv)
	delete(sc.invoices, inv.ID)
	delete(sc.dirtyInvoices, inv.ID)
	for key, open := range sc.open {
		if open.ID == inv.ID {
			delete(sc.open, key)
		}
	}
}

func (sc *scope) saveExpense(ctx context.Context, e *cardledger.Expense) error {
	if err := sc.repos.Expenses.Save(ctx, e); err != nil {
		return err
	}
	sc.record(e)
	return nil
}

func (sc *scope) record(src eventSource) {
	sc.events = append(sc.events, src.GetDomainEvents()...)
	src.ClearDomainEvents()
}

// flush saves every touched card and invoice, cards first
func (sc *scope) flush(ctx context.Context) error {
	for _, id := range sortedIDs(slices.Collect(maps.Keys(sc.dirtyCards))) {
		card := sc.cards[id]
		if err := sc.repos.Cards.Save(ctx, card); err != nil {
			return err
		}
		sc.record(card)
	}
	for _, id := range sortedIDs(slices.Collect(maps.Keys(sc.dirtyInvoices))) {
		inv := sc.invoices[id]
		if err := sc.repos.Invoices.Save(ctx, inv); err != nil {
			return err
		}
		sc.record(inv)
	}
	clear(sc.dirtyCards)
	clear(sc.dirtyInvoices)
	return nil
}
