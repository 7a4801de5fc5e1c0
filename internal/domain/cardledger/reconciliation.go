package cardledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceDrift is a stored invoice total that disagrees with its expense rows
type InvoiceDrift struct {
	InvoiceID   uuid.UUID
	Status      InvoiceStatus
	StoredTotal decimal.Decimal
	ExpenseSum  decimal.Decimal
}

// ReconciliationReport compares the eagerly maintained balances of a card
// with the values recomputed from its expense rows
type ReconciliationReport struct {
	CardID           uuid.UUID
	InvoicesChecked  int
	InvoiceDrifts    []InvoiceDrift
	LimitTracked     bool
	StoredExposure   decimal.Decimal
	ExpectedExposure decimal.Decimal
}

// Balanced reports whether both the invoice totals and the limit agree
func (r ReconciliationReport) Balanced() bool {
	if len(r.InvoiceDrifts) > 0 {
		return false
	}
	return !r.LimitTracked || r.StoredExposure.Equal(r.ExpectedExposure)
}

// Reconcile checks the card's invariants:
// every OPEN or CLOSED invoice total equals the sum of its expenses, and
// limit - availableLimit equals the expenses not yet on a PAID invoice.
func Reconcile(card *Card, invoices []Invoice, sums map[uuid.UUID]decimal.Decimal, outstanding decimal.Decimal) ReconciliationReport {
	report := ReconciliationReport{
		CardID:           card.ID,
		LimitTracked:     card.HasLimit(),
		StoredExposure:   card.Exposure(),
		ExpectedExposure: outstanding,
	}
	for _, inv := range invoices {
		if inv.Status == InvoiceStatusPaid {
			continue
		}
		report.InvoicesChecked++
		sum := sums[inv.ID]
		if !inv.TotalAmount.Equal(sum) {
			report.InvoiceDrifts = append(report.InvoiceDrifts, InvoiceDrift{
				InvoiceID:   inv.ID,
				Status:      inv.Status,
				StoredTotal: inv.TotalAmount,
				ExpenseSum:  sum,
			})
		}
	}
	return report
}
