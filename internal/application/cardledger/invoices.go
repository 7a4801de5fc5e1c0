package cardledger

import (
	"context"
	"fmt"
	"time"

	financeapp "github.com/foodops/backoffice/internal/application/finance"
	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetOrCreateOpenInvoice returns the card's OPEN invoice for referenceMonth,
// creating an empty one when there is none
func (s *Service) GetOrCreateOpenInvoice(ctx context.Context, tenantID, cardID uuid.UUID, referenceMonth time.Time) (*InvoiceResponse, error) {
	var inv *cardledger.Invoice
	err := s.mutate(ctx, "invoice.get_or_create", func(ctx context.Context, sc *scope) error {
		card, err := sc.card(ctx, tenantID, cardID)
		if err != nil {
			return err
		}
		cycle, err := cardledger.CycleForMonth(card.CycleConfig(), referenceMonth)
		if err != nil {
			return err
		}
		inv, err = sc.openInvoice(ctx, card, cycle)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// CloseInvoice freezes an OPEN invoice and, when configured, opens a payable
// for its total
func (s *Service) CloseInvoice(ctx context.Context, tenantID, id uuid.UUID, in CloseInvoiceInput) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_invoice", "close",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)
	defer span.End()

	createPayable := s.createPayableOnClose
	if in.CreatePayable != nil {
		createPayable = *in.CreatePayable
	}

	var inv *cardledger.Invoice
	err := s.mutate(ctx, "invoice.close", func(ctx context.Context, sc *scope) error {
		var (
			card *cardledger.Card
			err  error
		)
		if inv, card, err = sc.invoiceWithCard(ctx, tenantID, id); err != nil {
			return err
		}
		if err := inv.Close(s.now()); err != nil {
			return err
		}
		sc.touchInvoice(inv)
		if !createPayable {
			return nil
		}

		dueDate := inv.DueDate.AddDate(0, 0, s.payableDueDays)
		if in.PayableDueDate != nil {
			dueDate = cardledger.CivilDate(*in.PayableDueDate)
		}
		payable, err := financeapp.NewPayableLedger(sc.repos.Payables).Create(ctx, tenantID, financeapp.PayableInput{
			Amount:      inv.TotalAmount,
			DueDate:     dueDate,
			Description: invoiceDescription(card, inv),
			SourceType:  finance.PayableSourceTypeCardInvoice,
			SourceID:    &inv.ID,
		})
		if err != nil {
			return err
		}
		inv.AttachPayable(payable.ID)
		return nil
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceOperation(ctx, tenantID, string(cardledger.ActionClose), decimal.Zero)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// PayInvoice settles a CLOSED invoice for its whole total. In one unit of work
// it marks the invoice PAID, debits the bank account when one is given, marks
// the linked payable paid and gives the total back to the card limit.
func (s *Service) PayInvoice(ctx context.Context, tenantID, id uuid.UUID, in PayInvoiceInput) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_invoice", "pay",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)
	defer span.End()
	if in.BankAccountID != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrBankAccountID, in.BankAccountID.String())
	}

	paymentDate := s.civilDay(in.PaymentDate)
	var inv *cardledger.Invoice
	err := s.mutate(ctx, "invoice.pay", func(ctx context.Context, sc *scope) error {
		var (
			card *cardledger.Card
			err  error
		)
		if inv, card, err = sc.invoiceWithCard(ctx, tenantID, id); err != nil {
			return err
		}
		if err := inv.Pay(paymentDate, in.BankAccountID, nil); err != nil {
			return err
		}
		sc.touchInvoice(inv)

		if in.BankAccountID != nil {
			tx, err := financeapp.NewBankLedger(sc.repos.BankAccounts, sc.repos.BankTransactions).
				Debit(ctx, tenantID, *in.BankAccountID, inv.TotalAmount, invoiceDescription(card, inv), &inv.ID, paymentDate)
			if err != nil {
				return err
			}
			inv.BankTransactionID = &tx.ID
		}
		if inv.PayableID != nil {
			if err := financeapp.NewPayableLedger(sc.repos.Payables).
				MarkPaid(ctx, tenantID, *inv.PayableID, paymentDate, in.BankAccountID); err != nil {
				return err
			}
		}
		return sc.releaseLimit(card, inv.TotalAmount)
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceOperation(ctx, tenantID, string(cardledger.ActionPay), inv.TotalAmount)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// UnpayInvoice reverses PayInvoice step by step in the opposite order: the
// total is held against the card again, the payable goes back to pending, the
// bank debit is reversed and the invoice returns to CLOSED.
func (s *Service) UnpayInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_invoice", "unpay",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)
	defer span.End()

	var (
		inv      *cardledger.Invoice
		reversed decimal.Decimal
	)
	err := s.mutate(ctx, "invoice.unpay", func(ctx context.Context, sc *scope) error {
		var (
			card *cardledger.Card
			err  error
		)
		if inv, card, err = sc.invoiceWithCard(ctx, tenantID, id); err != nil {
			return err
		}
		if err := ensureTransition(inv, cardledger.ActionUnpay); err != nil {
			return err
		}

		reversed = inv.TotalAmount
		if inv.PaidAmount != nil {
			reversed = *inv.PaidAmount
		}
		if err := sc.holdLimit(card, reversed); err != nil {
			return err
		}
		if inv.PayableID != nil {
			if err := financeapp.NewPayableLedger(sc.repos.Payables).RevertPayment(ctx, tenantID, *inv.PayableID); err != nil {
				return err
			}
		}
		if inv.BankTransactionID != nil {
			if _, err := financeapp.NewBankLedger(sc.repos.BankAccounts, sc.repos.BankTransactions).
				ReverseTransaction(ctx, tenantID, *inv.BankTransactionID); err != nil {
				return err
			}
		}
		if err := inv.Unpay(); err != nil {
			return err
		}
		sc.touchInvoice(inv)
		return nil
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceOperation(ctx, tenantID, string(cardledger.ActionUnpay), reversed)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ReopenInvoice puts a CLOSED invoice back to OPEN and drops its unpaid payable.
// It is refused while another OPEN invoice exists for the same card and month.
func (s *Service) ReopenInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_invoice", "reopen",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)
	defer span.End()

	var inv *cardledger.Invoice
	err := s.mutate(ctx, "invoice.reopen", func(ctx context.Context, sc *scope) error {
		var err error
		if inv, _, err = sc.invoiceWithCard(ctx, tenantID, id); err != nil {
			return err
		}
		if err := ensureTransition(inv, cardledger.ActionReopen); err != nil {
			return err
		}

		other, err := sc.repos.Invoices.FindOpenForUpdate(ctx, tenantID, inv.CardID, inv.ReferenceMonth)
		switch {
		case err == nil && other.ID != inv.ID:
			return shared.NewKindError(shared.KindConflict, cardledger.CodeOpenInvoiceExists,
				fmt.Sprintf("Card already has an OPEN invoice for %s", inv.ReferenceMonth.Format(monthLayout))).
				WithDetail("invoice_id", inv.ID.String()).
				WithDetail("open_invoice_id", other.ID.String())
		case err != nil && !shared.IsNotFound(err):
			return err
		}

		if inv.PayableID != nil {
			if err := s.dropPayable(ctx, sc, tenantID, inv); err != nil {
				return err
			}
		}
		if err := inv.Reopen(); err != nil {
			return err
		}
		sc.touchInvoice(inv)
		return nil
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceOperation(ctx, tenantID, string(cardledger.ActionReopen), decimal.Zero)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// DeleteInvoice removes an OPEN or CLOSED invoice with all its rows, drops its
// payable and gives the invoice total back to the card limit once. PAID
// invoices cannot be deleted; unpay them first.
func (s *Service) DeleteInvoice(ctx context.Context, tenantID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_invoice", "delete",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrInvoiceID, id.String(),
	)
	defer span.End()

	var released decimal.Decimal
	err := s.mutate(ctx, "invoice.delete", func(ctx context.Context, sc *scope) error {
		inv, card, err := sc.invoiceWithCard(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.EnsureDeletable(); err != nil {
			return err
		}

		removed, err := sc.repos.Expenses.DeleteByInvoice(ctx, tenantID, inv.ID)
		if err != nil {
			return err
		}
		if inv.PayableID != nil {
			if err := s.dropPayable(ctx, sc, tenantID, inv); err != nil {
				return err
			}
		}
		released = inv.TotalAmount
		if err := sc.releaseLimit(card, released); err != nil {
			return err
		}
		if err := sc.repos.Invoices.Delete(ctx, tenantID, inv.ID); err != nil {
			return err
		}
		inv.MarkDeleted(int(removed))
		sc.forgetInvoice(inv)
		return nil
	})
	telemetry.RecordError(span, err)
	if err == nil {
		s.metrics.RecordInvoiceOperation(ctx, tenantID, "delete", decimal.Zero)
	}
	return err
}

// dropPayable removes the invoice's payable. A paid payable has its payment
// and bank debit reversed first. Links to rows that are already gone are
// logged and skipped.
func (s *Service) dropPayable(ctx context.Context, sc *scope, tenantID uuid.UUID, inv *cardledger.Invoice) error {
	payables := financeapp.NewPayableLedger(sc.repos.Payables)
	payable, err := sc.repos.Payables.FindByID(ctx, tenantID, *inv.PayableID)
	if shared.IsNotFound(err) {
		s.log(ctx).Warn("Linked payable not found, skipping",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("payable_id", inv.PayableID.String()),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if payable.IsPaid() {
		if err := payables.RevertPayment(ctx, tenantID, payable.ID); err != nil {
			return err
		}
		if inv.BankTransactionID != nil {
			_, err := financeapp.NewBankLedger(sc.repos.BankAccounts, sc.repos.BankTransactions).
				ReverseTransaction(ctx, tenantID, *inv.BankTransactionID)
			if err != nil && !shared.IsNotFound(err) {
				return err
			}
			if err != nil {
				s.log(ctx).Warn("Linked bank transaction not found, skipping",
					zap.String("invoice_id", inv.ID.String()),
					zap.String("bank_transaction_id", inv.BankTransactionID.String()),
				)
			}
		}
	}

	if _, err := payables.Delete(ctx, tenantID, payable.ID); err != nil {
		if !shared.IsNotFound(err) {
			return err
		}
		s.log(ctx).Warn("Linked payable vanished before delete", zap.String("payable_id", payable.ID.String()))
	}
	return nil
}

// GetInvoice returns one invoice
func (s *Service) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.reads.Invoices.FindByID(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, cardledger.InvoiceNotFound(id)
		}
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// ListInvoices returns a page of invoices
func (s *Service) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter cardledger.InvoiceFilter) ([]InvoiceResponse, int64, error) {
	invoices, total, err := s.reads.Invoices.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out, total, nil
}

// ListInvoiceExpenses returns every row attached to an invoice
func (s *Service) ListInvoiceExpenses(ctx context.Context, tenantID, id uuid.UUID) ([]ExpenseResponse, error) {
	if _, err := s.GetInvoice(ctx, tenantID, id); err != nil {
		return nil, err
	}
	expenses, err := s.reads.Expenses.FindByInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToExpenseResponses(expenses), nil
}

// ensureTransition checks the transition table before any side effect runs
func ensureTransition(inv *cardledger.Invoice, action cardledger.InvoiceAction) error {
	if _, err := inv.Status.NextStatus(action); err != nil {
		if de, ok := err.(*shared.DomainError); ok {
			return de.WithDetail("invoice_id", inv.ID.String())
		}
		return err
	}
	return nil
}

func invoiceDescription(card *cardledger.Card, inv *cardledger.Invoice) string {
	return fmt.Sprintf("%s invoice %s", card.Name, inv.ReferenceMonth.Format(monthLayout))
}
