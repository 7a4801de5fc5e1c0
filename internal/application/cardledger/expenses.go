package cardledger

import (
	"context"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/domain/shared/valueobject"
	"github.com/foodops/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateExpense charges a purchase to a card. It writes one row per
// installment, each on the OPEN invoice of its cycle, and holds the whole
// amount against the card limit once.
func (s *Service) CreateExpense(ctx context.Context, tenantID uuid.UUID, in CreateExpenseInput) ([]ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_expense", "create",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCardID, in.CardID.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
		telemetry.SpanAttrInstallments, in.Installments,
	)
	defer span.End()

	purchase := cardledger.Purchase{
		TenantID:     tenantID,
		CardID:       in.CardID,
		Amount:       in.Amount,
		PurchaseDate: in.PurchaseDate,
		Installments: in.Installments,
		Metadata: cardledger.ExpenseMetadata{
			Description:   in.Description,
			Category:      in.Category,
			Supplier:      in.Supplier,
			AttachmentRef: in.AttachmentRef,
		},
	}
	if purchase.Installments == 0 {
		purchase.Installments = 1
	}
	if err := purchase.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		created []cardledger.Expense
		charged decimal.Decimal
	)
	err := s.mutate(ctx, "expense.create", func(ctx context.Context, sc *scope) error {
		card, err := sc.card(ctx, tenantID, in.CardID)
		if err != nil {
			return err
		}
		plans, err := cardledger.PlanInstallments(purchase, card.CycleConfig())
		if err != nil {
			return err
		}

		charged = decimal.Zero
		for _, plan := range plans {
			charged = charged.Add(plan.Amount)
		}
		if err := sc.holdLimit(card, charged); err != nil {
			return err
		}

		groupID := uuid.New()
		created = make([]cardledger.Expense, 0, len(plans))
		for _, plan := range plans {
			inv, err := sc.openInvoice(ctx, card, plan.Cycle)
			if err != nil {
				return err
			}
			if err := sc.attachAmount(inv, plan.Amount); err != nil {
				return err
			}
			expense := cardledger.NewInstallmentExpense(purchase, groupID, plan, inv.ID)
			if err := sc.saveExpense(ctx, expense); err != nil {
				return err
			}
			created = append(created, *expense)
		}
		return nil
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordExpenseCharged(ctx, tenantID, len(created), charged)
	return ToExpenseResponses(created), nil
}

// UpdateExpense edits one row. The balance changes are derived from the row as
// it was before the edit, on three independent axes: amount, invoice and card.
// Moving a row to another card re-resolves its invoice on that card from the
// purchase date and installment number unless a target invoice is given.
func (s *Service) UpdateExpense(ctx context.Context, tenantID, id uuid.UUID, in UpdateExpenseInput) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_expense", "update",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrExpenseID, id.String(),
	)
	defer span.End()

	change := cardledger.ExpenseChange{Amount: in.Amount, CardID: in.CardID, InvoiceID: in.InvoiceID}
	if err := change.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var expense *cardledger.Expense
	err := s.mutate(ctx, "expense.update", func(ctx context.Context, sc *scope) error {
		var err error
		if expense, err = sc.lockExpense(ctx, tenantID, id); err != nil {
			return err
		}

		// deltas use the stored precision, so the totals move by what the row will hold
		oldAmount, newAmount := expense.Amount, expense.Amount
		if in.Amount != nil {
			newAmount = valueobject.NewMoney(*in.Amount).Amount()
		}
		oldCardID, newCardID := expense.CardID, expense.CardID
		if in.CardID != nil {
			newCardID = *in.CardID
		}

		if err := sc.lockCards(ctx, tenantID, oldCardID, newCardID); err != nil {
			return err
		}
		oldCard, newCard := sc.cards[oldCardID], sc.cards[newCardID]

		lockIDs := make([]uuid.UUID, 0, 2)
		if expense.InvoiceID != nil {
			lockIDs = append(lockIDs, *expense.InvoiceID)
		}
		if in.InvoiceID != nil {
			lockIDs = append(lockIDs, *in.InvoiceID)
		}
		if err := sc.lockInvoices(ctx, tenantID, lockIDs...); err != nil {
			return err
		}

		var source *cardledger.Invoice
		if expense.InvoiceID != nil {
			source = sc.invoices[*expense.InvoiceID]
			if !source.Status.AcceptsCharges() {
				return cardledger.CannotModifySettledInvoice(source)
			}
		}

		target, err := targetInvoice(ctx, sc, expense, source, newCard, in.InvoiceID)
		if err != nil {
			return err
		}

		// card axis
		if oldCard.ID == newCard.ID {
			if err := sc.holdLimit(newCard, newAmount.Sub(oldAmount)); err != nil {
				return err
			}
		} else {
			if err := sc.releaseLimit(oldCard, oldAmount); err != nil {
				return err
			}
			if err := sc.holdLimit(newCard, newAmount); err != nil {
				return err
			}
		}

		// invoice axis
		if source != nil && source.ID == target.ID {
			if err := sc.attachAmount(target, newAmount.Sub(oldAmount)); err != nil {
				return err
			}
		} else {
			if source != nil {
				if err := sc.detachAmount(source, oldAmount); err != nil {
					return err
				}
			}
			if err := sc.attachAmount(target, newAmount); err != nil {
				return err
			}
		}

		expense.Apply(newAmount, newCard.ID, target.ID, in.metadata(expense.ExpenseMetadata))
		return sc.saveExpense(ctx, expense)
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// targetInvoice picks the OPEN invoice an edited row ends up on
func targetInvoice(
	ctx context.Context,
	sc *scope,
	expense *cardledger.Expense,
	source *cardledger.Invoice,
	card *cardledger.Card,
	explicit *uuid.UUID,
) (*cardledger.Invoice, error) {
	var target *cardledger.Invoice
	switch {
	case explicit != nil:
		target = sc.invoices[*explicit]
		if target.CardID != card.ID {
			return nil, shared.NewInvalidInputError(cardledger.CodeInvoiceCardMismatch,
				"Target invoice belongs to a different card").
				WithDetail("invoice_id", target.ID.String()).
				WithDetail("card_id", card.ID.String())
		}
	case source != nil && source.CardID == card.ID:
		return source, nil
	default:
		cycle, err := cardledger.ResolveCycle(card.CycleConfig(), expense.PurchaseDate, expense.InstallmentOffset())
		if err != nil {
			return nil, err
		}
		if target, err = sc.openInvoice(ctx, card, cycle); err != nil {
			return nil, err
		}
	}
	if !target.Status.AcceptsCharges() {
		return nil, cardledger.CannotModifySettledInvoice(target)
	}
	return target, nil
}

// DeleteExpense removes a row from its OPEN invoice and gives its amount back
// to the card limit
func (s *Service) DeleteExpense(ctx context.Context, tenantID, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "card_expense", "delete",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrExpenseID, id.String(),
	)
	defer span.End()

	err := s.mutate(ctx, "expense.delete", func(ctx context.Context, sc *scope) error {
		expense, err := sc.lockExpense(ctx, tenantID, id)
		if err != nil {
			return err
		}
		card, err := sc.card(ctx, tenantID, expense.CardID)
		if err != nil {
			return err
		}
		if expense.InvoiceID != nil {
			inv, err := sc.invoice(ctx, tenantID, *expense.InvoiceID)
			if err != nil {
				return err
			}
			if !inv.Status.AcceptsCharges() {
				return cardledger.CannotModifySettledInvoice(inv)
			}
			if err := sc.detachAmount(inv, expense.Amount); err != nil {
				return err
			}
		}
		if err := sc.releaseLimit(card, expense.Amount); err != nil {
			return err
		}
		if err := sc.repos.Expenses.Delete(ctx, tenantID, id); err != nil {
			return err
		}
		expense.MarkDeleted()
		sc.record(expense)
		return nil
	})
	telemetry.RecordError(span, err)
	return err
}

// GetExpense returns one expense row
func (s *Service) GetExpense(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseResponse, error) {
	expense, err := findExpense(ctx, s.reads.Expenses, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// ListExpenses returns a page of expense rows
func (s *Service) ListExpenses(ctx context.Context, tenantID uuid.UUID, filter cardledger.ExpenseFilter) ([]ExpenseResponse, int64, error) {
	expenses, total, err := s.reads.Expenses.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToExpenseResponses(expenses), total, nil
}

func findExpense(ctx context.Context, repo cardledger.ExpenseRepository, tenantID, id uuid.UUID) (*cardledger.Expense, error) {
	expense, err := repo.FindByID(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, cardledger.ExpenseNotFound(id)
		}
		return nil, err
	}
	return expense, nil
}
