package cardledger

import (
	"context"
	"fmt"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateCard registers a card with its full limit available
func (s *Service) CreateCard(ctx context.Context, tenantID uuid.UUID, in CreateCardInput) (*CardResponse, error) {
	card, err := cardledger.NewCard(tenantID, in.Name, in.Limit, in.ClosingDay, in.DueDay)
	if err != nil {
		return nil, err
	}
	err = s.mutate(ctx, "card.create", func(ctx context.Context, sc *scope) error {
		sc.touchCard(card)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToCardResponse(card)
	return &resp, nil
}

// GetCard returns one card
func (s *Service) GetCard(ctx context.Context, tenantID, id uuid.UUID) (*CardResponse, error) {
	card, err := s.reads.Cards.FindByID(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, cardledger.CardNotFound(id)
		}
		return nil, err
	}
	resp := ToCardResponse(card)
	return &resp, nil
}

// ListCards returns a page of cards
func (s *Service) ListCards(ctx context.Context, tenantID uuid.UUID, filter cardledger.CardFilter) ([]CardResponse, int64, error) {
	cards, total, err := s.reads.Cards.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]CardResponse, len(cards))
	for i := range cards {
		out[i] = ToCardResponse(&cards[i])
	}
	return out, total, nil
}

// UpdateCard edits the profile and the limit. A new limit keeps the current
// exposure held; a card that starts tracking a limit holds whatever is still
// unpaid on it.
func (s *Service) UpdateCard(ctx context.Context, tenantID, id uuid.UUID, in UpdateCardInput) (*CardResponse, error) {
	var card *cardledger.Card
	err := s.mutate(ctx, "card.update", func(ctx context.Context, sc *scope) error {
		var err error
		if card, err = sc.card(ctx, tenantID, id); err != nil {
			return err
		}

		if in.Name != nil || in.ClosingDay != nil || in.DueDay != nil {
			name, closingDay, dueDay := card.Name, card.ClosingDay, card.DueDay
			if in.Name != nil {
				name = *in.Name
			}
			if in.ClosingDay != nil {
				closingDay = *in.ClosingDay
			}
			if in.DueDay != nil {
				dueDay = *in.DueDay
			}
			if err := card.UpdateProfile(name, closingDay, dueDay); err != nil {
				return err
			}
		}

		switch {
		case in.RemoveLimit:
			if err := card.SetLimit(nil, decimal.Zero); err != nil {
				return err
			}
		case in.Limit != nil:
			exposure := decimal.Zero
			if !card.HasLimit() {
				if exposure, err = sc.repos.Expenses.SumOutstanding(ctx, tenantID, id); err != nil {
					return err
				}
			}
			if err := card.SetLimit(in.Limit, exposure); err != nil {
				return err
			}
		}
		sc.touchCard(card)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToCardResponse(card)
	return &resp, nil
}

// DeleteCard removes a card that has never had an invoice
func (s *Service) DeleteCard(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.mutate(ctx, "card.delete", func(ctx context.Context, sc *scope) error {
		if _, err := sc.card(ctx, tenantID, id); err != nil {
			return err
		}
		count, err := sc.repos.Invoices.CountByCard(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewInvalidStateError(cardledger.CodeCardHasInvoices,
				fmt.Sprintf("Card %s has %d invoices and cannot be deleted", id, count)).
				WithDetail("card_id", id.String()).
				WithDetail("invoice_count", count)
		}
		delete(sc.cards, id)
		return sc.repos.Cards.Delete(ctx, tenantID, id)
	})
}

// Reconcile recomputes the card's invoice totals and exposure from its expense
// rows and reports every disagreement with the stored balances
func (s *Service) Reconcile(ctx context.Context, tenantID, cardID uuid.UUID) (*ReconciliationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "card", "reconcile",
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCardID, cardID.String(),
	)
	defer span.End()

	var report cardledger.ReconciliationReport
	err := s.uow.Do(ctx, func(ctx context.Context, repos cardledger.Repositories) error {
		card, err := repos.Cards.FindByIDForUpdate(ctx, tenantID, cardID)
		if err != nil {
			if shared.IsNotFound(err) {
				return cardledger.CardNotFound(cardID)
			}
			return err
		}
		invoices, err := allInvoices(ctx, repos.Invoices, tenantID, cardID)
		if err != nil {
			return err
		}
		sums, err := repos.Expenses.SumByInvoice(ctx, tenantID, cardID)
		if err != nil {
			return err
		}
		outstanding, err := repos.Expenses.SumOutstanding(ctx, tenantID, cardID)
		if err != nil {
			return err
		}
		report = cardledger.Reconcile(card, invoices, sums, outstanding)
		return nil
	})
	telemetry.RecordError(span, err)
	if err != nil {
		return nil, err
	}

	if !report.Balanced() {
		s.log(ctx).Warn("Card ledger out of balance",
			zap.String("card_id", cardID.String()),
			zap.Int("invoice_drifts", len(report.InvoiceDrifts)),
			zap.String("stored_exposure", report.StoredExposure.StringFixed(2)),
			zap.String("expected_exposure", report.ExpectedExposure.StringFixed(2)),
		)
	}
	resp := toReconciliationResponse(report)
	return &resp, nil
}

// allInvoices pages through every invoice of a card
func allInvoices(ctx context.Context, repo cardledger.InvoiceRepository, tenantID, cardID uuid.UUID) ([]cardledger.Invoice, error) {
	filter := cardledger.InvoiceFilter{
		Filter: shared.Filter{Page: 1, PageSize: 100, OrderBy: "reference_month", OrderDir: "asc"},
		CardID: &cardID,
	}
	var out []cardledger.Invoice
	for {
		page, total, err := repo.FindAll(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) == 0 || int64(len(out)) >= total {
			return out, nil
		}
		filter.Page++
	}
}
