package cardledger

import (
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCardInput registers a card
type CreateCardInput struct {
	Name       string
	Limit      *decimal.Decimal
	ClosingDay int
	DueDay     int
}

// UpdateCardInput edits a card; nil fields are left unchanged
type UpdateCardInput struct {
	Name       *string
	ClosingDay *int
	DueDay     *int
	Limit      *decimal.Decimal
	// RemoveLimit stops tracking the limit; it wins over Limit
	RemoveLimit bool
}

// CreateExpenseInput is one purchase, possibly split into installments
type CreateExpenseInput struct {
	CardID        uuid.UUID
	Amount        decimal.Decimal
	PurchaseDate  time.Time
	Installments  int
	Description   string
	Category      string
	Supplier      string
	AttachmentRef string
}

// UpdateExpenseInput edits one expense row; nil fields are left unchanged
type UpdateExpenseInput struct {
	Amount *decimal.Decimal
	CardID *uuid.UUID
	// InvoiceID moves the row to a specific OPEN invoice of the target card
	InvoiceID     *uuid.UUID
	Description   *string
	Category      *string
	Supplier      *string
	AttachmentRef *string
}

func (in UpdateExpenseInput) metadata(current cardledger.ExpenseMetadata) *cardledger.ExpenseMetadata {
	if in.Description == nil && in.Category == nil && in.Supplier == nil && in.AttachmentRef == nil {
		return nil
	}
	meta := current
	if in.Description != nil {
		meta.Description = *in.Description
	}
	if in.Category != nil {
		meta.Category = *in.Category
	}
	if in.Supplier != nil {
		meta.Supplier = *in.Supplier
	}
	if in.AttachmentRef != nil {
		meta.AttachmentRef = *in.AttachmentRef
	}
	return &meta
}

// CloseInvoiceInput tunes the payable opened on close
type CloseInvoiceInput struct {
	// CreatePayable overrides the service default when set
	CreatePayable *bool
	// PayableDueDate overrides the invoice due date plus the configured offset
	PayableDueDate *time.Time
}

// PayInvoiceInput settles an invoice, optionally from a bank account
type PayInvoiceInput struct {
	BankAccountID *uuid.UUID
	PaymentDate   time.Time
}

// CardResponse represents a card in API responses
type CardResponse struct {
	ID             uuid.UUID        `json:"id"`
	TenantID       uuid.UUID        `json:"tenant_id"`
	Name           string           `json:"name"`
	Limit          *decimal.Decimal `json:"limit,omitempty"`
	AvailableLimit *decimal.Decimal `json:"available_limit,omitempty"`
	ClosingDay     int              `json:"closing_day"`
	DueDay         int              `json:"due_day"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Version        int              `json:"version"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	CardID            uuid.UUID        `json:"card_id"`
	ReferenceMonth    string           `json:"reference_month"`
	ClosingDate       string           `json:"closing_date"`
	DueDate           string           `json:"due_date"`
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	Status            string           `json:"status"`
	ClosedAt          *time.Time       `json:"closed_at,omitempty"`
	PaymentDate       *string          `json:"payment_date,omitempty"`
	PaidAmount        *decimal.Decimal `json:"paid_amount,omitempty"`
	BankAccountID     *uuid.UUID       `json:"bank_account_id,omitempty"`
	BankTransactionID *uuid.UUID       `json:"bank_transaction_id,omitempty"`
	PayableID         *uuid.UUID       `json:"payable_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// ExpenseResponse represents an expense row in API responses
type ExpenseResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	CardID            uuid.UUID       `json:"card_id"`
	InvoiceID         *uuid.UUID      `json:"invoice_id,omitempty"`
	PurchaseGroupID   uuid.UUID       `json:"purchase_group_id"`
	Amount            decimal.Decimal `json:"amount"`
	PurchaseDate      string          `json:"purchase_date"`
	Installments      int             `json:"installments"`
	InstallmentNumber int             `json:"installment_number"`
	Description       string          `json:"description,omitempty"`
	Category          string          `json:"category,omitempty"`
	Supplier          string          `json:"supplier,omitempty"`
	AttachmentRef     string          `json:"attachment_ref,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// InvoiceDriftResponse is one invoice whose stored total disagrees with its rows
type InvoiceDriftResponse struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	Status      string          `json:"status"`
	StoredTotal decimal.Decimal `json:"stored_total"`
	ExpenseSum  decimal.Decimal `json:"expense_sum"`
}

// ReconciliationResponse is the audit of one card's balances
type ReconciliationResponse struct {
	CardID           uuid.UUID              `json:"card_id"`
	Balanced         bool                   `json:"balanced"`
	InvoicesChecked  int                    `json:"invoices_checked"`
	InvoiceDrifts    []InvoiceDriftResponse `json:"invoice_drifts"`
	LimitTracked     bool                   `json:"limit_tracked"`
	StoredExposure   decimal.Decimal        `json:"stored_exposure"`
	ExpectedExposure decimal.Decimal        `json:"expected_exposure"`
}

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// ToCardResponse converts a domain Card to its response form
func ToCardResponse(c *cardledger.Card) CardResponse {
	return CardResponse{
		ID:             c.ID,
		TenantID:       c.TenantID,
		Name:           c.Name,
		Limit:          c.Limit,
		AvailableLimit: c.AvailableLimit,
		ClosingDay:     c.ClosingDay,
		DueDay:         c.DueDay,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Version:        c.Version,
	}
}

// ToInvoiceResponse converts a domain Invoice to its response form
func ToInvoiceResponse(inv *cardledger.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                inv.ID,
		TenantID:          inv.TenantID,
		CardID:            inv.CardID,
		ReferenceMonth:    inv.ReferenceMonth.Format(monthLayout),
		ClosingDate:       inv.ClosingDate.Format(dateLayout),
		DueDate:           inv.DueDate.Format(dateLayout),
		TotalAmount:       inv.TotalAmount,
		Status:            inv.Status.String(),
		ClosedAt:          inv.ClosedAt,
		PaidAmount:        inv.PaidAmount,
		BankAccountID:     inv.BankAccountID,
		BankTransactionID: inv.BankTransactionID,
		PayableID:         inv.PayableID,
		CreatedAt:         inv.CreatedAt,
		UpdatedAt:         inv.UpdatedAt,
		Version:           inv.Version,
	}
	if inv.PaymentDate != nil {
		paid := inv.PaymentDate.Format(dateLayout)
		resp.PaymentDate = &paid
	}
	return resp
}

// ToExpenseResponse converts a domain Expense to its response form
func ToExpenseResponse(e *cardledger.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:                e.ID,
		TenantID:          e.TenantID,
		CardID:            e.CardID,
		InvoiceID:         e.InvoiceID,
		PurchaseGroupID:   e.PurchaseGroupID,
		Amount:            e.Amount,
		PurchaseDate:      e.PurchaseDate.Format(dateLayout),
		Installments:      e.Installments,
		InstallmentNumber: e.InstallmentNumber,
		Description:       e.Description,
		Category:          e.Category,
		Supplier:          e.Supplier,
		AttachmentRef:     e.AttachmentRef,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
		Version:           e.Version,
	}
}

// ToExpenseResponses converts a list of expenses
func ToExpenseResponses(expenses []cardledger.Expense) []ExpenseResponse {
	out := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		out[i] = ToExpenseResponse(&expenses[i])
	}
	return out
}

func toReconciliationResponse(r cardledger.ReconciliationReport) ReconciliationResponse {
	resp := ReconciliationResponse{
		CardID:           r.CardID,
		Balanced:         r.Balanced(),
		InvoicesChecked:  r.InvoicesChecked,
		InvoiceDrifts:    make([]InvoiceDriftResponse, 0, len(r.InvoiceDrifts)),
		LimitTracked:     r.LimitTracked,
		StoredExposure:   r.StoredExposure,
		ExpectedExposure: r.ExpectedExposure,
	}
	for _, d := range r.InvoiceDrifts {
		resp.InvoiceDrifts = append(resp.InvoiceDrifts, InvoiceDriftResponse{
			InvoiceID:   d.InvoiceID,
			Status:      d.Status.String(),
			StoredTotal: d.StoredTotal,
			ExpenseSum:  d.ExpenseSum,
		})
	}
	return resp
}
