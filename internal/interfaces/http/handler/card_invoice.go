package handler

import (
	"context"
	"errors"
	"io"
	"time"

	ledgerapp "github.com/foodops/backoffice/internal/application/cardledger"
	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CardInvoiceHandler handles card invoice API endpoints
type CardInvoiceHandler struct {
	BaseHandler
	ledger *ledgerapp.Service
}

// NewCardInvoiceHandler creates a new CardInvoiceHandler
func NewCardInvoiceHandler(ledger *ledgerapp.Service) *CardInvoiceHandler {
	return &CardInvoiceHandler{ledger: ledger}
}

// OpenInvoiceRequest is the body of POST /card-invoices
// @Description Resolves the OPEN invoice of a card for a reference month, creating it when missing
type OpenInvoiceRequest struct {
	CardID         string `json:"card_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	ReferenceMonth string `json:"reference_month" binding:"required,datetime=2006-01" example:"2024-02"`
}

// CloseInvoiceRequest is the body of POST /card-invoices/{id}/close
// @Description Options for the payable opened when the invoice closes
type CloseInvoiceRequest struct {
	CreatePayable  *bool  `json:"create_payable"`
	PayableDueDate string `json:"payable_due_date" binding:"omitempty,datetime=2006-01-02" example:"2024-03-10"`
}

// PayInvoiceRequest is the body of POST /card-invoices/{id}/pay
// @Description Settlement of a CLOSED invoice, optionally debited from a bank account
type PayInvoiceRequest struct {
	BankAccountID string `json:"bank_account_id" binding:"omitempty,uuid"`
	PaymentDate   string `json:"payment_date" binding:"omitempty,datetime=2006-01-02" example:"2024-03-05"`
}

// InvoiceListQuery holds the query parameters of GET /card-invoices
type InvoiceListQuery struct {
	PageQuery
	CardID         string `form:"card_id" binding:"omitempty,uuid"`
	Status         string `form:"status" binding:"omitempty,oneof=OPEN CLOSED PAID"`
	ReferenceMonth string `form:"reference_month" binding:"omitempty,datetime=2006-01"`
}

func (q InvoiceListQuery) toFilter() cardledger.InvoiceFilter {
	filter := cardledger.InvoiceFilter{Filter: q.PageQuery.toFilter()}
	filter.CardID, _ = parseOptionalUUID(q.CardID)
	filter.ReferenceMonth, _ = parseMonth(q.ReferenceMonth)
	if q.Status != "" {
		status := cardledger.InvoiceStatus(q.Status)
		filter.Status = &status
	}
	return filter
}

// OpenInvoice godoc
// @ID           openCardInvoice
// @Summary      Get or create the OPEN invoice of a month
// @Description  Returns the OPEN invoice of the card for the reference month. A new one is created from the card's current closing and due days when none exists.
// @Tags         card-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        request body OpenInvoiceRequest true "Card and month"
// @Success      200 {object} dto.Response{data=cardledger.InvoiceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices [post]
func (h *CardInvoiceHandler) OpenInvoice(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req OpenInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		h.BadRequest(c, "Invalid card ID format")
		return
	}
	month, err := time.Parse(monthLayout, req.ReferenceMonth)
	if err != nil {
		h.BadRequest(c, "Invalid reference month")
		return
	}

	inv, err := h.ledger.GetOrCreateOpenInvoice(c.Request.Context(), tenantID, cardID, month)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// GetInvoice godoc
// @ID           getCardInvoice
// @Summary      Get a card invoice
// @Tags         card-invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=cardledger.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id} [get]
func (h *CardInvoiceHandler) GetInvoice(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "invoice")
	if !ok {
		return
	}

	inv, err := h.ledger.GetInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// ListInvoices godoc
// @ID           listCardInvoices
// @Summary      List card invoices
// @Tags         card-invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        card_id query string false "Card ID" format(uuid)
// @Param        status query string false "Invoice status" Enums(OPEN, CLOSED, PAID)
// @Param        reference_month query string false "Reference month (YYYY-MM)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]cardledger.InvoiceResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices [get]
func (h *CardInvoiceHandler) ListInvoices(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var query InvoiceListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := query.toFilter()
	invoices, total, err := h.ledger.ListInvoices(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, invoices, total, filter.Page, filter.PageSize)
}

// ListInvoiceExpenses godoc
// @ID           listCardInvoiceExpenses
// @Summary      List the expense rows of an invoice
// @Tags         card-invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]cardledger.ExpenseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id}/expenses [get]
func (h *CardInvoiceHandler) ListInvoiceExpenses(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "invoice")
	if !ok {
		return
	}

	expenses, err := h.ledger.ListInvoiceExpenses(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expenses)
}

// CloseInvoice godoc
// @ID           closeCardInvoice
// @Summary      Close an invoice
// @Description  OPEN to CLOSED. The invoice stops accepting charges and, unless disabled, an account payable is opened for its total.
// @Tags         card-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body CloseInvoiceRequest false "Payable options"
// @Success      200 {object} dto.Response{data=cardledger.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id}/close [post]
func (h *CardInvoiceHandler) CloseInvoice(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "invoice")
	if !ok {
		return
	}

	var req CloseInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	dueDate, err := parseDate(req.PayableDueDate)
	if err != nil {
		h.BadRequest(c, "Invalid payable due date")
		return
	}

	inv, err := h.ledger.CloseInvoice(c.Request.Context(), tenantID, id, ledgerapp.CloseInvoiceInput{
		CreatePayable:  req.CreatePayable,
		PayableDueDate: dueDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// PayInvoice godoc
// @ID           payCardInvoice
// @Summary      Pay an invoice
// @Description  CLOSED to PAID. Debits the bank account when one is given, settles the linked payable and gives the total back to the card limit. The payment date defaults to today.
// @Tags         card-invoices
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body PayInvoiceRequest false "Payment"
// @Success      200 {object} dto.Response{data=cardledger.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id}/pay [post]
func (h *CardInvoiceHandler) PayInvoice(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "invoice")
	if !ok {
		return
	}

	var req PayInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	bankAccountID, err := parseOptionalUUID(req.BankAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid bank account ID format")
		return
	}
	in := ledgerapp.PayInvoiceInput{BankAccountID: bankAccountID}
	if paymentDate, err := parseDate(req.PaymentDate); err != nil {
		h.BadRequest(c, "Invalid payment date")
		return
	} else if paymentDate != nil {
		in.PaymentDate = *paymentDate
	}

	inv, err := h.ledger.PayInvoice(c.Request.Context(), tenantID, id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// UnpayInvoice godoc
// @ID           unpayCardInvoice
// @Summary      Revert an invoice payment
// @Description  PAID to CLOSED. Reverses the bank debit, reopens the payable and holds the total against the card limit again.
// @Tags         card-invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=cardledger.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id}/unpay [post]
func (h *CardInvoiceHandler) UnpayInvoice(c *gin.Context) {
	h.transition(c, h.ledger.UnpayInvoice)
}

// ReopenInvoice godoc
// @ID           reopenCardInvoice
// @Summary      Reopen a closed invoice
// @Description  CLOSED to OPEN. Drops the pending payable. Rejected while the card has another OPEN invoice for the same cycle.
// @Tags         card-invoices
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=cardledger.InvoiceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id}/reopen [post]
func (h *CardInvoiceHandler) ReopenInvoice(c *gin.Context) {
	h.transition(c, h.ledger.ReopenInvoice)
}

// DeleteInvoice godoc
// @ID           deleteCardInvoice
// @Summary      Delete an invoice
// @Description  Deletes an OPEN or CLOSED invoice with its expense rows and returns the outstanding total to the card limit. PAID invoices must be unpaid first.
// @Tags         card-invoices
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-invoices/{id} [delete]
func (h *CardInvoiceHandler) DeleteInvoice(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "invoice")
	if !ok {
		return
	}

	if err := h.ledger.DeleteInvoice(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// transition runs a body-less lifecycle action on the invoice in the path
func (h *CardInvoiceHandler) transition(c *gin.Context, action func(ctx context.Context, tenantID, id uuid.UUID) (*ledgerapp.InvoiceResponse, error)) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "invoice")
	if !ok {
		return
	}

	inv, err := action(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// bindOptionalJSON binds a body that clients may omit entirely
func (h *CardInvoiceHandler) bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		h.ValidationError(c, err)
		return false
	}
	return true
}
