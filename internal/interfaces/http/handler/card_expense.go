package handler

import (
	"time"

	ledgerapp "github.com/foodops/backoffice/internal/application/cardledger"
	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardExpenseHandler handles card expense API endpoints
type CardExpenseHandler struct {
	BaseHandler
	ledger *ledgerapp.Service
}

// NewCardExpenseHandler creates a new CardExpenseHandler
func NewCardExpenseHandler(ledger *ledgerapp.Service) *CardExpenseHandler {
	return &CardExpenseHandler{ledger: ledger}
}

// CreateExpenseRequest is the body of POST /card-expenses
// @Description A purchase on a card; installments above 1 split it across consecutive invoices
type CreateExpenseRequest struct {
	CardID        string          `json:"card_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount        decimal.Decimal `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"300.00"`
	PurchaseDate  string          `json:"purchase_date" binding:"required,datetime=2006-01-02" example:"2024-01-05"`
	Installments  int             `json:"installments" binding:"omitempty,min=1,max=48" example:"3"`
	Description   string          `json:"description" binding:"max=500" example:"Office chairs"`
	Category      string          `json:"category" binding:"max=100" example:"furniture"`
	Supplier      string          `json:"supplier" binding:"max=200"`
	AttachmentRef string          `json:"attachment_ref" binding:"max=500"`
}

// UpdateExpenseRequest is the body of PUT /card-expenses/{id}
// @Description Edits one expense row; omitted fields stay unchanged
type UpdateExpenseRequest struct {
	Amount        *decimal.Decimal `json:"amount" binding:"omitempty,gt=0" swaggertype:"string"`
	CardID        *string          `json:"card_id" binding:"omitempty,uuid"`
	InvoiceID     *string          `json:"invoice_id" binding:"omitempty,uuid"`
	Description   *string          `json:"description" binding:"omitempty,max=500"`
	Category      *string          `json:"category" binding:"omitempty,max=100"`
	Supplier      *string          `json:"supplier" binding:"omitempty,max=200"`
	AttachmentRef *string          `json:"attachment_ref" binding:"omitempty,max=500"`
}

// ExpenseListQuery holds the query parameters of GET /card-expenses
type ExpenseListQuery struct {
	PageQuery
	CardID          string `form:"card_id" binding:"omitempty,uuid"`
	InvoiceID       string `form:"invoice_id" binding:"omitempty,uuid"`
	PurchaseGroupID string `form:"purchase_group_id" binding:"omitempty,uuid"`
	Category        string `form:"category" binding:"omitempty,max=100"`
	From            string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To              string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

func (q ExpenseListQuery) toFilter() cardledger.ExpenseFilter {
	filter := cardledger.ExpenseFilter{Filter: q.PageQuery.toFilter(), Category: q.Category}
	// formats were checked by the binding tags
	filter.CardID, _ = parseOptionalUUID(q.CardID)
	filter.InvoiceID, _ = parseOptionalUUID(q.InvoiceID)
	filter.PurchaseGroupID, _ = parseOptionalUUID(q.PurchaseGroupID)
	filter.From, _ = parseDate(q.From)
	filter.To, _ = parseDate(q.To)
	return filter
}

// CreateExpense godoc
// @ID           createCardExpense
// @Summary      Record a card purchase
// @Description  Each installment lands on the OPEN invoice of the cycle its date falls into, starting from the purchase date. The amount is split evenly and the rounding remainder goes to the last installment.
// @Tags         card-expenses
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        request body CreateExpenseRequest true "Purchase"
// @Success      201 {object} dto.Response{data=[]cardledger.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-expenses [post]
func (h *CardExpenseHandler) CreateExpense(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		h.BadRequest(c, "Invalid card ID format")
		return
	}
	purchaseDate, err := time.Parse(dateLayout, req.PurchaseDate)
	if err != nil {
		h.BadRequest(c, "Invalid purchase date")
		return
	}

	rows, err := h.ledger.CreateExpense(c.Request.Context(), tenantID, ledgerapp.CreateExpenseInput{
		CardID:        cardID,
		Amount:        req.Amount,
		PurchaseDate:  purchaseDate,
		Installments:  req.Installments,
		Description:   req.Description,
		Category:      req.Category,
		Supplier:      req.Supplier,
		AttachmentRef: req.AttachmentRef,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, rows)
}

// GetExpense godoc
// @ID           getCardExpense
// @Summary      Get a card expense
// @Tags         card-expenses
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=cardledger.ExpenseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-expenses/{id} [get]
func (h *CardExpenseHandler) GetExpense(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "expense")
	if !ok {
		return
	}

	expense, err := h.ledger.GetExpense(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// ListExpenses godoc
// @ID           listCardExpenses
// @Summary      List card expenses
// @Tags         card-expenses
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        card_id query string false "Card ID" format(uuid)
// @Param        invoice_id query string false "Invoice ID" format(uuid)
// @Param        purchase_group_id query string false "Installment group" format(uuid)
// @Param        category query string false "Category"
// @Param        from query string false "Purchased on or after" format(date)
// @Param        to query string false "Purchased on or before" format(date)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]cardledger.ExpenseResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-expenses [get]
func (h *CardExpenseHandler) ListExpenses(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var query ExpenseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := query.toFilter()
	expenses, total, err := h.ledger.ListExpenses(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, expenses, total, filter.Page, filter.PageSize)
}

// UpdateExpense godoc
// @ID           updateCardExpense
// @Summary      Edit a card expense
// @Description  Amount changes adjust the invoice total and the card limit. Moving to another card or invoice requires the target invoice to be OPEN. Rows on CLOSED or PAID invoices only accept descriptive changes.
// @Tags         card-expenses
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body UpdateExpenseRequest true "Changes"
// @Success      200 {object} dto.Response{data=cardledger.ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-expenses/{id} [put]
func (h *CardExpenseHandler) UpdateExpense(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "expense")
	if !ok {
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	in := ledgerapp.UpdateExpenseInput{
		Amount:        req.Amount,
		Description:   req.Description,
		Category:      req.Category,
		Supplier:      req.Supplier,
		AttachmentRef: req.AttachmentRef,
	}
	if req.CardID != nil {
		cardID, err := uuid.Parse(*req.CardID)
		if err != nil {
			h.BadRequest(c, "Invalid card ID format")
			return
		}
		in.CardID = &cardID
	}
	if req.InvoiceID != nil {
		invoiceID, err := uuid.Parse(*req.InvoiceID)
		if err != nil {
			h.BadRequest(c, "Invalid invoice ID format")
			return
		}
		in.InvoiceID = &invoiceID
	}

	expense, err := h.ledger.UpdateExpense(c.Request.Context(), tenantID, id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// DeleteExpense godoc
// @ID           deleteCardExpense
// @Summary      Delete a card expense
// @Description  Removes one installment row and restores the invoice total and the card limit. Rows on settled invoices cannot be deleted.
// @Tags         card-expenses
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Expense ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /card-expenses/{id} [delete]
func (h *CardExpenseHandler) DeleteExpense(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "expense")
	if !ok {
		return
	}

	if err := h.ledger.DeleteExpense(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
