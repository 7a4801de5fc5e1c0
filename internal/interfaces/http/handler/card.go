package handler

import (
	ledgerapp "github.com/foodops/backoffice/internal/application/cardledger"
	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CardHandler handles credit card API endpoints
type CardHandler struct {
	BaseHandler
	ledger *ledgerapp.Service
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(ledger *ledgerapp.Service) *CardHandler {
	return &CardHandler{ledger: ledger}
}

// CreateCardRequest is the body of POST /cards
// @Description Request body for registering a credit card
type CreateCardRequest struct {
	Name       string           `json:"name" binding:"required,min=1,max=100" example:"Corporate Visa"`
	Limit      *decimal.Decimal `json:"limit" binding:"omitempty,gt=0" swaggertype:"string" example:"5000.00"`
	ClosingDay int              `json:"closing_day" binding:"required,min=1,max=31" example:"25"`
	DueDay     int              `json:"due_day" binding:"required,min=1,max=31" example:"5"`
}

// UpdateCardRequest is the body of PUT /cards/{id}
// @Description Request body for editing a credit card; omitted fields stay unchanged
type UpdateCardRequest struct {
	Name        *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Limit       *decimal.Decimal `json:"limit" binding:"omitempty,gt=0" swaggertype:"string"`
	RemoveLimit bool             `json:"remove_limit"`
	ClosingDay  *int             `json:"closing_day" binding:"omitempty,min=1,max=31"`
	DueDay      *int             `json:"due_day" binding:"omitempty,min=1,max=31"`
}

// CardListQuery holds the query parameters of GET /cards
type CardListQuery struct {
	PageQuery
	Search string `form:"search" binding:"omitempty,max=100"`
}

// CreateCard godoc
// @ID           createCard
// @Summary      Register a credit card
// @Description  Creates a card with its closing and due days. The limit is optional; without one no exposure is tracked.
// @Tags         cards
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        request body CreateCardRequest true "Card"
// @Success      201 {object} dto.Response{data=cardledger.CardResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cards [post]
func (h *CardHandler) CreateCard(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req CreateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	card, err := h.ledger.CreateCard(c.Request.Context(), tenantID, ledgerapp.CreateCardInput{
		Name:       req.Name,
		Limit:      req.Limit,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, card)
}

// GetCard godoc
// @ID           getCard
// @Summary      Get a credit card
// @Tags         cards
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Card ID" format(uuid)
// @Success      200 {object} dto.Response{data=cardledger.CardResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cards/{id} [get]
func (h *CardHandler) GetCard(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "card")
	if !ok {
		return
	}

	card, err := h.ledger.GetCard(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, card)
}

// ListCards godoc
// @ID           listCards
// @Summary      List credit cards
// @Tags         cards
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        search query string false "Name contains"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(name, closing_day, created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]cardledger.CardResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cards [get]
func (h *CardHandler) ListCards(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var query CardListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := cardledger.CardFilter{Filter: query.toFilter(), Search: query.Search}
	cards, total, err := h.ledger.ListCards(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, cards, total, filter.Page, filter.PageSize)
}

// UpdateCard godoc
// @ID           updateCard
// @Summary      Edit a credit card
// @Description  Changing the closing or due day only affects invoices created afterwards. Setting a limit recomputes the available limit from outstanding invoices.
// @Tags         cards
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Card ID" format(uuid)
// @Param        request body UpdateCardRequest true "Changes"
// @Success      200 {object} dto.Response{data=cardledger.CardResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cards/{id} [put]
func (h *CardHandler) UpdateCard(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "card")
	if !ok {
		return
	}

	var req UpdateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	card, err := h.ledger.UpdateCard(c.Request.Context(), tenantID, id, ledgerapp.UpdateCardInput{
		Name:        req.Name,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
		Limit:       req.Limit,
		RemoveLimit: req.RemoveLimit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, card)
}

// DeleteCard godoc
// @ID           deleteCard
// @Summary      Delete a credit card
// @Description  Only cards without invoices can be deleted.
// @Tags         cards
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Card ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "card")
	if !ok {
		return
	}

	if err := h.ledger.DeleteCard(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Reconcile godoc
// @ID           reconcileCard
// @Summary      Audit a card's balances
// @Description  Compares every invoice total with the sum of its expenses and the stored available limit with the outstanding exposure. Read only.
// @Tags         cards
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Card ID" format(uuid)
// @Success      200 {object} dto.Response{data=cardledger.ReconciliationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /cards/{id}/reconciliation [get]
func (h *CardHandler) Reconcile(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "card")
	if !ok {
		return
	}

	report, err := h.ledger.Reconcile(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}
