package handler

import (
	financeapp "github.com/foodops/backoffice/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// FinanceHandler handles bank account and account payable API endpoints
type FinanceHandler struct {
	BaseHandler
	financeService *financeapp.FinanceService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(financeService *financeapp.FinanceService) *FinanceHandler {
	return &FinanceHandler{
		financeService: financeService,
	}
}

// ===================== Bank accounts =====================

// CreateBankAccount godoc
// @ID           createBankAccount
// @Summary      Open a bank account
// @Description  Creates a bank account with an opening balance. Invoice payments debit it and reverted payments credit it back.
// @Tags         bank-accounts
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay guard"
// @Param        request body financeapp.CreateBankAccountRequest true "Bank account"
// @Success      201 {object} dto.Response{data=financeapp.BankAccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /bank-accounts [post]
func (h *FinanceHandler) CreateBankAccount(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var req financeapp.CreateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	account, err := h.financeService.CreateBankAccount(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// GetBankAccount godoc
// @ID           getBankAccount
// @Summary      Get a bank account
// @Tags         bank-accounts
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Bank account ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.BankAccountResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /bank-accounts/{id} [get]
func (h *FinanceHandler) GetBankAccount(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "bank account")
	if !ok {
		return
	}

	account, err := h.financeService.GetBankAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// ListBankAccounts godoc
// @ID           listBankAccounts
// @Summary      List bank accounts
// @Tags         bank-accounts
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" Enums(name, bank_name, balance, created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]financeapp.BankAccountResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /bank-accounts [get]
func (h *FinanceHandler) ListBankAccounts(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var query PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := query.toFilter()
	accounts, total, err := h.financeService.ListBankAccounts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, accounts, total, filter.Page, filter.PageSize)
}

// ListBankTransactions godoc
// @ID           listBankTransactions
// @Summary      List the transactions of a bank account
// @Description  Debits from invoice payments and the credits that reverse them, newest first.
// @Tags         bank-accounts
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Bank account ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]financeapp.BankTransactionResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /bank-accounts/{id}/transactions [get]
func (h *FinanceHandler) ListBankTransactions(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "bank account")
	if !ok {
		return
	}

	var query PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.ValidationError(c, err)
		return
	}

	filter := query.toFilter()
	txs, total, err := h.financeService.ListTransactions(c.Request.Context(), tenantID, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, txs, total, filter.Page, filter.PageSize)
}

// ===================== Account payables =====================

// GetPayable godoc
// @ID           getPayable
// @Summary      Get an account payable
// @Tags         payables
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        id path string true "Payable ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id} [get]
func (h *FinanceHandler) GetPayable(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}
	id, ok := h.parseID(c, "id", "payable")
	if !ok {
		return
	}

	payable, err := h.financeService.GetPayable(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payable)
}

// ListPayables godoc
// @ID           listPayables
// @Summary      List account payables
// @Description  Payables opened by closed card invoices, ordered by due date.
// @Tags         payables
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID" format(uuid)
// @Param        status query string false "Payable status" Enums(PENDING, PAID, CANCELLED)
// @Param        source_type query string false "Source type" Enums(CARD_INVOICE, MANUAL)
// @Param        source_id query string false "Source document ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]financeapp.PayableResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables [get]
func (h *FinanceHandler) ListPayables(c *gin.Context) {
	tenantID, ok := h.requireTenant(c)
	if !ok {
		return
	}

	var filter financeapp.PayableListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}
	sourceID, err := parseOptionalUUID(c.Query("source_id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID format")
		return
	}
	filter.SourceID = sourceID

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	payables, total, err := h.financeService.ListPayables(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, payables, total, filter.Page, filter.PageSize)
}
