package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/interfaces/http/dto"
	"github.com/foodops/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRequestID(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
	assert.Equal(t, "header-id", getRequestID(c))

	c.Set(middleware.RequestIDKey, "ctx-id")
	assert.Equal(t, "ctx-id", getRequestID(c))
}

func TestBaseHandler_RequireTenant(t *testing.T) {
	h := &BaseHandler{}

	t.Run("missing", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		_, ok := h.requireTenant(c)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeMissingTenant, decode(t, w).Error.Code)
	})

	t.Run("resolved by middleware", func(t *testing.T) {
		tenantID := uuid.New()
		c, _ := newTestContext(http.MethodGet, "/")
		c.Set(middleware.TenantIDKey, tenantID)

		got, ok := h.requireTenant(c)
		assert.True(t, ok)
		assert.Equal(t, tenantID, got)
	})
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}
	id := uuid.New()

	c, _ := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.parseID(c, "id", "card")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, ok = h.parseID(c, "id", "card")
	assert.False(t, ok)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "Invalid card ID format", resp.Error.Message)
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"a", "b"}, 45, 2, 20)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_CreatedAndNoContent(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(http.MethodPost, "/")
	h.Created(c, map[string]string{"id": "123"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decode(t, w).Success)

	router := gin.New()
	router.DELETE("/cards/:id", func(c *gin.Context) { h.NoContent(c) })
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/cards/1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestBaseHandler_HandleError(t *testing.T) {
	invoice := &cardledger.Invoice{ID: uuid.New(), Status: cardledger.InvoiceStatusClosed}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"card not found", cardledger.CardNotFound(uuid.New()), http.StatusNotFound, cardledger.CodeCardNotFound},
		{"settled invoice", cardledger.CannotModifySettledInvoice(invoice), http.StatusUnprocessableEntity, cardledger.CodeCannotModifySettledInvoice},
		{"invalid amount", cardledger.InvalidAmount(decimal.NewFromInt(-1)), http.StatusBadRequest, cardledger.CodeInvalidAmount},
		{"open invoice exists", shared.NewKindError(shared.KindConflict, cardledger.CodeOpenInvoiceExists, "another invoice is open"), http.StatusConflict, cardledger.CodeOpenInvoiceExists},
		{"legacy not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"wrapped", fmt.Errorf("pay: %w", cardledger.InvoiceNotFound(uuid.New())), http.StatusNotFound, cardledger.CodeInvoiceNotFound},
		{"plain error", assert.AnError, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodPost, "/")
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorCarriesDetails(t *testing.T) {
	h := &BaseHandler{}
	invoice := &cardledger.Invoice{ID: uuid.New(), Status: cardledger.InvoiceStatusPaid}
	c, w := newTestContext(http.MethodDelete, "/")

	h.HandleError(c, cardledger.CannotModifySettledInvoice(invoice))

	resp := decode(t, w)
	assert.Equal(t, invoice.ID.String(), resp.Error.Details["invoice_id"])
	assert.Equal(t, "PAID", resp.Error.Details["status"])
}

func TestBaseHandler_HandleErrorHidesInternals(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, fmt.Errorf("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, strings.Contains(w.Body.String(), "password"))
}

func TestPageQuery_ToFilter(t *testing.T) {
	assert.Equal(t, shared.DefaultFilter(), PageQuery{}.toFilter())

	got := PageQuery{Page: 3, PageSize: 50, OrderBy: "due_date", OrderDir: "ASC"}.toFilter()
	assert.Equal(t, shared.Filter{Page: 3, PageSize: 50, OrderBy: "due_date", OrderDir: "asc"}, got)
}

func TestParseHelpers(t *testing.T) {
	id, err := parseOptionalUUID("")
	assert.NoError(t, err)
	assert.Nil(t, id)
	_, err = parseOptionalUUID("nope")
	assert.Error(t, err)

	month, err := parseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", month.Format(dateLayout))

	day, err := parseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, 29, day.Day())
	_, err = parseDate("2023-02-29")
	assert.Error(t, err)
}
