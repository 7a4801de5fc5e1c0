package finance

import (
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateBankAccountRequest opens a bank account
type CreateBankAccountRequest struct {
	Name           string          `json:"name" binding:"required,min=1,max=100"`
	BankName       string          `json:"bank_name" binding:"max=100"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID        uuid.UUID       `json:"id"`
	TenantID  uuid.UUID       `json:"tenant_id"`
	Name      string          `json:"name"`
	BankName  string          `json:"bank_name,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Version   int             `json:"version"`
}

// BankTransactionResponse represents a bank transaction in API responses
type BankTransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	BankAccountID   uuid.UUID       `json:"bank_account_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description,omitempty"`
	ReferenceID     *uuid.UUID      `json:"reference_id,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
	Status          string          `json:"status"`
	ReversedAt      *time.Time      `json:"reversed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PayableResponse represents an account payable in API responses
type PayableResponse struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	PayableNumber string          `json:"payable_number"`
	Description   string          `json:"description,omitempty"`
	SourceType    string          `json:"source_type"`
	SourceID      *uuid.UUID      `json:"source_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	BankAccountID *uuid.UUID      `json:"bank_account_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

// PayableListFilter defines filtering options for payable list queries
type PayableListFilter struct {
	Status     string     `form:"status" binding:"omitempty,oneof=PENDING PAID CANCELLED"`
	SourceType string     `form:"source_type" binding:"omitempty,oneof=CARD_INVOICE MANUAL"`
	SourceID   *uuid.UUID `form:"-"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToBankAccountResponse converts a domain BankAccount to its response form
func ToBankAccountResponse(a *finance.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:        a.ID,
		TenantID:  a.TenantID,
		Name:      a.Name,
		BankName:  a.BankName,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
		Version:   a.Version,
	}
}

// ToBankTransactionResponse converts a domain BankTransaction to its response form
func ToBankTransactionResponse(t *finance.BankTransaction) BankTransactionResponse {
	return BankTransactionResponse{
		ID:              t.ID,
		BankAccountID:   t.BankAccountID,
		Type:            string(t.Type),
		Amount:          t.Amount,
		Description:     t.Description,
		ReferenceID:     t.ReferenceID,
		TransactionDate: t.TransactionDate,
		Status:          string(t.Status),
		ReversedAt:      t.ReversedAt,
		CreatedAt:       t.CreatedAt,
	}
}

// ToPayableResponse converts a domain AccountPayable to its response form
func ToPayableResponse(p *finance.AccountPayable) PayableResponse {
	return PayableResponse{
		ID:            p.ID,
		TenantID:      p.TenantID,
		PayableNumber: p.PayableNumber,
		Description:   p.Description,
		SourceType:    string(p.SourceType),
		SourceID:      p.SourceID,
		Amount:        p.Amount,
		DueDate:       p.DueDate,
		Status:        string(p.Status),
		PaidAt:        p.PaidAt,
		BankAccountID: p.BankAccountID,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}
