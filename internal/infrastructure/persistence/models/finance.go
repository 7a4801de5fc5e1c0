package models

import (
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountPayableModel is the persistence model for the AccountPayable aggregate root.
type AccountPayableModel struct {
	TenantAggregateModel
	PayableNumber string                    `gorm:"type:varchar(50);not null;index"`
	Description   string                    `gorm:"type:varchar(500)"`
	SourceType    finance.PayableSourceType `gorm:"type:varchar(30);not null;index"`
	SourceID      *uuid.UUID                `gorm:"type:uuid;index"`
	Amount        decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	DueDate       time.Time                 `gorm:"type:date;not null;index"`
	Status        finance.PayableStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PaidAt        *time.Time
	BankAccountID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (AccountPayableModel) TableName() string {
	return "account_payables"
}

// ToDomain converts the persistence model to a domain AccountPayable.
func (m *AccountPayableModel) ToDomain() *finance.AccountPayable {
	return &finance.AccountPayable{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		PayableNumber:       m.PayableNumber,
		Description:         m.Description,
		SourceType:          m.SourceType,
		SourceID:            m.SourceID,
		Amount:              m.Amount,
		DueDate:             m.DueDate,
		Status:              m.Status,
		PaidAt:              m.PaidAt,
		BankAccountID:       m.BankAccountID,
	}
}

// AccountPayableModelFromDomain creates a persistence model from a domain AccountPayable.
func AccountPayableModelFromDomain(ap *finance.AccountPayable) *AccountPayableModel {
	m := &AccountPayableModel{
		PayableNumber: ap.PayableNumber,
		Description:   ap.Description,
		SourceType:    ap.SourceType,
		SourceID:      ap.SourceID,
		Amount:        ap.Amount,
		DueDate:       ap.DueDate,
		Status:        ap.Status,
		PaidAt:        ap.PaidAt,
		BankAccountID: ap.BankAccountID,
	}
	m.FromDomainTenantAggregateRoot(ap.TenantAggregateRoot)
	return m
}

// BankAccountModel is the persistence model for the BankAccount aggregate root.
type BankAccountModel struct {
	TenantAggregateModel
	Name     string          `gorm:"type:varchar(100);not null"`
	BankName string          `gorm:"type:varchar(100)"`
	Balance  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (BankAccountModel) TableName() string {
	return "bank_accounts"
}

// ToDomain converts the persistence model to a domain BankAccount.
func (m *BankAccountModel) ToDomain() *finance.BankAccount {
	return &finance.BankAccount{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		BankName:            m.BankName,
		Balance:             m.Balance,
	}
}

// BankAccountModelFromDomain creates a persistence model from a domain BankAccount.
func BankAccountModelFromDomain(a *finance.BankAccount) *BankAccountModel {
	m := &BankAccountModel{Name: a.Name, BankName: a.BankName, Balance: a.Balance}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// BankTransactionModel is the persistence model for a bank transaction.
type BankTransactionModel struct {
	TenantAggregateModel
	BankAccountID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Type            finance.TransactionType   `gorm:"type:varchar(10);not null"`
	Amount          decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Description     string                    `gorm:"type:varchar(500)"`
	ReferenceID     *uuid.UUID                `gorm:"type:uuid;index"`
	TransactionDate time.Time                 `gorm:"type:date;not null;index"`
	Status          finance.TransactionStatus `gorm:"type:varchar(20);not null;default:'POSTED'"`
	ReversedAt      *time.Time
}

// TableName returns the table name for GORM
func (BankTransactionModel) TableName() string {
	return "bank_transactions"
}

// ToDomain converts the persistence model to a domain BankTransaction.
func (m *BankTransactionModel) ToDomain() *finance.BankTransaction {
	return &finance.BankTransaction{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		BankAccountID:       m.BankAccountID,
		Type:                m.Type,
		Amount:              m.Amount,
		Description:         m.Description,
		ReferenceID:         m.ReferenceID,
		TransactionDate:     m.TransactionDate,
		Status:              m.Status,
		ReversedAt:          m.ReversedAt,
	}
}

// BankTransactionModelFromDomain creates a persistence model from a domain BankTransaction.
func BankTransactionModelFromDomain(t *finance.BankTransaction) *BankTransactionModel {
	m := &BankTransactionModel{
		BankAccountID:   t.BankAccountID,
		Type:            t.Type,
		Amount:          t.Amount,
		Description:     t.Description,
		ReferenceID:     t.ReferenceID,
		TransactionDate: t.TransactionDate,
		Status:          t.Status,
		ReversedAt:      t.ReversedAt,
	}
	m.FromDomainTenantAggregateRoot(t.TenantAggregateRoot)
	return m
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests and tools
func AllModels() []any {
	return []any{
		&CardModel{},
		&InvoiceModel{},
		&ExpenseModel{},
		&BankAccountModel{},
		&BankTransactionModel{},
		&AccountPayableModel{},
	}
}
