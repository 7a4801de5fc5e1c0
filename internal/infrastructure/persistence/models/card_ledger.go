package models

import (
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardModel is the persistence model for the Card aggregate root.
type CardModel struct {
	TenantAggregateModel
	Name           string           `gorm:"type:varchar(100);not null"`
	CreditLimit    *decimal.Decimal `gorm:"type:decimal(18,2)"`
	AvailableLimit *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ClosingDay     int              `gorm:"not null"`
	DueDay         int              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CardModel) TableName() string {
	return "cards"
}

// ToDomain converts the persistence model to a domain Card.
func (m *CardModel) ToDomain() *cardledger.Card {
	return &cardledger.Card{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Name:                m.Name,
		Limit:               m.CreditLimit,
		AvailableLimit:      m.AvailableLimit,
		ClosingDay:          m.ClosingDay,
		DueDay:              m.DueDay,
	}
}

// CardModelFromDomain creates a persistence model from a domain Card.
func CardModelFromDomain(c *cardledger.Card) *CardModel {
	m := &CardModel{
		Name:           c.Name,
		CreditLimit:    c.Limit,
		AvailableLimit: c.AvailableLimit,
		ClosingDay:     c.ClosingDay,
		DueDay:         c.DueDay,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	TenantAggregateModel
	CardID            uuid.UUID                `gorm:"type:uuid;not null;index:idx_card_invoice_cycle,priority:1"`
	ReferenceMonth    time.Time                `gorm:"type:date;not null;index:idx_card_invoice_cycle,priority:2"`
	ClosingDate       time.Time                `gorm:"type:date;not null"`
	DueDate           time.Time                `gorm:"type:date;not null;index"`
	TotalAmount       decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Status            cardledger.InvoiceStatus `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	ClosedAt          *time.Time
	PaymentDate       *time.Time       `gorm:"type:date"`
	PaidAmount        *decimal.Decimal `gorm:"type:decimal(18,2)"`
	BankAccountID     *uuid.UUID       `gorm:"type:uuid"`
	BankTransactionID *uuid.UUID       `gorm:"type:uuid"`
	PayableID         *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "card_invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *cardledger.Invoice {
	return &cardledger.Invoice{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		CardID:              m.CardID,
		ReferenceMonth:      cardledger.CivilDate(m.ReferenceMonth),
		ClosingDate:         cardledger.CivilDate(m.ClosingDate),
		DueDate:             cardledger.CivilDate(m.DueDate),
		TotalAmount:         m.TotalAmount,
		Status:              m.Status,
		ClosedAt:            m.ClosedAt,
		PaymentDate:         m.PaymentDate,
		PaidAmount:          m.PaidAmount,
		BankAccountID:       m.BankAccountID,
		BankTransactionID:   m.BankTransactionID,
		PayableID:           m.PayableID,
	}
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *cardledger.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		CardID:            inv.CardID,
		ReferenceMonth:    inv.ReferenceMonth,
		ClosingDate:       inv.ClosingDate,
		DueDate:           inv.DueDate,
		TotalAmount:       inv.TotalAmount,
		Status:            inv.Status,
		ClosedAt:          inv.ClosedAt,
		PaymentDate:       inv.PaymentDate,
		PaidAmount:        inv.PaidAmount,
		BankAccountID:     inv.BankAccountID,
		BankTransactionID: inv.BankTransactionID,
		PayableID:         inv.PayableID,
	}
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	return m
}

// ExpenseModel is the persistence model for a card expense row.
type ExpenseModel struct {
	TenantAggregateModel
	CardID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	InvoiceID         *uuid.UUID      `gorm:"type:uuid;index"`
	PurchaseGroupID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description       string          `gorm:"type:varchar(500)"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PurchaseDate      time.Time       `gorm:"type:date;not null;index"`
	Installments      int             `gorm:"not null;default:1"`
	InstallmentNumber int             `gorm:"not null;default:1"`
	Category          string          `gorm:"type:varchar(100);index"`
	Supplier          string          `gorm:"type:varchar(200)"`
	AttachmentRef     string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "card_expenses"
}

// ToDomain converts the persistence model to a domain Expense.
func (m *ExpenseModel) ToDomain() *cardledger.Expense {
	return &cardledger.Expense{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		CardID:              m.CardID,
		InvoiceID:           m.InvoiceID,
		PurchaseGroupID:     m.PurchaseGroupID,
		Amount:              m.Amount,
		PurchaseDate:        cardledger.CivilDate(m.PurchaseDate),
		Installments:        m.Installments,
		InstallmentNumber:   m.InstallmentNumber,
		ExpenseMetadata: cardledger.ExpenseMetadata{
			Description:   m.Description,
			Category:      m.Category,
			Supplier:      m.Supplier,
			AttachmentRef: m.AttachmentRef,
		},
	}
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense.
func ExpenseModelFromDomain(e *cardledger.Expense) *ExpenseModel {
	m := &ExpenseModel{
		CardID:            e.CardID,
		InvoiceID:         e.InvoiceID,
		PurchaseGroupID:   e.PurchaseGroupID,
		Description:       e.Description,
		Amount:            e.Amount,
		PurchaseDate:      e.PurchaseDate,
		Installments:      e.Installments,
		InstallmentNumber: e.InstallmentNumber,
		Category:          e.Category,
		Supplier:          e.Supplier,
		AttachmentRef:     e.AttachmentRef,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}
