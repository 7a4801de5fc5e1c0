package persistence

import (
	"context"
	"errors"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sums are rounded to cents: SQLite aggregates DECIMAL columns as floating point.
const sumPlaces = 2

// GormCardExpenseRepository implements cardledger.ExpenseRepository using GORM
type GormCardExpenseRepository struct {
	db *gorm.DB
}

// NewGormCardExpenseRepository creates a new GormCardExpenseRepository
func NewGormCardExpenseRepository(db *gorm.DB) *GormCardExpenseRepository {
	return &GormCardExpenseRepository{db: db}
}

// FindByID finds an expense by ID for a tenant
func (r *GormCardExpenseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Expense, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds an expense and locks its row until the transaction ends
func (r *GormCardExpenseRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Expense, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormCardExpenseRepository) find(query *gorm.DB, tenantID, id uuid.UUID) (*cardledger.Expense, error) {
	var model models.ExpenseModel
	if err := query.
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInvoice returns every expense attached to an invoice, oldest purchase first
func (r *GormCardExpenseRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]cardledger.Expense, error) {
	var expenseModels []models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND invoice_id = ?", tenantID, invoiceID).
		Order("purchase_date ASC, installment_number ASC, id ASC").
		Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	return toExpenses(expenseModels), nil
}

// FindAll lists expenses for a tenant and returns the unpaginated total
func (r *GormCardExpenseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter cardledger.ExpenseFilter) ([]cardledger.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("tenant_id = ?", tenantID)
	if filter.CardID != nil {
		query = query.Where("card_id = ?", *filter.CardID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.PurchaseGroupID != nil {
		query = query.Where("purchase_group_id = ?", *filter.PurchaseGroupID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.From != nil {
		query = query.Where("purchase_date >= ?", cardledger.CivilDate(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("purchase_date <= ?", cardledger.CivilDate(*filter.To))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var expenseModels []models.ExpenseModel
	if err := applyPage(query, filter.Filter, ExpenseSortFields, "purchase_date").Find(&expenseModels).Error; err != nil {
		return nil, 0, err
	}
	return toExpenses(expenseModels), total, nil
}

// Save creates or updates an expense
func (r *GormCardExpenseRepository) Save(ctx context.Context, expense *cardledger.Expense) error {
	return r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(expense)).Error
}

// Delete removes an expense
func (r *GormCardExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByInvoice removes all expenses attached to an invoice
func (r *GormCardExpenseRepository) DeleteByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseModel{}, "tenant_id = ? AND invoice_id = ?", tenantID, invoiceID)
	return result.RowsAffected, result.Error
}

// SumByInvoice totals the card's expenses grouped by invoice
func (r *GormCardExpenseRepository) SumByInvoice(ctx context.Context, tenantID, cardID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []struct {
		InvoiceID uuid.UUID
		Total     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Select("invoice_id, COALESCE(SUM(amount), 0) AS total").
		Where("tenant_id = ? AND card_id = ? AND invoice_id IS NOT NULL", tenantID, cardID).
		Group("invoice_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.InvoiceID] = row.Total.Round(sumPlaces)
	}
	return sums, nil
}

// SumOutstanding totals the card's expenses that are unattached or sit on an unpaid invoice
func (r *GormCardExpenseRepository) SumOutstanding(ctx context.Context, tenantID, cardID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Table("card_expenses AS e").
		Select("COALESCE(SUM(e.amount), 0) AS total").
		Joins("LEFT JOIN card_invoices AS i ON i.id = e.invoice_id").
		Where("e.tenant_id = ? AND e.card_id = ?", tenantID, cardID).
		Where("(i.id IS NULL OR i.status <> ?)", cardledger.InvoiceStatusPaid).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total.Round(sumPlaces), nil
}

func toExpenses(expenseModels []models.ExpenseModel) []cardledger.Expense {
	expenses := make([]cardledger.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = *expenseModels[i].ToDomain()
	}
	return expenses
}
