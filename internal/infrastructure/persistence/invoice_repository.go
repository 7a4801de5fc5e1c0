package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements cardledger.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID for a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Invoice, error) {
	return r.first(r.db.WithContext(ctx).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindByIDForUpdate finds an invoice and locks its row until the transaction ends
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Invoice, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).Where("tenant_id = ? AND id = ?", tenantID, id))
}

// FindOpenForUpdate finds the OPEN invoice of a card for the given reference month
func (r *GormInvoiceRepository) FindOpenForUpdate(ctx context.Context, tenantID, cardID uuid.UUID, referenceMonth time.Time) (*cardledger.Invoice, error) {
	return r.first(forUpdate(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND card_id = ? AND reference_month = ? AND status = ?",
			tenantID, cardID, cardledger.MonthStart(referenceMonth), cardledger.InvoiceStatusOpen))
}

func (r *GormInvoiceRepository) first(query *gorm.DB) (*cardledger.Invoice, error) {
	var model models.InvoiceModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices for a tenant and returns the unpaginated total
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter cardledger.InvoiceFilter) ([]cardledger.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("tenant_id = ?", tenantID)
	if filter.CardID != nil {
		query = query.Where("card_id = ?", *filter.CardID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ReferenceMonth != nil {
		query = query.Where("reference_month = ?", cardledger.MonthStart(*filter.ReferenceMonth))
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoiceModels []models.InvoiceModel
	if err := applyPage(query, filter.Filter, InvoiceSortFields, "reference_month").Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}
	invoices := make([]cardledger.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, total, nil
}

// CountByCard counts invoices of any status for a card
func (r *GormInvoiceRepository) CountByCard(ctx context.Context, tenantID, cardID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND card_id = ?", tenantID, cardID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *cardledger.Invoice) error {
	return r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(invoice)).Error
}

// Delete removes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
