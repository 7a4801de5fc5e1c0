package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountPayableRepository implements finance.AccountPayableRepository using GORM
type GormAccountPayableRepository struct {
	db *gorm.DB
}

// NewGormAccountPayableRepository creates a new GormAccountPayableRepository
func NewGormAccountPayableRepository(db *gorm.DB) *GormAccountPayableRepository {
	return &GormAccountPayableRepository{db: db}
}

// FindByID finds an account payable by ID for a tenant
func (r *GormAccountPayableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountPayable, error) {
	var model models.AccountPayableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists payables for a tenant and returns the unpaginated total
func (r *GormAccountPayableRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.PayableFilter) ([]finance.AccountPayable, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountPayableModel{}).Where("tenant_id = ?", tenantID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payableModels []models.AccountPayableModel
	if err := applyPage(query, filter.Filter, AccountPayableSortFields, "due_date").Find(&payableModels).Error; err != nil {
		return nil, 0, err
	}
	payables := make([]finance.AccountPayable, len(payableModels))
	for i := range payableModels {
		payables[i] = *payableModels[i].ToDomain()
	}
	return payables, total, nil
}

// Save creates or updates an account payable
func (r *GormAccountPayableRepository) Save(ctx context.Context, payable *finance.AccountPayable) error {
	return r.db.WithContext(ctx).Save(models.AccountPayableModelFromDomain(payable)).Error
}

// Delete removes an account payable
func (r *GormAccountPayableRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AccountPayableModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GeneratePayableNumber generates the next payable number for the tenant. Numbers continue after the
// highest one issued today so deleted payables never cause a reuse.
func (r *GormAccountPayableRepository) GeneratePayableNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	day := time.Now().Format("20060102")
	prefix := fmt.Sprintf("AP-%s-", day)

	var last []string
	if err := r.db.WithContext(ctx).Model(&models.AccountPayableModel{}).
		Where("tenant_id = ? AND payable_number LIKE ?", tenantID, prefix+"%").
		Order("payable_number DESC").
		Limit(1).
		Pluck("payable_number", &last).Error; err != nil {
		return "", err
	}

	next := 1
	if len(last) > 0 {
		seq, err := strconv.Atoi(strings.TrimPrefix(last[0], prefix))
		if err != nil {
			return "", fmt.Errorf("malformed payable number %q: %w", last[0], err)
		}
		next = seq + 1
	}
	return fmt.Sprintf("%s%05d", prefix, next), nil
}
