package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCardRepository implements cardledger.CardRepository using GORM
type GormCardRepository struct {
	db *gorm.DB
}

// NewGormCardRepository creates a new GormCardRepository
func NewGormCardRepository(db *gorm.DB) *GormCardRepository {
	return &GormCardRepository{db: db}
}

// FindByID finds a card by ID for a tenant
func (r *GormCardRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Card, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a card and locks its row until the transaction ends
func (r *GormCardRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*cardledger.Card, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormCardRepository) find(query *gorm.DB, tenantID, id uuid.UUID) (*cardledger.Card, error) {
	var model models.CardModel
	if err := query.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists cards for a tenant and returns the unpaginated total
func (r *GormCardRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter cardledger.CardFilter) ([]cardledger.Card, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CardModel{}).Where("tenant_id = ?", tenantID)
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cardModels []models.CardModel
	if err := applyPage(query, filter.Filter, CardSortFields, "name").Find(&cardModels).Error; err != nil {
		return nil, 0, err
	}
	cards := make([]cardledger.Card, len(cardModels))
	for i := range cardModels {
		cards[i] = *cardModels[i].ToDomain()
	}
	return cards, total, nil
}

// Save creates or updates a card
func (r *GormCardRepository) Save(ctx context.Context, card *cardledger.Card) error {
	return r.db.WithContext(ctx).Save(models.CardModelFromDomain(card)).Error
}

// Delete removes a card
func (r *GormCardRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CardModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
