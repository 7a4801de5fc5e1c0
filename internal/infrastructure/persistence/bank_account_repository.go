package persistence

import (
	"context"
	"errors"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBankAccountRepository implements finance.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByID finds a bank account by ID for a tenant
func (r *GormBankAccountRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	return r.find(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a bank account and locks its row until the transaction ends
func (r *GormBankAccountRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), tenantID, id)
}

func (r *GormBankAccountRepository) find(query *gorm.DB, tenantID, id uuid.UUID) (*finance.BankAccount, error) {
	var model models.BankAccountModel
	if err := query.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists bank accounts for a tenant
func (r *GormBankAccountRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.BankAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankAccountModel{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accountModels []models.BankAccountModel
	if err := applyPage(query, filter, BankAccountSortFields, "name").Find(&accountModels).Error; err != nil {
		return nil, 0, err
	}
	accounts := make([]finance.BankAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts, total, nil
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *finance.BankAccount) error {
	return r.db.WithContext(ctx).Save(models.BankAccountModelFromDomain(account)).Error
}
