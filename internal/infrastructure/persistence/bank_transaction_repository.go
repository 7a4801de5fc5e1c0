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

// GormBankTransactionRepository implements finance.BankTransactionRepository using GORM
type GormBankTransactionRepository struct {
	db *gorm.DB
}

// NewGormBankTransactionRepository creates a new GormBankTransactionRepository
func NewGormBankTransactionRepository(db *gorm.DB) *GormBankTransactionRepository {
	return &GormBankTransactionRepository{db: db}
}

// FindByID finds a bank transaction by ID for a tenant
func (r *GormBankTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.BankTransaction, error) {
	var model models.BankTransactionModel
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

// FindByAccount lists the transactions of one bank account
func (r *GormBankTransactionRepository) FindByAccount(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]finance.BankTransaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BankTransactionModel{}).
		Where("tenant_id = ? AND bank_account_id = ?", tenantID, accountID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txModels []models.BankTransactionModel
	if err := applyPage(query, filter, BankTransactionSortFields, "transaction_date").Find(&txModels).Error; err != nil {
		return nil, 0, err
	}
	txs := make([]finance.BankTransaction, len(txModels))
	for i := range txModels {
		txs[i] = *txModels[i].ToDomain()
	}
	return txs, total, nil
}

// Save creates or updates a bank transaction
func (r *GormBankTransactionRepository) Save(ctx context.Context, tx *finance.BankTransaction) error {
	return r.db.WithContext(ctx).Save(models.BankTransactionModelFromDomain(tx)).Error
}
