package persistence

import (
	"context"

	"github.com/foodops/backoffice/internal/domain/cardledger"
	"gorm.io/gorm"
)

// GormUnitOfWork implements cardledger.UnitOfWork on top of a GORM transaction
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Do runs fn in a transaction. Every repository handed to fn shares that
// transaction; an error or panic in fn rolls it back.
func (u *GormUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos cardledger.Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, RepositoriesFor(tx))
	})
}

// RepositoriesFor binds the full repository set to db (a transaction or the root connection)
func RepositoriesFor(db *gorm.DB) cardledger.Repositories {
	return cardledger.Repositories{
		Cards:            NewGormCardRepository(db),
		Invoices:         NewGormInvoiceRepository(db),
		Expenses:         NewGormCardExpenseRepository(db),
		BankAccounts:     NewGormBankAccountRepository(db),
		BankTransactions: NewGormBankTransactionRepository(db),
		Payables:         NewGormAccountPayableRepository(db),
	}
}
