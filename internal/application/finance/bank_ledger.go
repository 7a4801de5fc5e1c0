package finance

import (
	"context"
	"time"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/foodops/backoffice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodeBankAccountNotFound is returned for unknown bank accounts
const CodeBankAccountNotFound = "BANK_ACCOUNT_NOT_FOUND"

// CodeBankTransactionNotFound is returned for unknown bank transactions
const CodeBankTransactionNotFound = "BANK_TRANSACTION_NOT_FOUND"

// BankLedger moves money on bank accounts. Build one per unit of work from the
// repositories bound to that transaction so every change commits together.
type BankLedger struct {
	accounts     finance.BankAccountRepository
	transactions finance.BankTransactionRepository
	now          func() time.Time
}

// NewBankLedger creates a BankLedger over transaction-bound repositories
func NewBankLedger(accounts finance.BankAccountRepository, transactions finance.BankTransactionRepository) *BankLedger {
	return &BankLedger{accounts: accounts, transactions: transactions, now: time.Now}
}

// CreateDebitTransaction records a posted debit of amount on the account.
// The balance is left alone; pair it with AdjustBalance.
func (l *BankLedger) CreateDebitTransaction(
	ctx context.Context,
	tenantID, bankAccountID uuid.UUID,
	amount decimal.Decimal,
	description string,
	referenceID *uuid.UUID,
	date time.Time,
) (*finance.BankTransaction, error) {
	if _, err := l.findAccount(ctx, tenantID, bankAccountID, false); err != nil {
		return nil, err
	}
	tx, err := finance.NewDebitTransaction(tenantID, bankAccountID, amount, description, referenceID, date)
	if err != nil {
		return nil, err
	}
	if err := l.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// AdjustBalance locks the account, applies delta and returns the new balance
func (l *BankLedger) AdjustBalance(ctx context.Context, tenantID, bankAccountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	account, err := l.findAccount(ctx, tenantID, bankAccountID, true)
	if err != nil {
		return decimal.Zero, err
	}
	balance := account.AdjustBalance(delta)
	if err := l.accounts.Save(ctx, account); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Debit records a debit and takes it off the balance in one step
func (l *BankLedger) Debit(
	ctx context.Context,
	tenantID, bankAccountID uuid.UUID,
	amount decimal.Decimal,
	description string,
	referenceID *uuid.UUID,
	date time.Time,
) (*finance.BankTransaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "bank_ledger", "debit",
		telemetry.SpanAttrBankAccountID, bankAccountID.String(),
		telemetry.SpanAttrAmount, amount.String(),
	)
	defer span.End()

	tx, err := l.CreateDebitTransaction(ctx, tenantID, bankAccountID, amount, description, referenceID, date)
	if err == nil {
		_, err = l.AdjustBalance(ctx, tenantID, bankAccountID, tx.SignedAmount())
	}
	telemetry.RecordError(span, err)
	return tx, err
}

// ReverseTransaction marks a posted transaction REVERSED and moves its amount
// back onto the account balance
func (l *BankLedger) ReverseTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*finance.BankTransaction, error) {
	tx, err := l.transactions.FindByID(ctx, tenantID, transactionID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError(CodeBankTransactionNotFound, "Bank transaction", transactionID)
		}
		return nil, err
	}
	if err := tx.Reverse(l.now()); err != nil {
		return nil, err
	}
	if _, err := l.AdjustBalance(ctx, tenantID, tx.BankAccountID, tx.SignedAmount().Neg()); err != nil {
		return nil, err
	}
	if err := l.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

func (l *BankLedger) findAccount(ctx context.Context, tenantID, id uuid.UUID, lock bool) (*finance.BankAccount, error) {
	find := l.accounts.FindByID
	if lock {
		find = l.accounts.FindByIDForUpdate
	}
	account, err := find(ctx, tenantID, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewNotFoundError(CodeBankAccountNotFound, "Bank account", id)
		}
		return nil, err
	}
	return account, nil
}
