package finance

import (
	"context"

	"github.com/foodops/backoffice/internal/domain/finance"
	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// FinanceService serves the bank account and payable endpoints. Money only
// moves through BankLedger and PayableLedger inside ledger units of work; this
// service opens accounts and answers queries.
type FinanceService struct {
	accounts     finance.BankAccountRepository
	transactions finance.BankTransactionRepository
	payables     finance.AccountPayableRepository
}

// NewFinanceService creates a new FinanceService
func NewFinanceService(
	accounts finance.BankAccountRepository,
	transactions finance.BankTransactionRepository,
	payables finance.AccountPayableRepository,
) *FinanceService {
	return &FinanceService{accounts: accounts, transactions: transactions, payables: payables}
}

// CreateBankAccount opens a bank account with its opening balance
func (s *FinanceService) CreateBankAccount(ctx context.Context, tenantID uuid.UUID, req CreateBankAccountRequest) (*BankAccountResponse, error) {
	account, err := finance.NewBankAccount(tenantID, req.Name, req.BankName, req.OpeningBalance)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		return nil, err
	}
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// GetBankAccount returns one bank account
func (s *FinanceService) GetBankAccount(ctx context.Context, tenantID, id uuid.UUID) (*BankAccountResponse, error) {
	account, err := s.accounts.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundAs(err, CodeBankAccountNotFound, "Bank account", id)
	}
	resp := ToBankAccountResponse(account)
	return &resp, nil
}

// ListBankAccounts returns a page of bank accounts
func (s *FinanceService) ListBankAccounts(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankAccountResponse, int64, error) {
	accounts, total, err := s.accounts.FindAll(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BankAccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToBankAccountResponse(&accounts[i])
	}
	return out, total, nil
}

// ListTransactions returns a page of the account's transactions, newest first
func (s *FinanceService) ListTransactions(ctx context.Context, tenantID, accountID uuid.UUID, filter shared.Filter) ([]BankTransactionResponse, int64, error) {
	if _, err := s.accounts.FindByID(ctx, tenantID, accountID); err != nil {
		return nil, 0, notFoundAs(err, CodeBankAccountNotFound, "Bank account", accountID)
	}
	txs, total, err := s.transactions.FindByAccount(ctx, tenantID, accountID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]BankTransactionResponse, len(txs))
	for i := range txs {
		out[i] = ToBankTransactionResponse(&txs[i])
	}
	return out, total, nil
}

// GetPayable returns one account payable
func (s *FinanceService) GetPayable(ctx context.Context, tenantID, id uuid.UUID) (*PayableResponse, error) {
	payable, err := s.payables.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, notFoundAs(err, CodePayableNotFound, "Account payable", id)
	}
	resp := ToPayableResponse(payable)
	return &resp, nil
}

// ListPayables returns a page of payables
func (s *FinanceService) ListPayables(ctx context.Context, tenantID uuid.UUID, filter PayableListFilter) ([]PayableResponse, int64, error) {
	domainFilter := finance.PayableFilter{
		Filter:   shared.Filter{Page: filter.Page, PageSize: filter.PageSize, OrderBy: "due_date", OrderDir: "asc"},
		SourceID: filter.SourceID,
	}
	if filter.Status != "" {
		status := finance.PayableStatus(filter.Status)
		domainFilter.Status = &status
	}
	if filter.SourceType != "" {
		sourceType := finance.PayableSourceType(filter.SourceType)
		domainFilter.SourceType = &sourceType
	}

	payables, total, err := s.payables.FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PayableResponse, len(payables))
	for i := range payables {
		out[i] = ToPayableResponse(&payables[i])
	}
	return out, total, nil
}

// notFoundAs swaps a generic NOT_FOUND for an entity-specific code
func notFoundAs(err error, code, entity string, id uuid.UUID) error {
	if shared.IsNotFound(err) {
		return shared.NewNotFoundError(code, entity, id)
	}
	return err
}
