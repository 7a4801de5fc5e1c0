package cardledger

import (
	"fmt"

	"github.com/foodops/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// Error codes raised by the card ledger
const (
	CodeCardNotFound               = "CARD_NOT_FOUND"
	CodeInvoiceNotFound            = "INVOICE_NOT_FOUND"
	CodeExpenseNotFound            = "EXPENSE_NOT_FOUND"
	CodeBankAccountNotFound        = "BANK_ACCOUNT_NOT_FOUND"
	CodeInvalidConfiguration       = "INVALID_CONFIGURATION"
	CodeInvalidAmount              = "INVALID_AMOUNT"
	CodeInvalidInstallments        = "INVALID_INSTALLMENTS"
	CodeInvalidName                = "INVALID_NAME"
	CodeInvalidLimit               = "INVALID_LIMIT"
	CodeInvalidDate                = "INVALID_DATE"
	CodeAlreadyClosed              = "INVOICE_ALREADY_CLOSED"
	CodeInvoiceNotClosed           = "INVOICE_NOT_CLOSED"
	CodeAlreadyPaid                = "INVOICE_ALREADY_PAID"
	CodeInvoiceNotPaid             = "INVOICE_NOT_PAID"
	CodeCannotDeletePaidInvoice    = "CANNOT_DELETE_PAID_INVOICE"
	CodeCannotModifySettledInvoice = "CANNOT_MODIFY_SETTLED_INVOICE"
	CodeOpenInvoiceExists          = "OPEN_INVOICE_EXISTS"
	CodeInsufficientLimit          = "INSUFFICIENT_LIMIT"
	CodeLimitOverflow              = "LIMIT_OVERFLOW"
	CodeTotalUnderflow             = "INVOICE_TOTAL_UNDERFLOW"
	CodeInvoiceCardMismatch        = "INVOICE_CARD_MISMATCH"
	CodeCardHasInvoices            = "CARD_HAS_INVOICES"
	CodeExpenseMoving              = "EXPENSE_MOVING"
)

func CardNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeCardNotFound, "Card", id)
}

func InvoiceNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeInvoiceNotFound, "Invoice", id)
}

func ExpenseNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeExpenseNotFound, "Expense", id)
}

func BankAccountNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewNotFoundError(CodeBankAccountNotFound, "Bank account", id)
}

// InvalidAmount rejects non-positive charges
func InvalidAmount(amount fmt.Stringer) *shared.DomainError {
	return shared.NewInvalidInputError(CodeInvalidAmount,
		fmt.Sprintf("Amount must be positive, got %s", amount)).
		WithDetail("amount", amount.String())
}

// CannotModifySettledInvoice rejects expense changes on a CLOSED or PAID invoice
func CannotModifySettledInvoice(inv *Invoice) *shared.DomainError {
	return shared.NewInvalidStateError(CodeCannotModifySettledInvoice,
		fmt.Sprintf("Invoice %s is %s and its expenses can no longer change", inv.ID, inv.Status)).
		WithDetail("invoice_id", inv.ID.String()).
		WithDetail("status", inv.Status.String())
}

// ExpenseMoving is returned when an expense keeps changing card or invoice
// while the ledger tries to lock it
func ExpenseMoving(id uuid.UUID) *shared.DomainError {
	return shared.NewKindError(shared.KindConflict, CodeExpenseMoving,
		fmt.Sprintf("Expense %s was moved by another request, retry the operation", id)).
		WithDetail("expense_id", id.String())
}
