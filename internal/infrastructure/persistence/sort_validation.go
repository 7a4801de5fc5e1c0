package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CardSortFields contains allowed sort fields for cards
var CardSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"name":            true,
	"credit_limit":    true,
	"available_limit": true,
	"closing_day":     true,
	"due_day":         true,
}

// InvoiceSortFields contains allowed sort fields for card invoices
var InvoiceSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"reference_month": true,
	"closing_date":    true,
	"due_date":        true,
	"total_amount":    true,
	"status":          true,
	"payment_date":    true,
}

// ExpenseSortFields contains allowed sort fields for card expenses
var ExpenseSortFields = map[string]bool{
	"id":                 true,
	"created_at":         true,
	"updated_at":         true,
	"purchase_date":      true,
	"amount":             true,
	"installment_number": true,
	"category":           true,
	"supplier":           true,
}

// AccountPayableSortFields contains allowed sort fields for account payables
var AccountPayableSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"payable_number": true,
	"amount":         true,
	"due_date":       true,
	"status":         true,
	"paid_at":        true,
}

// BankAccountSortFields contains allowed sort fields for bank accounts
var BankAccountSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"bank_name":  true,
	"balance":    true,
}

// BankTransactionSortFields contains allowed sort fields for bank transactions
var BankTransactionSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"transaction_date": true,
	"amount":           true,
	"type":             true,
	"status":           true,
}
