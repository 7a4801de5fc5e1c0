package router

import (
	"github.com/foodops/backoffice/internal/interfaces/http/handler"
)

// Handlers bundles the handlers mounted under the API prefix
type Handlers struct {
	Cards    *handler.CardHandler
	Expenses *handler.CardExpenseHandler
	Invoices *handler.CardInvoiceHandler
	Finance  *handler.FinanceHandler
	System   *handler.SystemHandler
}

// LedgerGroups returns the domain groups of the card ledger API
func LedgerGroups(h Handlers) []RouteRegistrar {
	cards := NewDomainGroup("cards", "/cards")
	cards.POST("", h.Cards.CreateCard).
		GET("", h.Cards.ListCards).
		GET("/:id", h.Cards.GetCard).
		PUT("/:id", h.Cards.UpdateCard).
		DELETE("/:id", h.Cards.DeleteCard).
		GET("/:id/reconciliation", h.Cards.Reconcile)

	expenses := NewDomainGroup("card-expenses", "/card-expenses")
	expenses.POST("", h.Expenses.CreateExpense).
		GET("", h.Expenses.ListExpenses).
		GET("/:id", h.Expenses.GetExpense).
		PUT("/:id", h.Expenses.UpdateExpense).
		DELETE("/:id", h.Expenses.DeleteExpense)

	invoices := NewDomainGroup("card-invoices", "/card-invoices")
	invoices.POST("", h.Invoices.OpenInvoice).
		GET("", h.Invoices.ListInvoices).
		GET("/:id", h.Invoices.GetInvoice).
		DELETE("/:id", h.Invoices.DeleteInvoice).
		GET("/:id/expenses", h.Invoices.ListInvoiceExpenses).
		POST("/:id/close", h.Invoices.CloseInvoice).
		POST("/:id/pay", h.Invoices.PayInvoice).
		POST("/:id/unpay", h.Invoices.UnpayInvoice).
		POST("/:id/reopen", h.Invoices.ReopenInvoice)

	bankAccounts := NewDomainGroup("bank-accounts", "/bank-accounts")
	bankAccounts.POST("", h.Finance.CreateBankAccount).
		GET("", h.Finance.ListBankAccounts).
		GET("/:id", h.Finance.GetBankAccount).
		GET("/:id/transactions", h.Finance.ListBankTransactions)

	payables := NewDomainGroup("payables", "/payables")
	payables.GET("", h.Finance.ListPayables).
		GET("/:id", h.Finance.GetPayable)

	groups := []RouteRegistrar{cards, expenses, invoices, bankAccounts, payables}
	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo).
			GET("/ping", h.System.Ping)
		groups = append(groups, system)
	}
	return groups
}
