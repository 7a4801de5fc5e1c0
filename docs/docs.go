// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/server/main.go --v3.1 -o docs
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "contact": {
            "name": "Back-office team",
            "url": "https://github.com/foodops/backoffice"
        },
        "version": "{{.Version}}"
    },
    "servers": [
        {"url": "{{.Host}}{{.BasePath}}"}
    ],
    "externalDocs": {
        "description": "OpenAPI",
        "url": "https://swagger.io/resources/open-api/"
    },
    "tags": [
        {"name": "cards", "description": "Credit cards and their limits"},
        {"name": "card-expenses", "description": "Purchases charged to a card, split into installments"},
        {"name": "card-invoices", "description": "Monthly invoices and their OPEN, CLOSED and PAID transitions"},
        {"name": "bank-accounts", "description": "Accounts that settle paid invoices"},
        {"name": "payables", "description": "Accounts payable opened by closed invoices"},
        {"name": "system", "description": "Service information"}
    ],
    "paths": {
        "/cards": {
            "get": {"tags": ["cards"], "summary": "List cards", "operationId": "listCards"},
            "post": {"tags": ["cards"], "summary": "Register a card", "operationId": "createCard"}
        },
        "/cards/{id}": {
            "get": {"tags": ["cards"], "summary": "Get a card", "operationId": "getCard"},
            "put": {"tags": ["cards"], "summary": "Update a card", "operationId": "updateCard"},
            "delete": {"tags": ["cards"], "summary": "Delete a card without invoices", "operationId": "deleteCard"}
        },
        "/cards/{id}/reconciliation": {
            "get": {"tags": ["cards"], "summary": "Check stored totals against expenses", "operationId": "reconcileCard"}
        },
        "/card-expenses": {
            "get": {"tags": ["card-expenses"], "summary": "List expenses", "operationId": "listCardExpenses"},
            "post": {"tags": ["card-expenses"], "summary": "Charge an expense", "operationId": "createCardExpense"}
        },
        "/card-expenses/{id}": {
            "get": {"tags": ["card-expenses"], "summary": "Get an expense", "operationId": "getCardExpense"},
            "put": {"tags": ["card-expenses"], "summary": "Update an expense", "operationId": "updateCardExpense"},
            "delete": {"tags": ["card-expenses"], "summary": "Delete an expense", "operationId": "deleteCardExpense"}
        },
        "/card-invoices": {
            "get": {"tags": ["card-invoices"], "summary": "List invoices", "operationId": "listCardInvoices"},
            "post": {"tags": ["card-invoices"], "summary": "Get or open the invoice of a month", "operationId": "openCardInvoice"}
        },
        "/card-invoices/{id}": {
            "get": {"tags": ["card-invoices"], "summary": "Get an invoice", "operationId": "getCardInvoice"},
            "delete": {"tags": ["card-invoices"], "summary": "Delete an unsettled invoice", "operationId": "deleteCardInvoice"}
        },
        "/card-invoices/{id}/expenses": {
            "get": {"tags": ["card-invoices"], "summary": "List the expenses of an invoice", "operationId": "listCardInvoiceExpenses"}
        },
        "/card-invoices/{id}/close": {
            "post": {"tags": ["card-invoices"], "summary": "Close an invoice", "operationId": "closeCardInvoice"}
        },
        "/card-invoices/{id}/pay": {
            "post": {"tags": ["card-invoices"], "summary": "Pay a closed invoice", "operationId": "payCardInvoice"}
        },
        "/card-invoices/{id}/unpay": {
            "post": {"tags": ["card-invoices"], "summary": "Revert an invoice payment", "operationId": "unpayCardInvoice"}
        },
        "/card-invoices/{id}/reopen": {
            "post": {"tags": ["card-invoices"], "summary": "Reopen a closed invoice", "operationId": "reopenCardInvoice"}
        },
        "/bank-accounts": {
            "get": {"tags": ["bank-accounts"], "summary": "List bank accounts", "operationId": "listBankAccounts"},
            "post": {"tags": ["bank-accounts"], "summary": "Open a bank account", "operationId": "createBankAccount"}
        },
        "/bank-accounts/{id}": {
            "get": {"tags": ["bank-accounts"], "summary": "Get a bank account", "operationId": "getBankAccount"}
        },
        "/bank-accounts/{id}/transactions": {
            "get": {"tags": ["bank-accounts"], "summary": "List the transactions of a bank account", "operationId": "listBankTransactions"}
        },
        "/payables": {
            "get": {"tags": ["payables"], "summary": "List account payables", "operationId": "listPayables"}
        },
        "/payables/{id}": {
            "get": {"tags": ["payables"], "summary": "Get an account payable", "operationId": "getPayable"}
        },
        "/system/info": {
            "get": {"tags": ["system"], "summary": "Service name, version and uptime", "operationId": "getSystemInfo"}
        },
        "/system/ping": {
            "get": {"tags": ["system"], "summary": "Liveness probe", "operationId": "ping"}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Card Ledger API",
	Description:      "Credit card expenses, invoices and the bank ledger and payables they settle against.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
