// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
// - base.go: shared columns (id, timestamps, version, tenant)
// - card_ledger.go: cards, card_invoices, card_expenses
// - finance.go: account_payables, bank_accounts, bank_transactions
//
// The tags are portable between PostgreSQL and SQLite so repository tests can
// AutoMigrate the same models into an in-memory database. The PostgreSQL schema
// itself is owned by the SQL files under migrations/.
package models
