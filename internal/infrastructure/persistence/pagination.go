package persistence

import (
	"fmt"

	"github.com/foodops/backoffice/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// applyPage applies whitelisted ordering plus limit/offset to query
func applyPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	sortField := ValidateSortField(filter.OrderBy, allowed, defaultField)
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))
	if sortField != "id" {
		// stable pages when the sort column has ties
		query = query.Order("id ASC")
	}
	return query.Limit(filter.Limit()).Offset(filter.Offset())
}

// forUpdate adds a row lock (SELECT ... FOR UPDATE) to query
func forUpdate(query *gorm.DB) *gorm.DB {
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}
