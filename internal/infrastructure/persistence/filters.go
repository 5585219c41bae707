package persistence

import (
	"gorm.io/gorm"

	"github.com/dealership/backend/internal/domain/shared"
)

// applyPagination applies validated ordering and pagination to a query.
func applyPagination(query *gorm.DB, filter shared.Filter, sortFields map[string]bool) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, sortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// applyRecordFilters applies the filter keys shared by all acquisition
// record tables.
func applyRecordFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "state":
			query = query.Where("state = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "car_id":
			query = query.Where("car_id = ?", value)
		}
	}
	return query
}
