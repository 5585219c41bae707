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

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// CarSortFields contains allowed sort fields for cars
var CarSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"brand":        true,
	"model":        true,
	"year":         true,
	"price":        true,
	"mileage":      true,
	"availability": true,
}

// RecordSortFields contains allowed sort fields for acquisition records
// (bookings, reservations, purchases).
var RecordSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"car_id":      true,
	"customer_id": true,
	"state":       true,
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"subject_kind": true,
	"customer_id":  true,
	"state":        true,
	"amount":       true,
	"paid_at":      true,
}
