package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns defaultField if the input is empty or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY clause
func orderClause(orderBy, orderDir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(orderBy, allowed, defaultField) + " " + ValidateSortOrder(orderDir)
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"sku":        true,
	"name":       true,
	"category":   true,
	"price":      true,
	"stock":      true,
}

// ServiceSortFields contains allowed sort fields for services
var ServiceSortFields = map[string]bool{
	"created_at":       true,
	"name":             true,
	"price":            true,
	"duration_minutes": true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":   true,
	"total_amount": true,
	"status":       true,
}

// BookingSortFields contains allowed sort fields for bookings
var BookingSortFields = map[string]bool{
	"created_at": true,
	"status":     true,
}

// MessageSortFields contains allowed sort fields for contact messages
var MessageSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"email":      true,
}

// DonationSortFields contains allowed sort fields for donations
var DonationSortFields = map[string]bool{
	"created_at": true,
	"amount":     true,
}
