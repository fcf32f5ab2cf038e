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

// orderClause builds a whitelisted ORDER BY expression.
func orderClause(field, dir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(field, allowed, defaultField) + " " + ValidateSortOrder(dir)
}

// UserSortFields contains allowed sort fields for users
var UserSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"username":      true,
	"email":         true,
	"display_name":  true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}

// DossierSortFields contains allowed sort fields for dossiers
var DossierSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"reference":  true,
	"title":      true,
	"deed_type":  true,
	"status":     true,
	"closed_at":  true,
}

// AppointmentSortFields contains allowed sort fields for appointments
var AppointmentSortFields = map[string]bool{
	"created_at": true,
	"start_at":   true,
	"end_at":     true,
	"title":      true,
	"status":     true,
}

// MessageSortFields contains allowed sort fields for mailbox listings
var MessageSortFields = map[string]bool{
	"sent_at": true,
	"subject": true,
	"read_at": true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":  true,
	"updated_at":  true,
	"number":      true,
	"issue_date":  true,
	"due_date":    true,
	"client_name": true,
	"status":      true,
	"gross_total": true,
}

// RepertoriumSortFields contains allowed sort fields for repertorium entries
var RepertoriumSortFields = map[string]bool{
	"number":     true,
	"deed_date":  true,
	"deed_type":  true,
	"title":      true,
	"created_at": true,
}

// ChatSessionSortFields contains allowed sort fields for assistant sessions
var ChatSessionSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}
