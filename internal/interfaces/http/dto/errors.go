package dto

import (
	"net/http"
	"strings"
)

// Codes produced by the HTTP layer itself. Domain codes pass through unchanged.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBodyTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeTimeout      = "REQUEST_TIMEOUT"
	ErrCodeFeatureOff   = "FEATURE_DISABLED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	"EMPTY_FILE":       http.StatusBadRequest,
	"SIZE_MISMATCH":    http.StatusBadRequest,
	ErrCodeTimeout:     http.StatusGatewayTimeout,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// authentication
	ErrCodeUnauthorized:   http.StatusUnauthorized,
	"INVALID_TOKEN":       http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"TOKEN_REVOKED":       http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"OFFICE_NOT_FOUND":    http.StatusUnauthorized,

	// authorization and licensing
	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeFeatureOff:     http.StatusForbidden,
	"LICENSE_INVALID":     http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusForbidden,
	"ACCOUNT_PENDING":     http.StatusForbidden,
	"ACCOUNT_INACTIVE":    http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,
	"USER_DEACTIVATED":    http.StatusForbidden,
	"OFFICE_SUSPENDED":    http.StatusForbidden,

	ErrCodeNotFound:   http.StatusNotFound,
	"SESSION_DELETED": http.StatusNotFound,

	ErrCodeConflict:        http.StatusConflict,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"APPOINTMENT_OVERLAP":  http.StatusConflict,
	"DOMAIN_TAKEN":         http.StatusConflict,
	"LAST_ADMIN":           http.StatusConflict,
	"DOSSIER_LOCKED":       http.StatusConflict,

	ErrCodeBodyTooLarge:     http.StatusRequestEntityTooLarge,
	"FILE_TOO_LARGE":        http.StatusRequestEntityTooLarge,
	"UNSUPPORTED_FILE_TYPE": http.StatusUnsupportedMediaType,

	// business rules
	"INVALID_STATE":     http.StatusUnprocessableEntity,
	"INVOICE_NOT_DRAFT": http.StatusUnprocessableEntity,
	"INVOICE_EMPTY":     http.StatusUnprocessableEntity,
	"ENTRY_VOIDED":      http.StatusUnprocessableEntity,
	"SELF_ACTION":       http.StatusUnprocessableEntity,
	"LICENSE_REJECTED":  http.StatusUnprocessableEntity,
	"DOMAIN_MISMATCH":   http.StatusUnprocessableEntity,
	"NO_LICENSE":        http.StatusUnprocessableEntity,

	// upstream services
	"AI_PROVIDER_UNAVAILABLE":    http.StatusBadGateway,
	"LICENSE_SERVER_UNAVAILABLE": http.StatusBadGateway,
	"MAIL_UNAVAILABLE":           http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status for an error code. Unlisted
// INVALID_* codes are validation failures and ALREADY_* codes are
// conflicts; anything else is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// IsKnownCode reports whether code maps to something other than the 500 fallback.
func IsKnownCode(code string) bool {
	return GetHTTPStatus(code) != http.StatusInternalServerError || code == ErrCodeInternal || code == "PASSWORD_HASH_ERROR"
}
