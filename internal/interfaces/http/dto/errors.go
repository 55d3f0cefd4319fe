package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUpstream is used when a third-party provider failed
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	ErrCodeAccountLocked      = "ERR_ACCOUNT_LOCKED"
	ErrCodeAccountInactive    = "ERR_ACCOUNT_INACTIVE"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeTokenMaxRefresh    = "ERR_TOKEN_MAX_REFRESH"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeSlotOverlap         = "ERR_SLOT_OVERLAP"
)

// Business rule error codes
const (
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeBusinessRule       = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeEmptyCart          = "ERR_EMPTY_CART"
	ErrCodeUnknownProduct     = "ERR_UNKNOWN_PRODUCT"
	ErrCodeProductUnavailable = "ERR_PRODUCT_UNAVAILABLE"
	ErrCodeSlotUnavailable    = "ERR_SLOT_UNAVAILABLE"
	ErrCodeServiceInactive    = "ERR_SERVICE_INACTIVE"
)

// Availability error codes
const (
	ErrCodePaymentUnavailable = "ERR_PAYMENT_UNAVAILABLE"
	ErrCodeFeatureDisabled    = "ERR_FEATURE_DISABLED"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeUpstream: http.StatusBadGateway,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeAccountLocked:      http.StatusLocked,
	ErrCodeAccountInactive:    http.StatusForbidden,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	ErrCodeTokenMaxRefresh:    http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeSlotOverlap:         http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeEmptyCart:          http.StatusUnprocessableEntity,
	ErrCodeUnknownProduct:     http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable: http.StatusUnprocessableEntity,
	ErrCodeSlotUnavailable:    http.StatusUnprocessableEntity,
	ErrCodeServiceInactive:    http.StatusUnprocessableEntity,

	ErrCodePaymentUnavailable: http.StatusServiceUnavailable,
	ErrCodeFeatureDisabled:    http.StatusServiceUnavailable,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"USER_NOT_FOUND":       ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"INVALID_CREDENTIALS":  ErrCodeInvalidCredentials,
	"ACCOUNT_LOCKED":       ErrCodeAccountLocked,
	"ACCOUNT_INACTIVE":     ErrCodeAccountInactive,
	"TOKEN_EXPIRED":        ErrCodeTokenExpired,
	"TOKEN_INVALID":        ErrCodeTokenInvalid,
	"TOKEN_REVOKED":        ErrCodeTokenRevoked,
	"TOKEN_MAX_REFRESH":    ErrCodeTokenMaxRefresh,
	"EMPTY_CART":           ErrCodeEmptyCart,
	"EMPTY_ORDER":          ErrCodeEmptyCart,
	"UNKNOWN_PRODUCT":      ErrCodeUnknownProduct,
	"PRODUCT_UNAVAILABLE":  ErrCodeProductUnavailable,
	"SLOT_INACTIVE":        ErrCodeSlotUnavailable,
	"SLOT_IN_PAST":         ErrCodeSlotUnavailable,
	"SLOT_OVERLAP":         ErrCodeSlotOverlap,
	"SERVICE_INACTIVE":     ErrCodeServiceInactive,
	"PAYMENT_UNAVAILABLE":  ErrCodePaymentUnavailable,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"TOKEN_ERROR":          ErrCodeInternal,
	"PASSWORD_HASH_ERROR":  ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Field level codes such as INVALID_EMAIL collapse into ERR_INVALID_INPUT;
// codes already in the API format pass through unchanged.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeInvalidInput
	}
	return code
}
