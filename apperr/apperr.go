// Package apperr defines the error kinds surfaced to API clients.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	Internal Kind = iota
	Validation
	Authentication
	Authorization
	NotFound
	Conflict
	Upstream
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Upstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error codes shared across services.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidCoordinates  = "INVALID_COORDINATES"
	CodeInvalidLocation     = "INVALID_LOCATION"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodePrincipalNotFound   = "PRINCIPAL_NOT_FOUND"
	CodeNotApproved         = "NOT_APPROVED"
	CodeRoleNotAllowed      = "ROLE_NOT_ALLOWED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyAssigned     = "ALREADY_ASSIGNED"
	CodeAlreadyIgnored      = "ALREADY_IGNORED"
	CodeNotAssignedToYou    = "NOT_ASSIGNED_TO_YOU"
	CodeInvalidState        = "INVALID_STATE"
	CodeInvalidOtp          = "INVALID_OTP"
	CodeOtpAttemptsExceeded = "OTP_ATTEMPTS_EXCEEDED"
	CodeOutOfStock          = "OUT_OF_STOCK"
	CodeTooManyItems        = "TOO_MANY_ITEMS"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeDeliveryUnavailable = "DELIVERY_UNAVAILABLE"
	CodeDuplicate           = "DUPLICATE"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidSignature    = "INVALID_SIGNATURE"
	CodeAmountMismatch      = "AMOUNT_MISMATCH"
	CodePaymentAlreadyUsed  = "PAYMENT_ALREADY_USED"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeUpstream            = "UPSTREAM_ERROR"
	CodeInternal            = "INTERNAL_ERROR"
)

// Error is an API-facing error carrying a kind, a stable code and optional details.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// WithDetail returns e with key set in its details.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// New builds an Error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, code, format string, args ...interface{}) *Error {
	return New(kind, code, fmt.Sprintf(format, args...))
}

// Wrap turns an infrastructure failure into an Internal error.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Code: CodeInternal, Message: message, cause: errors.WithStack(err)}
}

// As extracts an *Error from err, wrapping anything else as Internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, "internal server error")
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func Invalid(message string) *Error { return New(Validation, CodeValidation, message) }

func NotFoundf(format string, args ...interface{}) *Error {
	return Newf(NotFound, CodeNotFound, format, args...)
}

func Forbidden(message string) *Error { return New(Authorization, CodeForbidden, message) }
