// Package apierror provides the error taxonomy shared by services, handlers and
// the console client, plus the standardized error envelopes returned to clients.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure. The string value travels on the wire as
// the envelope "code" so clients can tell failures apart.
type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindInvalidState         Kind = "INVALID_STATE"
	KindIllegalTransition    Kind = "ILLEGAL_TRANSITION"
	KindInsufficientStock    Kind = "INSUFFICIENT_STOCK"
	KindDuplicateAssignment  Kind = "DUPLICATE_ASSIGNMENT"
	KindDuplicateSupervision Kind = "DUPLICATE_SUPERVISION"
	KindDuplicateInvoice     Kind = "DUPLICATE_INVOICE"
	KindSelfSupervision      Kind = "SELF_SUPERVISION"
	KindValidation           Kind = "VALIDATION_ERROR"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindForbidden            Kind = "FORBIDDEN"
	KindInternal             Kind = "INTERNAL"
)

// Error is a classified domain error.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return e.Detail
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of the detail message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInvalidState         = &Error{Kind: KindInvalidState}
	ErrIllegalState         = ErrInvalidState
	ErrIllegalTransition    = &Error{Kind: KindIllegalTransition}
	ErrInsufficientStock    = &Error{Kind: KindInsufficientStock}
	ErrDuplicateAssignment  = &Error{Kind: KindDuplicateAssignment}
	ErrDuplicateSupervision = &Error{Kind: KindDuplicateSupervision}
	ErrDuplicateInvoice     = &Error{Kind: KindDuplicateInvoice}
	ErrSelfSupervision      = &Error{Kind: KindSelfSupervision}
	ErrValidation           = &Error{Kind: KindValidation}
	ErrUnauthorized         = &Error{Kind: KindUnauthorized}
)

// E builds a classified error with a human-readable detail.
func E(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return E(KindNotFound, format, args...) }

func Invalid(format string, args ...any) *Error { return E(KindValidation, format, args...) }

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var kinds = map[Kind]bool{
	KindNotFound: true, KindInvalidState: true, KindIllegalTransition: true,
	KindInsufficientStock: true, KindDuplicateAssignment: true, KindDuplicateSupervision: true,
	KindDuplicateInvoice: true, KindSelfSupervision: true, KindValidation: true,
	KindUnauthorized: true, KindForbidden: true, KindInternal: true,
}

// ParseKind reports whether s is a known kind code, as sent in the
// envelope's code field.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, kinds[k]
}

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidState, KindIllegalTransition, KindInsufficientStock,
		KindDuplicateAssignment, KindDuplicateSupervision, KindDuplicateInvoice,
		KindSelfSupervision:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   Kind   `json:"code,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// FromError renders a classified error as an envelope.
func FromError(e *Error) *APIError {
	return &APIError{Detail: e.Error(), Code: e.Kind}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   Kind              `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Code: KindValidation, Fields: fields}
}
