package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an expected, user-facing outcome. Storage faults are
// never wrapped in an *Error; they travel as plain wrapped errors.
type Kind string

const (
	KindValidation   Kind = "VALIDATION"
	KindNotFound     Kind = "NOT_FOUND"
	KindBusinessRule Kind = "BUSINESS_RULE"
	KindProvider     Kind = "PROVIDER"
	KindUnauthorized Kind = "UNAUTHORIZED"
)

type Code string

const (
	CodeInvalidInput              Code = "INVALID_INPUT"
	CodeNotFound                  Code = "NOT_FOUND"
	CodeProductNotFound           Code = "PRODUCT_NOT_FOUND"
	CodeOrderNotFound             Code = "ORDER_NOT_FOUND"
	CodeOutOfStock                Code = "OUT_OF_STOCK"
	CodeAlreadyPaid               Code = "ALREADY_PAID"
	CodeNotYetPaid                Code = "NOT_YET_PAID"
	CodeCartEmpty                 Code = "CART_EMPTY"
	CodeCartChanged               Code = "CART_CHANGED"
	CodeMissingAddress            Code = "MISSING_ADDRESS"
	CodeMissingPaymentMethod      Code = "MISSING_PAYMENT_METHOD"
	CodePaymentVerificationFailed Code = "PAYMENT_VERIFICATION_FAILED"
	CodeRetryableProvider         Code = "RETRYABLE_PROVIDER_ERROR"
	CodeProviderRejected          Code = "PROVIDER_REJECTED"
	CodeUnauthorized              Code = "UNAUTHORIZED"
	CodeForbidden                 Code = "FORBIDDEN"
)

// Error is an expected outcome that the operation boundary turns into a
// result instead of a fault.
type Error struct {
	Kind       Kind
	Code       Code
	Message    string
	RedirectTo string
	Retryable  bool
	Err        error
}

func New(kind Kind, code Code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by code so a wrapped copy still satisfies errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// WithRedirect returns a copy of e pointing the caller at path.
func (e *Error) WithRedirect(path string) *Error {
	cp := *e
	cp.RedirectTo = path
	return &cp
}

// Wrap returns a copy of e carrying cause for logging.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HTTPStatus maps a kind to the status used by the REST boundary.
func HTTPStatus(err error) int {
	ae := As(err)
	if ae == nil {
		return http.StatusInternalServerError
	}

	switch ae.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		if ae.Code == CodeForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case KindBusinessRule:
		return http.StatusUnprocessableEntity
	case KindProvider:
		if ae.Retryable {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
