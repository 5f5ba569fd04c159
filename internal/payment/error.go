package payment

import (
	"net/http"

	"storefront-be/internal/apperr"
)

const genericFailure = "Payment failed, please try again"

var (
	ErrRetryable = &apperr.Error{
		Kind:      apperr.KindProvider,
		Code:      apperr.CodeRetryableProvider,
		Message:   genericFailure,
		Retryable: true,
	}
	ErrRejected = apperr.New(apperr.KindProvider, apperr.CodeProviderRejected, genericFailure)

	ErrUnsupportedMethod = apperr.New(apperr.KindValidation, apperr.CodeInvalidInput, "Payment method does not support online payment")
)

// classify wraps a provider failure. status is the HTTP status when the
// provider answered, 0 when the call never got a response (network error
// or timeout).
func classify(err error, status int) error {
	if err == nil {
		return nil
	}
	if status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return ErrRetryable.Wrap(err)
	}
	return ErrRejected.Wrap(err)
}
