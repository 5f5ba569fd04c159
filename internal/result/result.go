package result

import (
	"storefront-be/internal/apperr"
)

// Result is the shape every mutating operation hands back to callers.
type Result[T any] struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       *T          `json:"data,omitempty"`
	RedirectTo string      `json:"redirectTo,omitempty"`
	Code       apperr.Code `json:"code,omitempty"`
}

func OK[T any](msg string, data T) Result[T] {
	return Result[T]{Success: true, Message: msg, Data: &data}
}

func Done(msg string) Result[struct{}] {
	return Result[struct{}]{Success: true, Message: msg}
}

func Fail[T any](code apperr.Code, msg string) Result[T] {
	return Result[T]{Success: false, Message: msg, Code: code}
}

// FromError converts an expected outcome into a failed result. Anything
// that is not an *apperr.Error is a fault and is returned unchanged.
func FromError[T any](err error) (Result[T], error) {
	ae := apperr.As(err)
	if ae == nil {
		return Result[T]{}, err
	}

	return Result[T]{
		Success:    false,
		Message:    ae.Message,
		RedirectTo: ae.RedirectTo,
		Code:       ae.Code,
	}, nil
}
