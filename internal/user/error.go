package user

import "storefront-be/internal/apperr"

var (
	ErrInvalidCredentials   = apperr.New(apperr.KindUnauthorized, apperr.CodeUnauthorized, "Invalid email or password")
	ErrUnauthenticated      = apperr.New(apperr.KindUnauthorized, apperr.CodeUnauthorized, "User is not authenticated")
	ErrEmailExists          = apperr.New(apperr.KindBusinessRule, apperr.CodeInvalidInput, "Email already registered")
	ErrUserNotFound         = apperr.New(apperr.KindNotFound, apperr.CodeNotFound, "User not found")
	ErrInvalidPaymentMethod = apperr.New(apperr.KindValidation, apperr.CodeInvalidInput, "Invalid payment method")

	// Postgres unique_violation
	PgUniqueViolation = "23505"
)
