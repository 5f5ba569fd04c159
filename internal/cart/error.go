package cart

import (
	"errors"

	"storefront-be/internal/apperr"
)

var (
	ErrCartNotFound     = apperr.New(apperr.KindNotFound, apperr.CodeNotFound, "Cart not found")
	ErrItemNotFound     = apperr.New(apperr.KindNotFound, apperr.CodeNotFound, "Item not found")
	ErrProductNotFound  = apperr.New(apperr.KindNotFound, apperr.CodeProductNotFound, "Product not found")
	ErrOutOfStock       = apperr.New(apperr.KindBusinessRule, apperr.CodeOutOfStock, "Not enough stock")
	ErrMissingCartOwner = apperr.New(apperr.KindValidation, apperr.CodeInvalidInput, "Cart session not found")

	// ErrStaleCart means the row changed since it was read.
	ErrStaleCart = errors.New("cart version conflict")
	// ErrCartConflict means a concurrent request created the same cart.
	ErrCartConflict = errors.New("cart already exists")
	// ErrCartBusy means every retry lost the race.
	ErrCartBusy = errors.New("cart is being modified concurrently")

	// Postgres unique_violation
	PgUniqueViolation = "23505"
)
