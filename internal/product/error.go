package product

import "storefront-be/internal/apperr"

var (
	ErrProductNotFound = apperr.New(apperr.KindNotFound, apperr.CodeProductNotFound, "Product not found")
	ErrOutOfStock      = apperr.New(apperr.KindBusinessRule, apperr.CodeOutOfStock, "Not enough stock")
)
