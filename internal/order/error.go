package order

import "storefront-be/internal/apperr"

var (
	ErrUnauthenticated = apperr.New(apperr.KindUnauthorized, apperr.CodeUnauthorized, "User is not authenticated")
	ErrForbidden       = apperr.New(apperr.KindUnauthorized, apperr.CodeForbidden, "Not allowed")

	// -- Checkout preconditions --
	ErrCartEmpty            = apperr.New(apperr.KindBusinessRule, apperr.CodeCartEmpty, "Your cart is empty").WithRedirect("/cart")
	ErrMissingAddress       = apperr.New(apperr.KindBusinessRule, apperr.CodeMissingAddress, "No Shipping Address").WithRedirect("/shipping-address")
	ErrMissingPaymentMethod = apperr.New(apperr.KindBusinessRule, apperr.CodeMissingPaymentMethod, "No Payment Method").WithRedirect("/payment-method")
	ErrCartChanged          = apperr.New(apperr.KindBusinessRule, apperr.CodeCartChanged, "Your cart changed, please review it").WithRedirect("/cart")

	// -- Lifecycle --
	ErrOrderNotFound             = apperr.New(apperr.KindNotFound, apperr.CodeOrderNotFound, "Order not found")
	ErrAlreadyPaid               = apperr.New(apperr.KindBusinessRule, apperr.CodeAlreadyPaid, "Order is already paid")
	ErrNotYetPaid                = apperr.New(apperr.KindBusinessRule, apperr.CodeNotYetPaid, "Order is not paid")
	ErrPaymentVerificationFailed = apperr.New(apperr.KindBusinessRule, apperr.CodePaymentVerificationFailed, "Payment verification failed")
)
