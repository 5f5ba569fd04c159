package user

import "encoding/json"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// DefaultName is stored for accounts created without a display name.
	DefaultName = "NO_NAME"
)

type PaymentMethod string

const (
	PaymentPayPal         PaymentMethod = "PayPal"
	PaymentStripe         PaymentMethod = "Stripe"
	PaymentCashOnDelivery PaymentMethod = "CashOnDelivery"
)

var PaymentMethods = []PaymentMethod{PaymentPayPal, PaymentStripe, PaymentCashOnDelivery}

func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

type ShippingAddress struct {
	FullName      string   `json:"fullName" validate:"required,min=3"`
	StreetAddress string   `json:"streetAddress" validate:"required,min=3"`
	City          string   `json:"city" validate:"required,min=3"`
	PostalCode    string   `json:"postalCode" validate:"required,min=3"`
	Country       string   `json:"country" validate:"required,min=3"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
}

type User struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Password      string           `json:"-"`
	Role          string           `json:"role"`
	Address       *ShippingAddress `json:"address,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignUpInput struct {
	Name            string `json:"name" validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,min=6,eqfield=Password"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func scanAddress(raw []byte) (*ShippingAddress, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var a ShippingAddress
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
