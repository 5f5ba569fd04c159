package order

import (
	"encoding/json"
	"time"

	"storefront-be/internal/money"
	"storefront-be/internal/user"

	"github.com/shopspring/decimal"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PaymentResult is what the provider reported for the order. Before
// capture it only carries the provider order id.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	EmailAddress string `json:"email_address"`
	PricePaid    string `json:"pricePaid"`
}

func (p *PaymentResult) Pending() bool {
	return p != nil && p.ID != "" && p.Status == ""
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
}

func (i OrderItem) UnitPrice() decimal.Decimal { return i.Price }
func (i OrderItem) Qty() int                   { return i.Quantity }

func (i OrderItem) MarshalJSON() ([]byte, error) {
	type alias OrderItem
	return json.Marshal(struct {
		alias
		Price string `json:"price"`
	}{alias(i), money.Fixed(i.Price)})
}

type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID              string
	UserID          string
	ShippingAddress user.ShippingAddress
	PaymentMethod   string
	PaymentResult   *PaymentResult
	Prices          money.Prices
	IsPaid          bool
	PaidAt          *time.Time
	IsDelivered     bool
	DeliveredAt     *time.Time
	CreatedAt       time.Time
	Items           []OrderItem
	User            *Buyer
}

func (o *Order) MarshalJSON() ([]byte, error) {
	items := o.Items
	if items == nil {
		items = []OrderItem{}
	}

	return json.Marshal(struct {
		ID              string               `json:"id"`
		UserID          string               `json:"userId"`
		ShippingAddress user.ShippingAddress `json:"shippingAddress"`
		PaymentMethod   string               `json:"paymentMethod"`
		PaymentResult   *PaymentResult       `json:"paymentResult,omitempty"`
		money.PriceStrings
		IsPaid      bool        `json:"isPaid"`
		PaidAt      *time.Time  `json:"paidAt"`
		IsDelivered bool        `json:"isDelivered"`
		DeliveredAt *time.Time  `json:"deliveredAt"`
		CreatedAt   time.Time   `json:"createdAt"`
		Items       []OrderItem `json:"orderItems"`
		User        *Buyer      `json:"user,omitempty"`
	}{
		o.ID, o.UserID, o.ShippingAddress, o.PaymentMethod, o.PaymentResult,
		o.Prices.Strings(),
		o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.CreatedAt,
		items, o.User,
	})
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

type OrderList struct {
	Orders     []*Order `json:"data"`
	TotalPages int      `json:"totalPages"`
}

type Summary struct {
	OrdersCount    int    `json:"ordersCount"`
	PaidCount      int    `json:"paidCount"`
	DeliveredCount int    `json:"deliveredCount"`
	TotalSales     string `json:"totalSales"`
}

// ProviderOrder is the remote order opened for a payment. ClientSecret is
// handed to the browser to confirm a Stripe intent.
type ProviderOrder struct {
	OrderID         string `json:"orderId"`
	Provider        string `json:"provider"`
	ProviderOrderID string `json:"providerOrderId"`
	ClientSecret    string `json:"clientSecret,omitempty"`
}
