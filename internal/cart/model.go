package cart

import (
	"encoding/json"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/money"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
}

func (i CartItem) UnitPrice() decimal.Decimal { return i.Price }
func (i CartItem) Qty() int                   { return i.Quantity }

// MarshalJSON renders the price with exactly two decimals.
func (i CartItem) MarshalJSON() ([]byte, error) {
	type alias CartItem
	return json.Marshal(struct {
		alias
		Price string `json:"price"`
	}{alias(i), money.Fixed(i.Price)})
}

type Cart struct {
	ID            string
	UserID        string
	SessionCartID string
	Items         []CartItem
	Prices        money.Prices
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	items := c.Items
	if items == nil {
		items = []CartItem{}
	}

	return json.Marshal(struct {
		ID            string     `json:"id"`
		UserID        string     `json:"userId,omitempty"`
		SessionCartID string     `json:"sessionCartId"`
		Items         []CartItem `json:"items"`
		money.PriceStrings
	}{c.ID, c.UserID, c.SessionCartID, items, c.Prices.Strings()})
}

func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

func (c *Cart) find(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// reprice recomputes all four price fields from the items.
func (c *Cart) reprice() {
	c.Prices = money.CalcPrice(c.Items)
}

// claim attaches the cart to an authenticated owner. An anonymous request
// reaching a user's cart through its session token leaves the owner as is.
func (c *Cart) claim(owner Owner) {
	if owner.UserID != "" {
		c.UserID = owner.UserID
	}
}

// Owner identifies whose cart an operation targets. UserID takes
// precedence over SessionCartID when both are set.
type Owner struct {
	UserID        string
	SessionCartID string
}

func OwnerOf(a auth.Actor) Owner {
	return Owner{UserID: a.UserID, SessionCartID: a.SessionCartID}
}

func (o Owner) Valid() bool {
	return o.UserID != "" || o.SessionCartID != ""
}

// AddItemInput is the client's description of the line being added.
// Catalog fields are re-read from the product before they are stored.
type AddItemInput struct {
	ProductID string `json:"productId" validate:"required,min=1"`
	Name      string `json:"name" validate:"required,min=1"`
	Slug      string `json:"slug" validate:"required,min=1"`
	Image     string `json:"image" validate:"required,min=1"`
	Price     string `json:"price" validate:"required,currency"`
	Qty       int    `json:"qty" validate:"gte=0"`
}

// Mutation is the outcome of a successful add or remove.
type Mutation struct {
	Cart    *Cart
	Message string
}
