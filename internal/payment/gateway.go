package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	ProviderPayPal = "paypal"
	ProviderStripe = "stripe"

	StatusCompleted = "COMPLETED"
)

// Capture is the provider's view of a captured remote order. It is
// untrusted until the caller has checked ID and Status.
type Capture struct {
	ID         string
	Status     string
	PayerEmail string
	Amount     decimal.Decimal
}

func (c *Capture) Empty() bool {
	return c == nil || (c.ID == "" && c.Status == "")
}

type CreateRequest struct {
	OrderID string
	Amount  decimal.Decimal
}

// RemoteOrder is the provider order opened for a payment. ClientSecret is
// set only by providers whose client confirms the payment itself (Stripe)
// and is never persisted.
type RemoteOrder struct {
	ID           string
	ClientSecret string
}

// Gateway is one payment provider.
type Gateway interface {
	Provider() string
	CreateOrder(ctx context.Context, req CreateRequest) (*RemoteOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (*Capture, error)
}

// Registry selects the gateway for a stored payment method.
type Registry struct {
	byMethod map[string]Gateway
}

func NewRegistry() *Registry {
	return &Registry{byMethod: map[string]Gateway{}}
}

// Register binds method (as stored on the user and order) to g.
func (r *Registry) Register(method string, g Gateway) *Registry {
	r.byMethod[method] = g
	return r
}

func (r *Registry) For(method string) (Gateway, error) {
	g, ok := r.byMethod[method]
	if !ok {
		return nil, ErrUnsupportedMethod.Wrap(fmt.Errorf("no gateway for %q", method))
	}
	return g, nil
}
