package order

import (
	"context"
	"errors"
	"time"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/money"
	"storefront-be/internal/payment"
	"storefront-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartReader interface {
	GetCart(ctx context.Context, actor auth.Actor) (*cart.Cart, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type GatewayResolver interface {
	For(method string) (payment.Gateway, error)
}

type Service interface {
	CreateOrder(ctx context.Context, actor auth.Actor) (*Order, error)
	GetOrderByID(ctx context.Context, actor auth.Actor, id string) (*Order, error)
	ListMyOrders(ctx context.Context, actor auth.Actor, page Page) (*OrderList, error)
	ListOrders(ctx context.Context, actor auth.Actor, page Page) (*OrderList, error)
	GetOrderSummary(ctx context.Context, actor auth.Actor) (*Summary, error)

	CreateProviderOrder(ctx context.Context, orderID string) (*ProviderOrder, error)
	ApproveProviderOrder(ctx context.Context, orderID, providerOrderID string) (*Order, error)
	UpdateOrderToPaid(ctx context.Context, orderID string, pr *PaymentResult) (*Order, error)
	UpdateOrderToPaidCOD(ctx context.Context, actor auth.Actor, orderID string) (*Order, error)
	DeliverOrder(ctx context.Context, actor auth.Actor, orderID string) (*Order, error)
}

type service struct {
	repo     Repository
	carts    CartReader
	users    UserReader
	gateways GatewayResolver
	metrics  *metrics.Pipeline
	now      func() time.Time
}

type Option func(*service)

func WithMetrics(m *metrics.Pipeline) Option {
	return func(s *service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(repo Repository, carts CartReader, users UserReader, gateways GatewayResolver, opts ...Option) Service {
	s := &service{repo: repo, carts: carts, users: users, gateways: gateways, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder checks the checkout preconditions in order and turns the
// actor's cart into an order. Prices are copied from the cart.
func (s *service) CreateOrder(ctx context.Context, actor auth.Actor) (*Order, error) {
	log := logger.Op(ctx, "service", "CreateOrder", zap.String("user_id", actor.UserID))

	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	c, err := s.carts.GetCart(ctx, actor)
	if err != nil {
		return nil, err
	}
	if c.Empty() {
		log.Warn("checkout with empty cart")
		return nil, ErrCartEmpty
	}

	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u.Address == nil {
		return nil, ErrMissingAddress
	}
	if u.PaymentMethod == "" {
		return nil, ErrMissingPaymentMethod
	}

	o := &Order{
		ID:              uuid.NewString(),
		UserID:          u.ID,
		ShippingAddress: *u.Address,
		PaymentMethod:   string(u.PaymentMethod),
		Prices:          c.Prices,
		CreatedAt:       s.now().UTC(),
		Items:           make([]OrderItem, 0, len(c.Items)),
		User:            &Buyer{Name: u.Name, Email: u.Email},
	}
	for _, it := range c.Items {
		o.Items = append(o.Items, OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Slug:      it.Slug,
			Image:     it.Image,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	if err := s.repo.CreateFromCart(ctx, o, c.ID, c.Version); err != nil {
		if errors.Is(err, cart.ErrStaleCart) {
			return nil, ErrCartChanged
		}
		return nil, err
	}

	s.metrics.OrderCreated()
	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("total", money.Fixed(o.Prices.TotalPrice)),
	)
	return o, nil
}

// GetOrderByID hides other users' orders from non-admins.
func (s *service) GetOrderByID(ctx context.Context, actor auth.Actor, id string) (*Order, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil || (o.UserID != actor.UserID && !actor.IsAdmin()) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *service) ListMyOrders(ctx context.Context, actor auth.Actor, page Page) (*OrderList, error) {
	if !actor.Authenticated() {
		return nil, ErrUnauthenticated
	}

	page = page.normalize()
	orders, total, err := s.repo.ListByUser(ctx, actor.UserID, page)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: orders, TotalPages: totalPages(total, page.Limit)}, nil
}

func (s *service) ListOrders(ctx context.Context, actor auth.Actor, page Page) (*OrderList, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	page = page.normalize()
	orders, total, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return &OrderList{Orders: orders, TotalPages: totalPages(total, page.Limit)}, nil
}

func (s *service) GetOrderSummary(ctx context.Context, actor auth.Actor) (*Summary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repo.Summary(ctx)
}

// CreateProviderOrder opens a remote order for the order total and stores
// its id as a pending payment result.
func (s *service) CreateProviderOrder(ctx context.Context, orderID string) (*ProviderOrder, error) {
	log := logger.Op(ctx, "service", "CreateProviderOrder", zap.String("order_id", orderID))

	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsPaid {
		return nil, ErrAlreadyPaid
	}

	g, err := s.gateways.For(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	remote, err := g.CreateOrder(ctx, payment.CreateRequest{OrderID: o.ID, Amount: o.Prices.TotalPrice})
	if err != nil {
		log.Warn("provider order not created", zap.String("provider", g.Provider()), zap.Error(err))
		return nil, err
	}

	pending := PaymentResult{ID: remote.ID, PricePaid: "0"}
	if err := s.repo.SetPaymentResult(ctx, o.ID, pending); err != nil {
		return nil, err
	}

	log.Info("provider order created",
		zap.String("provider", g.Provider()),
		zap.String("provider_order_id", remote.ID),
	)
	return &ProviderOrder{
		OrderID:         o.ID,
		Provider:        g.Provider(),
		ProviderOrderID: remote.ID,
		ClientSecret:    remote.ClientSecret,
	}, nil
}

// ApproveProviderOrder captures the remote order and accepts it only when
// the captured id matches the pending one and the status is COMPLETED.
func (s *service) ApproveProviderOrder(ctx context.Context, orderID, providerOrderID string) (*Order, error) {
	log := logger.Op(ctx, "service", "ApproveProviderOrder",
		zap.String("order_id", orderID),
		zap.String("provider_order_id", providerOrderID),
	)

	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if o.PaymentResult == nil || o.PaymentResult.ID == "" || o.PaymentResult.ID != providerOrderID {
		log.Warn("provider order id does not match the pending payment")
		return nil, ErrPaymentVerificationFailed
	}

	g, err := s.gateways.For(o.PaymentMethod)
	if err != nil {
		return nil, err
	}

	captured, err := g.CaptureOrder(ctx, providerOrderID)
	if err != nil {
		s.metrics.PaymentCapture(g.Provider(), metrics.OutcomeError)
		log.Warn("capture failed", zap.Error(err))
		return nil, err
	}

	if captured.Empty() || captured.ID != o.PaymentResult.ID || captured.Status != payment.StatusCompleted {
		s.metrics.PaymentCapture(g.Provider(), metrics.OutcomeRejected)
		status := ""
		if captured != nil {
			status = captured.Status
		}
		log.Warn("capture not verified", zap.String("status", status))
		return nil, ErrPaymentVerificationFailed
	}

	paid, err := s.UpdateOrderToPaid(ctx, o.ID, &PaymentResult{
		ID:           captured.ID,
		Status:       captured.Status,
		EmailAddress: captured.PayerEmail,
		PricePaid:    money.Fixed(captured.Amount),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentCapture(g.Provider(), metrics.OutcomeOK)
	return paid, nil
}

// UpdateOrderToPaid is the single paid transition. A second call fails
// with ErrAlreadyPaid and changes nothing.
func (s *service) UpdateOrderToPaid(ctx context.Context, orderID string, pr *PaymentResult) (*Order, error) {
	log := logger.Op(ctx, "service", "UpdateOrderToPaid", zap.String("order_id", orderID))

	if err := s.repo.MarkPaid(ctx, orderID, pr, s.now().UTC()); err != nil {
		if errors.Is(err, ErrAlreadyPaid) {
			log.Info("order already paid")
		}
		return nil, err
	}

	log.Info("order paid")
	return s.load(ctx, orderID)
}

func (s *service) UpdateOrderToPaidCOD(ctx context.Context, actor auth.Actor, orderID string) (*Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	o, err := s.UpdateOrderToPaid(ctx, orderID, nil)
	if err != nil {
		return nil, err
	}

	s.metrics.PaymentCapture("cod", metrics.OutcomeOK)
	return o, nil
}

func (s *service) DeliverOrder(ctx context.Context, actor auth.Actor, orderID string) (*Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if err := s.repo.MarkDelivered(ctx, orderID, s.now().UTC()); err != nil {
		return nil, err
	}

	logger.Op(ctx, "service", "DeliverOrder", zap.String("order_id", orderID)).Info("order delivered")
	return s.load(ctx, orderID)
}

func (s *service) load(ctx context.Context, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func requireAdmin(actor auth.Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// IsAlreadyPaid reports the idempotent outcome that automated retries
// treat as success.
func IsAlreadyPaid(err error) bool {
	ae := apperr.As(err)
	return ae != nil && ae.Code == apperr.CodeAlreadyPaid
}
