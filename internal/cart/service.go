package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront-be/internal/apperr"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/product"
	"storefront-be/internal/validate"

	"go.uber.org/zap"
)

// maxAttempts bounds optimistic retries of a single mutation.
const maxAttempts = 5

type ProductReader interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

type Service interface {
	GetCart(ctx context.Context, actor auth.Actor) (*Cart, error)
	AddItem(ctx context.Context, actor auth.Actor, in AddItemInput) (*Mutation, error)
	RemoveItem(ctx context.Context, actor auth.Actor, productID string) (*Mutation, error)
	TransferOnSignIn(ctx context.Context, sessionCartID, userID string) error
	DeleteForSession(ctx context.Context, sessionCartID string) error
}

type service struct {
	repo     Repository
	products ProductReader
	policy   MergePolicy
	metrics  *metrics.Pipeline
}

type Option func(*service)

// WithMergePolicy replaces the sign-in merge policy.
func WithMergePolicy(p MergePolicy) Option {
	return func(s *service) { s.policy = p }
}

func WithMetrics(m *metrics.Pipeline) Option {
	return func(s *service) { s.metrics = m }
}

func NewService(repo Repository, products ProductReader, opts ...Option) Service {
	s := &service{repo: repo, products: products, policy: OverridePolicy{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCart returns nil, nil when the actor has no cart yet.
func (s *service) GetCart(ctx context.Context, actor auth.Actor) (*Cart, error) {
	owner := OwnerOf(actor)
	if !owner.Valid() {
		return nil, ErrMissingCartOwner
	}
	return s.repo.GetByOwner(ctx, owner)
}

func (s *service) AddItem(ctx context.Context, actor auth.Actor, in AddItemInput) (*Mutation, error) {
	log := logger.Op(ctx, "service", "AddItem", zap.String("product_id", in.ProductID))

	m, err := s.addItem(ctx, actor, in)
	s.metrics.CartMutation("add", outcome(err))
	if err != nil {
		log.Warn("add to cart failed", zap.Error(err))
		return nil, err
	}

	log.Info("cart updated", zap.String("cart_id", m.Cart.ID))
	return m, nil
}

func (s *service) addItem(ctx context.Context, actor auth.Actor, in AddItemInput) (*Mutation, error) {
	owner := OwnerOf(actor)
	if !owner.Valid() {
		return nil, ErrMissingCartOwner
	}
	if err := validate.Check(in); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := s.repo.GetByOwner(ctx, owner)
		if err != nil {
			return nil, err
		}

		if c == nil {
			if p.Stock < 1 {
				return nil, ErrOutOfStock
			}

			c = &Cart{
				UserID:        owner.UserID,
				SessionCartID: owner.SessionCartID,
				Items:         []CartItem{lineFrom(p)},
			}
			c.reprice()

			err = s.repo.Create(ctx, c)
			if errors.Is(err, ErrCartConflict) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return &Mutation{Cart: c, Message: fmt.Sprintf("%s added to cart", p.Name)}, nil
		}

		msg := fmt.Sprintf("%s added to cart", p.Name)
		if i := c.find(p.ID); i >= 0 {
			if p.Stock < c.Items[i].Quantity+1 {
				return nil, ErrOutOfStock
			}
			c.Items[i].Quantity++
			msg = fmt.Sprintf("%s updated in cart", p.Name)
		} else {
			if p.Stock < 1 {
				return nil, ErrOutOfStock
			}
			c.Items = append(c.Items, lineFrom(p))
		}

		c.claim(owner)
		c.reprice()

		err = s.repo.Save(ctx, c)
		if errors.Is(err, ErrStaleCart) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Mutation{Cart: c, Message: msg}, nil
	}

	return nil, ErrCartBusy
}

func (s *service) RemoveItem(ctx context.Context, actor auth.Actor, productID string) (*Mutation, error) {
	log := logger.Op(ctx, "service", "RemoveItem", zap.String("product_id", productID))

	m, err := s.removeItem(ctx, actor, productID)
	s.metrics.CartMutation("remove", outcome(err))
	if err != nil {
		log.Warn("remove from cart failed", zap.Error(err))
		return nil, err
	}

	log.Info("cart updated", zap.String("cart_id", m.Cart.ID))
	return m, nil
}

func (s *service) removeItem(ctx context.Context, actor auth.Actor, productID string) (*Mutation, error) {
	owner := OwnerOf(actor)
	if !owner.Valid() {
		return nil, ErrMissingCartOwner
	}
	if productID == "" {
		return nil, ErrItemNotFound
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		c, err := s.repo.GetByOwner(ctx, owner)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, ErrCartNotFound
		}

		i := c.find(productID)
		if i < 0 {
			return nil, ErrItemNotFound
		}

		name := c.Items[i].Name
		if c.Items[i].Quantity <= 1 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity--
		}

		c.claim(owner)
		c.reprice()

		err = s.repo.Save(ctx, c)
		if errors.Is(err, ErrStaleCart) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Mutation{Cart: c, Message: fmt.Sprintf("%s removed from cart", name)}, nil
	}

	return nil, ErrCartBusy
}

func (s *service) TransferOnSignIn(ctx context.Context, sessionCartID, userID string) error {
	c, err := s.repo.Transfer(ctx, sessionCartID, userID, s.policy)
	if err != nil {
		return err
	}

	log := logger.Op(ctx, "service", "TransferOnSignIn", zap.String("user_id", userID))
	if c == nil {
		log.Debug("no session cart to transfer")
		return nil
	}

	log.Info("session cart transferred", zap.String("cart_id", c.ID), zap.Int("items", len(c.Items)))
	return nil
}

func (s *service) DeleteForSession(ctx context.Context, sessionCartID string) error {
	return s.repo.DeleteBySession(ctx, sessionCartID)
}

func lineFrom(p *product.Product) CartItem {
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		Image:     image,
		Price:     p.Price,
		Quantity:  1,
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case apperr.As(err) != nil:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}
