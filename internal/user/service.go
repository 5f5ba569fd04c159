package user

import (
	"context"
	"strings"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/validate"

	"go.uber.org/zap"
)

// CartTransfer moves or drops the anonymous cart around authentication.
type CartTransfer interface {
	TransferOnSignIn(ctx context.Context, sessionCartID, userID string) error
	DeleteForSession(ctx context.Context, sessionCartID string) error
}

type Service interface {
	SignIn(ctx context.Context, in SignInInput, sessionCartID string) (*AuthResult, error)
	SignUp(ctx context.Context, in SignUpInput, sessionCartID string) (*AuthResult, error)
	SignOut(ctx context.Context, sessionCartID string) error
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateAddress(ctx context.Context, actor auth.Actor, addr ShippingAddress) error
	UpdatePaymentMethod(ctx context.Context, actor auth.Actor, method PaymentMethod) error
}

type service struct {
	repo   Repository
	carts  CartTransfer
	issuer *auth.Issuer
}

func NewService(repo Repository, carts CartTransfer, issuer *auth.Issuer) Service {
	return &service{repo: repo, carts: carts, issuer: issuer}
}

func (s *service) SignIn(ctx context.Context, in SignInInput, sessionCartID string) (*AuthResult, error) {
	log := logger.Op(ctx, "service", "SignIn")

	if err := validate.Check(in); err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Password == "" || !CheckPasswordHash(in.Password, u.Password) {
		log.Warn("invalid credentials")
		return nil, ErrInvalidCredentials
	}

	return s.authenticate(ctx, u, auth.TriggerSignIn, sessionCartID)
}

func (s *service) SignUp(ctx context.Context, in SignUpInput, sessionCartID string) (*AuthResult, error) {
	log := logger.Op(ctx, "service", "SignUp")

	if err := validate.Check(in); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.Create(ctx, strings.TrimSpace(in.Name), in.Email, hashed, RoleUser)
	if err != nil {
		return nil, err
	}

	log.Info("user registered", zap.String("user_id", u.ID))

	return s.authenticate(ctx, u, auth.TriggerSignUp, sessionCartID)
}

// authenticate issues the token and hands the session cart over to u.
// Neither the name backfill nor the cart transfer can fail the sign in.
func (s *service) authenticate(ctx context.Context, u *User, trigger auth.Trigger, sessionCartID string) (*AuthResult, error) {
	log := logger.Op(ctx, "service", "authenticate",
		zap.String("user_id", u.ID),
		zap.String("trigger", string(trigger)),
	)

	if u.Name == DefaultName || u.Name == "" {
		u.Name = strings.SplitN(u.Email, "@", 2)[0]
		if err := s.repo.UpdateName(ctx, u.ID, u.Name); err != nil {
			log.Warn("failed to backfill user name", zap.Error(err))
		}
	}

	if sessionCartID != "" && s.carts != nil {
		if err := s.carts.TransferOnSignIn(ctx, sessionCartID, u.ID); err != nil {
			log.Error("cart transfer failed, continuing without it", zap.Error(err))
		}
	}

	claims := auth.ApplyTrigger(auth.Claims{}, auth.TokenEvent{
		Trigger: trigger,
		UserID:  u.ID,
		Role:    u.Role,
		Name:    u.Name,
		Email:   u.Email,
	})

	token, err := s.issuer.Sign(claims)
	if err != nil {
		log.Error("failed to sign token", zap.Error(err))
		return nil, err
	}

	log.Info("signed in")
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) SignOut(ctx context.Context, sessionCartID string) error {
	if sessionCartID == "" || s.carts == nil {
		return nil
	}
	return s.carts.DeleteForSession(ctx, sessionCartID)
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *service) UpdateAddress(ctx context.Context, actor auth.Actor, addr ShippingAddress) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if err := validate.Check(addr); err != nil {
		return err
	}

	if err := s.repo.UpdateAddress(ctx, actor.UserID, addr); err != nil {
		return err
	}

	logger.Op(ctx, "service", "UpdateAddress", zap.String("user_id", actor.UserID)).Info("address updated")
	return nil
}

func (s *service) UpdatePaymentMethod(ctx context.Context, actor auth.Actor, method PaymentMethod) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	if !method.Valid() {
		return ErrInvalidPaymentMethod
	}

	if err := s.repo.UpdatePaymentMethod(ctx, actor.UserID, method); err != nil {
		return err
	}

	logger.Op(ctx, "service", "UpdatePaymentMethod",
		zap.String("user_id", actor.UserID),
		zap.String("method", string(method)),
	).Info("payment method updated")
	return nil
}
