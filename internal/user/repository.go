package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, name, email, hashedPassword, role string) (*User, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdateAddress(ctx context.Context, id string, addr ShippingAddress) error
	UpdatePaymentMethod(ctx context.Context, id string, method PaymentMethod) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = `id, name, email, COALESCE(password, ''), role, address, COALESCE(payment_method, '')`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u       User
		address []byte
		method  string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &address, &method); err != nil {
		return nil, err
	}

	addr, err := scanAddress(address)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	u.Address = addr
	u.PaymentMethod = PaymentMethod(method)

	return &u, nil
}

// GetByID returns nil, nil when the user does not exist.
func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Op(ctx, "repository", "GetByID", zap.String("user_id", id)).
			Error("failed to load user", zap.Error(err))
		return nil, err
	}
	return u, nil
}

// FindByEmail returns nil, nil when no account uses email.
func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Op(ctx, "repository", "FindByEmail").Error("failed to load user", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *repository) Create(ctx context.Context, name, email, hashedPassword, role string) (*User, error) {
	log := logger.Op(ctx, "repository", "Create", zap.String("email", email))

	u := &User{ID: uuid.NewString(), Name: name, Email: email, Password: hashedPassword, Role: role}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, role) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.Password, u.Role,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			log.Warn("email already registered")
			return nil, ErrEmailExists
		}
		log.Error("db: failed to insert user", zap.Error(err))
		return nil, err
	}

	return u, nil
}

func (r *repository) UpdateName(ctx context.Context, id, name string) error {
	return r.exec(ctx, "UpdateName", id,
		`UPDATE users SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
}

func (r *repository) UpdateAddress(ctx context.Context, id string, addr ShippingAddress) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return err
	}
	return r.exec(ctx, "UpdateAddress", id,
		`UPDATE users SET address = $1, updated_at = NOW() WHERE id = $2`, raw, id)
}

func (r *repository) UpdatePaymentMethod(ctx context.Context, id string, method PaymentMethod) error {
	return r.exec(ctx, "UpdatePaymentMethod", id,
		`UPDATE users SET payment_method = $1, updated_at = NOW() WHERE id = $2`, string(method), id)
}

func (r *repository) exec(ctx context.Context, method, id, query string, args ...any) error {
	log := logger.Op(ctx, "repository", method, zap.String("user_id", id))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("db: update failed", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
