package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/money"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByOwner(ctx context.Context, owner Owner) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Save(ctx context.Context, c *Cart) error
	ClearTx(ctx context.Context, exec db.Execer, cartID string, version int) error
	DeleteBySession(ctx context.Context, sessionCartID string) error
	Transfer(ctx context.Context, sessionCartID, userID string, policy MergePolicy) (*Cart, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const cartColumns = `id, user_id, session_cart_id, items,
	items_price, shipping_price, tax_price, total_price,
	version, created_at, updated_at`

func scanCart(row interface{ Scan(...any) error }) (*Cart, error) {
	var (
		c      Cart
		userID sql.NullString
		items  []byte
	)
	err := row.Scan(
		&c.ID, &userID, &c.SessionCartID, &items,
		&c.Prices.ItemsPrice, &c.Prices.ShippingPrice, &c.Prices.TaxPrice, &c.Prices.TotalPrice,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.UserID = userID.String
	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Items); err != nil {
			return nil, fmt.Errorf("decode cart items: %w", err)
		}
	}

	return &c, nil
}

// GetByOwner returns nil, nil when the owner has no cart. For a signed-in
// owner an unclaimed cart on the same session token is also returned so
// the next save can claim it.
func (r *repository) GetByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	log := logger.Op(ctx, "repository", "GetByOwner",
		zap.String("user_id", owner.UserID),
		zap.String("session_cart_id", owner.SessionCartID),
	)

	var row *sql.Row
	if owner.UserID != "" {
		row = r.db.QueryRowContext(ctx, `
			SELECT `+cartColumns+`
			FROM carts
			WHERE user_id = $1 OR (user_id IS NULL AND session_cart_id = $2)
			ORDER BY (user_id IS NULL)
			LIMIT 1
		`, owner.UserID, owner.SessionCartID)
	} else {
		row = r.db.QueryRowContext(ctx, `
			SELECT `+cartColumns+`
			FROM carts
			WHERE session_cart_id = $1
		`, owner.SessionCartID)
	}

	c, err := scanCart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load cart", zap.Error(err))
		return nil, err
	}

	return c, nil
}

// Create inserts c with version 1. A concurrent insert for the same owner
// surfaces as ErrCartConflict.
func (r *repository) Create(ctx context.Context, c *Cart) error {
	log := logger.Op(ctx, "repository", "Create", zap.String("session_cart_id", c.SessionCartID))

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Version = 1

	items, err := json.Marshal(nonNil(c.Items))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (
			id, user_id, session_cart_id, items,
			items_price, shipping_price, tax_price, total_price, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		c.ID, nullable(c.UserID), c.SessionCartID, items,
		money.Fixed(c.Prices.ItemsPrice), money.Fixed(c.Prices.ShippingPrice),
		money.Fixed(c.Prices.TaxPrice), money.Fixed(c.Prices.TotalPrice),
		c.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			log.Warn("cart created concurrently")
			return ErrCartConflict
		}
		log.Error("failed to insert cart", zap.Error(err))
		return err
	}

	return nil
}

// Save writes items and prices in one statement, guarded by the version
// read with c. On success c.Version is advanced.
func (r *repository) Save(ctx context.Context, c *Cart) error {
	log := logger.Op(ctx, "repository", "Save", zap.String("cart_id", c.ID), zap.Int("version", c.Version))

	items, err := json.Marshal(nonNil(c.Items))
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET user_id = $1, items = $2,
			items_price = $3, shipping_price = $4, tax_price = $5, total_price = $6,
			version = version + 1, updated_at = NOW()
		WHERE id = $7 AND version = $8
	`,
		nullable(c.UserID), items,
		money.Fixed(c.Prices.ItemsPrice), money.Fixed(c.Prices.ShippingPrice),
		money.Fixed(c.Prices.TaxPrice), money.Fixed(c.Prices.TotalPrice),
		c.ID, c.Version,
	)
	if err != nil {
		log.Error("failed to update cart", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		log.Debug("stale cart version")
		return ErrStaleCart
	}

	c.Version++
	return nil
}

// ClearTx empties the cart and zeroes its prices inside exec's transaction.
func (r *repository) ClearTx(ctx context.Context, exec db.Execer, cartID string, version int) error {
	res, err := exec.ExecContext(ctx, `
		UPDATE carts
		SET items = '[]', items_price = 0, shipping_price = 0, tax_price = 0, total_price = 0,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
	`, cartID, version)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleCart
	}
	return nil
}

func (r *repository) DeleteBySession(ctx context.Context, sessionCartID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE session_cart_id = $1`, sessionCartID)
	if err != nil {
		logger.Op(ctx, "repository", "DeleteBySession").Error("failed to delete cart", zap.Error(err))
	}
	return err
}

// Transfer hands the session cart to userID. The user's previous cart, if
// any, is combined through policy and then removed. Returns nil, nil when
// there is no session cart.
func (r *repository) Transfer(ctx context.Context, sessionCartID, userID string, policy MergePolicy) (*Cart, error) {
	log := logger.Op(ctx, "repository", "Transfer",
		zap.String("session_cart_id", sessionCartID),
		zap.String("user_id", userID),
	)

	var out *Cart
	err := db.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		session, err := scanCart(tx.QueryRowContext(ctx, `
			SELECT `+cartColumns+`
			FROM carts
			WHERE session_cart_id = $1
			FOR UPDATE
		`, sessionCartID))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		existing, err := scanCart(tx.QueryRowContext(ctx, `
			SELECT `+cartColumns+`
			FROM carts
			WHERE user_id = $1 AND id <> $2
			FOR UPDATE
		`, userID, session.ID))
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		if existing != nil {
			session.Items = policy.Merge(existing.Items, session.Items)
			if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, existing.ID); err != nil {
				return err
			}
		}

		session.UserID = userID
		session.reprice()

		items, err := json.Marshal(nonNil(session.Items))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE carts
			SET user_id = $1, items = $2,
				items_price = $3, shipping_price = $4, tax_price = $5, total_price = $6,
				version = version + 1, updated_at = NOW()
			WHERE id = $7
		`,
			userID, items,
			money.Fixed(session.Prices.ItemsPrice), money.Fixed(session.Prices.ShippingPrice),
			money.Fixed(session.Prices.TaxPrice), money.Fixed(session.Prices.TotalPrice),
			session.ID,
		)
		if err != nil {
			return err
		}

		session.Version++
		out = session
		return nil
	})
	if err != nil {
		log.Error("cart transfer failed", zap.Error(err))
		return nil, err
	}

	return out, nil
}

func nonNil(items []CartItem) []CartItem {
	if items == nil {
		return []CartItem{}
	}
	return items
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
