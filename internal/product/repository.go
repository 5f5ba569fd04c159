package product

import (
	"context"
	"database/sql"
	"errors"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	DecrementStock(ctx context.Context, exec db.Execer, productID string, qty int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// GetByID returns nil, nil when the product does not exist.
func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, images, price, stock
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Slug, pq.Array(&p.Images), &p.Price, &p.Stock)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Op(ctx, "repository", "GetByID", zap.String("product_id", id)).
			Error("failed to load product", zap.Error(err))
		return nil, err
	}

	return &p, nil
}

// DecrementStock never lets stock go negative; a short row fails with
// ErrOutOfStock so the enclosing transaction rolls back.
func (r *repository) DecrementStock(ctx context.Context, exec db.Execer, productID string, qty int) error {
	res, err := exec.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1
		WHERE id = $2 AND stock >= $1
	`, qty, productID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOutOfStock
	}
	return nil
}
