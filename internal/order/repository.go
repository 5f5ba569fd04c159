package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/money"
	"storefront-be/internal/product"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartClearer empties the source cart inside the checkout transaction.
type CartClearer interface {
	ClearTx(ctx context.Context, exec db.Execer, cartID string, version int) error
}

// StockLedger decrements stock inside the paid transition.
type StockLedger interface {
	Decrement(ctx context.Context, tx db.Execer, lines []product.StockLine) error
}

type Repository interface {
	CreateFromCart(ctx context.Context, o *Order, cartID string, cartVersion int) error
	GetByID(ctx context.Context, id string) (*Order, error)
	SetPaymentResult(ctx context.Context, id string, pr PaymentResult) error
	MarkPaid(ctx context.Context, id string, pr *PaymentResult, paidAt time.Time) error
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error
	ListByUser(ctx context.Context, userID string, page Page) ([]*Order, int, error)
	List(ctx context.Context, page Page) ([]*Order, int, error)
	Summary(ctx context.Context) (*Summary, error)
}

type repository struct {
	db     *sql.DB
	carts  CartClearer
	ledger StockLedger
}

func NewRepository(db *sql.DB, carts CartClearer, ledger StockLedger) Repository {
	return &repository{db: db, carts: carts, ledger: ledger}
}

// CreateFromCart inserts the order and its items and empties the cart in
// one transaction.
func (r *repository) CreateFromCart(ctx context.Context, o *Order, cartID string, cartVersion int) error {
	log := logger.Op(ctx, "repository", "CreateFromCart",
		zap.String("order_id", o.ID),
		zap.String("cart_id", cartID),
	)

	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}

	err = db.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		// 1. Insert order
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (
				id, user_id, shipping_address, payment_method,
				items_price, shipping_price, tax_price, total_price, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			o.ID, o.UserID, address, o.PaymentMethod,
			money.Fixed(o.Prices.ItemsPrice), money.Fixed(o.Prices.ShippingPrice),
			money.Fixed(o.Prices.TaxPrice), money.Fixed(o.Prices.TotalPrice),
			o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		// 2. Insert order items
		for i, item := range o.Items {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (
					order_id, product_id, position, name, slug, image, price, quantity
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`,
				o.ID, item.ProductID, i, item.Name, item.Slug, item.Image,
				money.Fixed(item.Price), item.Quantity,
			)
			if err != nil {
				return fmt.Errorf("insert order item %s: %w", item.ProductID, err)
			}
		}

		// 3. Empty the cart
		return r.carts.ClearTx(ctx, tx, cartID, cartVersion)
	})
	if err != nil {
		log.Error("checkout transaction rolled back", zap.Error(err))
		return err
	}

	return nil
}

const orderColumns = `o.id, o.user_id, o.shipping_address, o.payment_method, o.payment_result,
	o.items_price, o.shipping_price, o.tax_price, o.total_price,
	o.is_paid, o.paid_at, o.is_delivered, o.delivered_at, o.created_at,
	u.name, u.email`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var (
		o           Order
		address     []byte
		result      []byte
		paidAt      sql.NullTime
		deliveredAt sql.NullTime
		buyer       Buyer
	)
	err := row.Scan(
		&o.ID, &o.UserID, &address, &o.PaymentMethod, &result,
		&o.Prices.ItemsPrice, &o.Prices.ShippingPrice, &o.Prices.TaxPrice, &o.Prices.TotalPrice,
		&o.IsPaid, &paidAt, &o.IsDelivered, &deliveredAt, &o.CreatedAt,
		&buyer.Name, &buyer.Email,
	)
	if err != nil {
		return nil, err
	}

	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return nil, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	if len(result) > 0 && string(result) != "null" {
		var pr PaymentResult
		if err := json.Unmarshal(result, &pr); err != nil {
			return nil, fmt.Errorf("decode payment result: %w", err)
		}
		o.PaymentResult = &pr
	}
	if paidAt.Valid {
		o.PaidAt = &paidAt.Time
	}
	if deliveredAt.Valid {
		o.DeliveredAt = &deliveredAt.Time
	}
	o.User = &buyer

	return &o, nil
}

// GetByID returns the order with its items, or nil, nil when absent.
func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	log := logger.Op(ctx, "repository", "GetByID", zap.String("order_id", id))

	o, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load order", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, slug, image, price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		log.Error("failed to load order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Slug, &it.Image, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return o, nil
}

// SetPaymentResult stores the pending provider order id on an unpaid order.
func (r *repository) SetPaymentResult(ctx context.Context, id string, pr PaymentResult) error {
	raw, err := json.Marshal(pr)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_result = $1
		WHERE id = $2 AND is_paid = FALSE
	`, raw, id)
	if err != nil {
		logger.Op(ctx, "repository", "SetPaymentResult", zap.String("order_id", id)).
			Error("failed to store payment result", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyPaid
	}
	return nil
}

// MarkPaid locks the order, refuses a second payment, decrements stock for
// every item and flips the paid flag, all in one transaction. A nil pr
// keeps the stored payment result.
func (r *repository) MarkPaid(ctx context.Context, id string, pr *PaymentResult, paidAt time.Time) error {
	log := logger.Op(ctx, "repository", "MarkPaid", zap.String("order_id", id))

	var result any
	if pr != nil {
		raw, err := json.Marshal(pr)
		if err != nil {
			return err
		}
		result = raw
	}

	err := db.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var isPaid bool
		err := tx.QueryRowContext(ctx, `SELECT is_paid FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&isPaid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if isPaid {
			return ErrAlreadyPaid
		}

		// Product order keeps row locks consistent across concurrent payments.
		rows, err := tx.QueryContext(ctx, `
			SELECT product_id, quantity
			FROM order_items
			WHERE order_id = $1
			ORDER BY product_id
		`, id)
		if err != nil {
			return err
		}

		var lines []product.StockLine
		for rows.Next() {
			var l product.StockLine
			if err := rows.Scan(&l.ProductID, &l.Quantity); err != nil {
				rows.Close()
				return err
			}
			lines = append(lines, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if err := r.ledger.Decrement(ctx, tx, lines); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET is_paid = TRUE, paid_at = $2, payment_result = COALESCE($3, payment_result)
			WHERE id = $1
		`, id, paidAt, result)
		return err
	})
	if err != nil {
		log.Warn("paid transition not applied", zap.Error(err))
		return err
	}

	return nil
}

// MarkDelivered requires a paid order. The first delivery time is kept.
func (r *repository) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	return db.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var isPaid bool
		err := tx.QueryRowContext(ctx, `SELECT is_paid FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&isPaid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if !isPaid {
			return ErrNotYetPaid
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET is_delivered = TRUE, delivered_at = COALESCE(delivered_at, $2)
			WHERE id = $1
		`, id, deliveredAt)
		return err
	})
}

func (r *repository) ListByUser(ctx context.Context, userID string, page Page) ([]*Order, int, error) {
	return r.list(ctx, "ListByUser", "WHERE o.user_id = $1", []any{userID}, page)
}

func (r *repository) List(ctx context.Context, page Page) ([]*Order, int, error) {
	return r.list(ctx, "List", "", nil, page)
}

func (r *repository) list(ctx context.Context, method, where string, args []any, page Page) ([]*Order, int, error) {
	log := logger.Op(ctx, "repository", method, zap.Int("page", page.Page))
	page = page.normalize()

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o `+where, args...).Scan(&total); err != nil {
		log.Error("failed to count orders", zap.Error(err))
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`
		SELECT `+orderColumns+`
		FROM orders o
		JOIN users u ON u.id = o.user_id
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, n+1, n+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.offset())...)
	if err != nil {
		log.Error("failed to list orders", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*Order, 0, page.Limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}

	return orders, total, rows.Err()
}

func (r *repository) Summary(ctx context.Context) (*Summary, error) {
	var (
		s     Summary
		sales decimal.Decimal
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_paid),
			COUNT(*) FILTER (WHERE is_delivered),
			COALESCE(SUM(total_price) FILTER (WHERE is_paid), 0)
		FROM orders
	`).Scan(&s.OrdersCount, &s.PaidCount, &s.DeliveredCount, &sales)
	if err != nil {
		logger.Op(ctx, "repository", "Summary").Error("failed to summarise orders", zap.Error(err))
		return nil, err
	}

	s.TotalSales = money.Fixed(sales)
	return &s, nil
}
