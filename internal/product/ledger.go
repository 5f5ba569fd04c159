package product

import (
	"context"
	"fmt"

	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Ledger applies the one-time stock decrement of a paid order. It only
// runs inside the caller's transaction.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Decrement(ctx context.Context, tx db.Execer, lines []StockLine) error {
	log := logger.Op(ctx, "ledger", "Decrement", zap.Int("lines", len(lines)))

	for _, line := range lines {
		if err := l.repo.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			log.Warn("stock decrement failed",
				zap.String("product_id", line.ProductID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err),
			)
			return fmt.Errorf("decrement stock of %s: %w", line.ProductID, err)
		}
	}

	log.Debug("stock decremented")
	return nil
}
