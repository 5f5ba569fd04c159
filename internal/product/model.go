package product

import "github.com/shopspring/decimal"

type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Slug   string          `json:"slug"`
	Images []string        `json:"images"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
}

// StockLine is one decrement applied by the ledger.
type StockLine struct {
	ProductID string
	Quantity  int
}
