package product

import (
	"context"
	"errors"
	"testing"

	"storefront-be/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*Product)
	return p, args.Error(1)
}

func (m *mockRepo) DecrementStock(ctx context.Context, exec db.Execer, productID string, qty int) error {
	args := m.Called(ctx, exec, productID, qty)
	return args.Error(0)
}

func TestLedger_Decrement(t *testing.T) {
	lines := []StockLine{{ProductID: "p-1", Quantity: 2}, {ProductID: "p-2", Quantity: 1}}

	t.Run("all lines", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("DecrementStock", mock.Anything, mock.Anything, "p-1", 2).Return(nil)
		repo.On("DecrementStock", mock.Anything, mock.Anything, "p-2", 1).Return(nil)

		err := NewLedger(repo).Decrement(context.Background(), nil, lines)
		assert.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("stops at first short line", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("DecrementStock", mock.Anything, mock.Anything, "p-1", 2).Return(ErrOutOfStock)

		err := NewLedger(repo).Decrement(context.Background(), nil, lines)
		assert.True(t, errors.Is(err, ErrOutOfStock))
		repo.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, "p-2", 1)
	})
}
