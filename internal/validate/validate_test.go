package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type priced struct {
	Name  string `validate:"required,min=1"`
	Price string `validate:"required,currency"`
}

func TestCheck(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Check(priced{Name: "Shirt", Price: "25.00"}))
		assert.NoError(t, Check(priced{Name: "Shirt", Price: "25"}))
	})

	t.Run("bad currency", func(t *testing.T) {
		err := Check(priced{Name: "Shirt", Price: "25.5"})
		assert.True(t, errors.Is(err, ErrInvalid))
		assert.Contains(t, err.Error(), "two decimal places")
	})

	t.Run("missing name", func(t *testing.T) {
		err := Check(priced{Price: "1.00"})
		assert.True(t, errors.Is(err, ErrInvalid))
		assert.Contains(t, err.Error(), "Name")
	})
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("a@b.co", "email"))
	assert.Error(t, Var("nope", "email"))
}
