package user

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "password", "role", "address", "payment_method"}

func TestRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(userCols).AddRow(
			"u-1", "Ann", "ann@x.io", "hash", "user",
			[]byte(`{"fullName":"Ann Lee","streetAddress":"1 Main","city":"Oslo","postalCode":"0150","country":"Norway"}`),
			"PayPal",
		)
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs("u-1").
			WillReturnRows(rows)

		u, err := repo.GetByID(context.Background(), "u-1")
		require.NoError(t, err)
		require.NotNil(t, u.Address)
		assert.Equal(t, "Oslo", u.Address.City)
		assert.Equal(t, PaymentPayPal, u.PaymentMethod)
	})

	t.Run("No address", func(t *testing.T) {
		rows := sqlmock.NewRows(userCols).AddRow("u-2", "Bob", "bob@x.io", "", "user", nil, "")
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs("u-2").
			WillReturnRows(rows)

		u, err := repo.GetByID(context.Background(), "u-2")
		require.NoError(t, err)
		assert.Nil(t, u.Address)
		assert.Equal(t, PaymentMethod(""), u.PaymentMethod)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		u, err := repo.GetByID(context.Background(), "nope")
		assert.NoError(t, err)
		assert.Nil(t, u)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "Ann", "ann@x.io", "hash", RoleUser).
			WillReturnResult(sqlmock.NewResult(0, 1))

		u, err := repo.Create(context.Background(), "Ann", "ann@x.io", "hash", RoleUser)
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, RoleUser, u.Role)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Create(context.Background(), "Ann", "ann@x.io", "hash", RoleUser)
		assert.True(t, errors.Is(err, ErrEmailExists))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Updates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE users SET address").
		WithArgs(sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdateAddress(ctx, "u-1", ShippingAddress{FullName: "Ann Lee"}))

	mock.ExpectExec("UPDATE users SET payment_method").
		WithArgs("Stripe", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.UpdatePaymentMethod(ctx, "u-1", PaymentStripe))

	mock.ExpectExec("UPDATE users SET name").
		WithArgs("ann", "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, errors.Is(repo.UpdateName(ctx, "ghost", "ann"), ErrUserNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}
