package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-be/internal/auth"
	"storefront-be/internal/cart"
	"storefront-be/internal/order"
	"storefront-be/internal/user"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCarts struct{ mock.Mock }

func (m *MockCarts) GetCart(ctx context.Context, actor auth.Actor) (*cart.Cart, error) {
	args := m.Called(ctx, actor)
	c, _ := args.Get(0).(*cart.Cart)
	return c, args.Error(1)
}

func (m *MockCarts) AddItem(ctx context.Context, actor auth.Actor, in cart.AddItemInput) (*cart.Mutation, error) {
	args := m.Called(ctx, actor, in)
	mu, _ := args.Get(0).(*cart.Mutation)
	return mu, args.Error(1)
}

func (m *MockCarts) RemoveItem(ctx context.Context, actor auth.Actor, productID string) (*cart.Mutation, error) {
	args := m.Called(ctx, actor, productID)
	mu, _ := args.Get(0).(*cart.Mutation)
	return mu, args.Error(1)
}

func (m *MockCarts) TransferOnSignIn(ctx context.Context, sessionCartID, userID string) error {
	return m.Called(ctx, sessionCartID, userID).Error(0)
}

func (m *MockCarts) DeleteForSession(ctx context.Context, sessionCartID string) error {
	return m.Called(ctx, sessionCartID).Error(0)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) SignIn(ctx context.Context, in user.SignInInput, sessionCartID string) (*user.AuthResult, error) {
	args := m.Called(ctx, in, sessionCartID)
	r, _ := args.Get(0).(*user.AuthResult)
	return r, args.Error(1)
}

func (m *MockUsers) SignUp(ctx context.Context, in user.SignUpInput, sessionCartID string) (*user.AuthResult, error) {
	args := m.Called(ctx, in, sessionCartID)
	r, _ := args.Get(0).(*user.AuthResult)
	return r, args.Error(1)
}

func (m *MockUsers) SignOut(ctx context.Context, sessionCartID string) error {
	return m.Called(ctx, sessionCartID).Error(0)
}

func (m *MockUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *MockUsers) UpdateAddress(ctx context.Context, actor auth.Actor, addr user.ShippingAddress) error {
	return m.Called(ctx, actor, addr).Error(0)
}

func (m *MockUsers) UpdatePaymentMethod(ctx context.Context, actor auth.Actor, method user.PaymentMethod) error {
	return m.Called(ctx, actor, method).Error(0)
}

type MockOrders struct{ mock.Mock }

func (m *MockOrders) order(args mock.Arguments) (*order.Order, error) {
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrders) CreateOrder(ctx context.Context, actor auth.Actor) (*order.Order, error) {
	return m.order(m.Called(ctx, actor))
}

func (m *MockOrders) GetOrderByID(ctx context.Context, actor auth.Actor, id string) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, id))
}

func (m *MockOrders) ListMyOrders(ctx context.Context, actor auth.Actor, page order.Page) (*order.OrderList, error) {
	args := m.Called(ctx, actor, page)
	l, _ := args.Get(0).(*order.OrderList)
	return l, args.Error(1)
}

func (m *MockOrders) ListOrders(ctx context.Context, actor auth.Actor, page order.Page) (*order.OrderList, error) {
	args := m.Called(ctx, actor, page)
	l, _ := args.Get(0).(*order.OrderList)
	return l, args.Error(1)
}

func (m *MockOrders) GetOrderSummary(ctx context.Context, actor auth.Actor) (*order.Summary, error) {
	args := m.Called(ctx, actor)
	s, _ := args.Get(0).(*order.Summary)
	return s, args.Error(1)
}

func (m *MockOrders) CreateProviderOrder(ctx context.Context, orderID string) (*order.ProviderOrder, error) {
	args := m.Called(ctx, orderID)
	p, _ := args.Get(0).(*order.ProviderOrder)
	return p, args.Error(1)
}

func (m *MockOrders) ApproveProviderOrder(ctx context.Context, orderID, providerOrderID string) (*order.Order, error) {
	return m.order(m.Called(ctx, orderID, providerOrderID))
}

func (m *MockOrders) UpdateOrderToPaid(ctx context.Context, orderID string, pr *order.PaymentResult) (*order.Order, error) {
	return m.order(m.Called(ctx, orderID, pr))
}

func (m *MockOrders) UpdateOrderToPaidCOD(ctx context.Context, actor auth.Actor, orderID string) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, orderID))
}

func (m *MockOrders) DeliverOrder(ctx context.Context, actor auth.Actor, orderID string) (*order.Order, error) {
	return m.order(m.Called(ctx, actor, orderID))
}

type memStore struct{ data map[string]string }

func (s *memStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (s *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.data[key], _ = value.(string)
	return nil
}

func (s *memStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key], _ = value.(string)
	return true, nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *memStore) IdempotencyKey(scope, id string) string { return scope + ":" + id }

type fixture struct {
	carts  *MockCarts
	users  *MockUsers
	orders *MockOrders
	issuer *auth.Issuer
	srv    http.Handler
}

func newFixture(health map[string]HealthCheck) *fixture {
	f := &fixture{
		carts:  new(MockCarts),
		users:  new(MockUsers),
		orders: new(MockOrders),
		issuer: auth.NewIssuer("test-secret", time.Hour),
	}
	h := NewHandler(f.carts, f.users, f.orders, f.issuer, false)
	f.srv = NewRouter(h, RouterConfig{
		Issuer:         f.issuer,
		Idempotency:    &memStore{data: map[string]string{}},
		IdempotencyTTL: time.Hour,
		Metrics:        http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, "# metrics") }),
		Health:         health,
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, actor *auth.Actor, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(auth.SessionCartIDHeader, "sess-1")
	if actor != nil {
		token, err := f.issuer.Sign(auth.Claims{UserID: actor.UserID, Role: actor.Role})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

var (
	anon     = auth.Actor{SessionCartID: "sess-1"}
	shopper  = auth.Actor{UserID: "u-1", Role: user.RoleUser, SessionCartID: "sess-1"}
	operator = auth.Actor{UserID: "a-1", Role: user.RoleAdmin, SessionCartID: "sess-1"}
)

func TestRouter_Cart(t *testing.T) {
	f := newFixture(nil)

	f.carts.On("GetCart", mock.Anything, anon).Return(nil, nil)
	w := f.do(t, http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null\n", w.Body.String())

	c := &cart.Cart{ID: "c-1", SessionCartID: "sess-1"}
	in := cart.AddItemInput{ProductID: "p-1", Name: "Shirt", Slug: "shirt", Image: "/s.jpg", Price: "25.00", Qty: 1}
	f.carts.On("AddItem", mock.Anything, anon, in).Return(&cart.Mutation{Cart: c, Message: "Shirt added to cart"}, nil)

	w = f.do(t, http.MethodPost, "/api/cart/items",
		`{"productId":"p-1","name":"Shirt","slug":"shirt","image":"/s.jpg","price":"25.00","qty":1}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	b := body(t, w)
	assert.Equal(t, true, b["success"])
	assert.Equal(t, "Shirt added to cart", b["message"])

	f.carts.On("RemoveItem", mock.Anything, anon, "p-9").Return(nil, cart.ErrItemNotFound)
	w = f.do(t, http.MethodDelete, "/api/cart/items/p-9", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body(t, w)["success"])

	w = f.do(t, http.MethodPost, "/api/cart/items", `{broken`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CreateOrderRedirect(t *testing.T) {
	f := newFixture(nil)
	f.orders.On("CreateOrder", mock.Anything, shopper).Return(nil, order.ErrMissingAddress)

	w := f.do(t, http.MethodPost, "/api/orders", "", &shopper)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	b := body(t, w)
	assert.Equal(t, "No Shipping Address", b["message"])
	assert.Equal(t, "/shipping-address", b["redirectTo"])
}

func TestRouter_SignIn(t *testing.T) {
	f := newFixture(nil)
	in := user.SignInInput{Email: "ann@x.io", Password: "secret1"}
	f.users.On("SignIn", mock.Anything, in, "sess-1").
		Return(&user.AuthResult{Token: "tok", User: &user.User{ID: "u-1", Email: "ann@x.io"}}, nil)

	w := f.do(t, http.MethodPost, "/api/auth/sign-in", `{"email":"ann@x.io","password":"secret1"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var token *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.AccessTokenCookie {
			token = c
		}
	}
	require.NotNil(t, token)
	assert.Equal(t, "tok", token.Value)
	assert.True(t, token.HttpOnly)
}

func TestRouter_Capture(t *testing.T) {
	f := newFixture(nil)
	paid := &order.Order{ID: "o-1", UserID: "u-1", IsPaid: true}
	f.orders.On("GetOrderByID", mock.Anything, shopper, "o-1").Return(&order.Order{ID: "o-1", UserID: "u-1"}, nil)
	f.orders.On("ApproveProviderOrder", mock.Anything, "o-1", "PP-1").Return(paid, nil).Once()

	first := f.do(t, http.MethodPost, "/api/orders/o-1/capture", `{"providerOrderId":"PP-1"}`, &shopper, "Idempotency-Key", "k-1")
	second := f.do(t, http.MethodPost, "/api/orders/o-1/capture", `{"providerOrderId":"PP-1"}`, &shopper, "Idempotency-Key", "k-1")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	f.orders.AssertNumberOfCalls(t, "ApproveProviderOrder", 1)

	w := f.do(t, http.MethodPost, "/api/orders/o-1/capture", `{}`, &shopper)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_CaptureHidesOtherUsersOrders(t *testing.T) {
	f := newFixture(nil)
	f.orders.On("GetOrderByID", mock.Anything, shopper, "o-2").Return(nil, order.ErrOrderNotFound)

	w := f.do(t, http.MethodPost, "/api/orders/o-2/capture", `{"providerOrderId":"PP-1"}`, &shopper)

	assert.Equal(t, http.StatusNotFound, w.Code)
	f.orders.AssertNotCalled(t, "ApproveProviderOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_Admin(t *testing.T) {
	f := newFixture(nil)
	f.orders.On("UpdateOrderToPaidCOD", mock.Anything, shopper, "o-1").Return(nil, order.ErrForbidden)
	f.orders.On("DeliverOrder", mock.Anything, operator, "o-1").Return(nil, order.ErrNotYetPaid)
	f.orders.On("GetOrderSummary", mock.Anything, operator).
		Return(&order.Summary{OrdersCount: 2, PaidCount: 1, TotalSales: "96.25"}, nil)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/admin/orders/o-1/cod", "", &shopper).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodPost, "/api/admin/orders/o-1/deliver", "", &operator).Code)

	w := f.do(t, http.MethodGet, "/api/admin/orders/summary", "", &operator)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "96.25", body(t, w)["totalSales"])
}

func TestRouter_Faults(t *testing.T) {
	f := newFixture(nil)
	f.orders.On("ListMyOrders", mock.Anything, shopper, order.Page{Page: 2, Limit: 5}).
		Return(nil, errors.New("pq: connection refused"))

	w := f.do(t, http.MethodGet, "/api/orders?page=2&limit=5", "", &shopper)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq:")
}

func TestRouter_Ops(t *testing.T) {
	f := newFixture(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("down") },
	})

	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ok", body(t, w)["postgres"])
	assert.Equal(t, "down", body(t, w)["redis"])

	w = f.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# metrics")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
