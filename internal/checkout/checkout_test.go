package checkout

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/surajkumarsah0/bazar-frontend/internal/api"
	"github.com/surajkumarsah0/bazar-frontend/internal/apitest"
	"github.com/surajkumarsah0/bazar-frontend/internal/cart"
	"github.com/surajkumarsah0/bazar-frontend/internal/domain/model"
	"github.com/surajkumarsah0/bazar-frontend/internal/storage"
)

// =====================
// Helper
// =====================

type fixedSession bool

func (s fixedSession) IsAuthenticated() bool { return bool(s) }

type fixture struct {
	srv     *apitest.Server
	cart    *cart.Engine
	client  *api.Client
	product model.Product
}

func setup(t *testing.T) fixture {
	t.Helper()
	srv := apitest.New(t)
	p := srv.SeedProduct(t, apitest.Product("Momo Steamer", "1250.00", 10))
	u := srv.SeedUser(t, "Sita", "sita@example.com", "secret1", model.RoleCustomer)
	token := srv.TokenFor(t, u.ID)

	return fixture{
		srv:     srv,
		cart:    cart.New(storage.NewMemoryStore(), nil),
		client:  api.New(srv.URL(), api.WithTokenSource(api.TokenFunc(func() string { return token }))),
		product: p,
	}
}

func details() Details {
	return Details{ShippingAddress: "Lazimpat, Kathmandu", Phone: "9801234567"}
}

// =====================
// PlaceOrder
// =====================

func TestPlaceOrder_SuccessClearsCart(t *testing.T) {
	f := setup(t)
	f.cart.AddItem(f.product, 2)

	svc := NewService(f.cart, fixedSession(true), f.client, nil)
	order, err := svc.PlaceOrder(context.Background(), details())
	require.NoError(t, err)

	assert.True(t, f.cart.IsEmpty())
	assert.Equal(t, model.PaymentCashOnDelivery, order.PaymentMethod)
	assert.Equal(t, "2500", order.TotalAmount.String())
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, 8, f.srv.Stock(f.product.ID))
}

func TestPlaceOrder_FailureKeepsCart(t *testing.T) {
	f := setup(t)
	f.cart.AddItem(f.product, 2)
	before := f.cart.Lines()

	f.srv.FailNext(http.MethodPost, "/orders", http.StatusBadRequest, "Insufficient stock")

	svc := NewService(f.cart, fixedSession(true), f.client, nil)
	_, err := svc.PlaceOrder(context.Background(), details())
	require.Error(t, err)

	ae, ok := api.AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Insufficient stock", ae.Message)
	assert.Equal(t, before, f.cart.Lines())
	assert.Empty(t, f.srv.Orders())
}

func TestPlaceOrder_BackendDownKeepsCart(t *testing.T) {
	f := setup(t)
	f.cart.AddItem(f.product, 1)
	f.srv.Close()

	svc := NewService(f.cart, fixedSession(true), f.client, nil)
	_, err := svc.PlaceOrder(context.Background(), details())
	assert.True(t, api.IsTransport(err))
	assert.Equal(t, 1, f.cart.TotalItemCount())
}

func TestPlaceOrder_RequiresSession(t *testing.T) {
	f := setup(t)
	f.cart.AddItem(f.product, 1)

	svc := NewService(f.cart, fixedSession(false), f.client, nil)
	_, err := svc.PlaceOrder(context.Background(), details())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, f.srv.Requests())
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := setup(t)

	svc := NewService(f.cart, fixedSession(true), f.client, nil)
	_, err := svc.PlaceOrder(context.Background(), details())
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Empty(t, f.srv.Requests())
}

func TestPlaceOrder_InvalidDetails(t *testing.T) {
	f := setup(t)
	f.cart.AddItem(f.product, 1)
	svc := NewService(f.cart, fixedSession(true), f.client, nil)

	cases := map[string]Details{
		"no address": {Phone: "98"},
		"no phone":   {ShippingAddress: "Patan"},
		"bad method": {ShippingAddress: "Patan", Phone: "98", PaymentMethod: "Crypto"},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), d)
			assert.ErrorIs(t, err, ErrInvalidDetails)
		})
	}
	assert.Equal(t, 1, f.cart.Len())
	assert.Empty(t, f.srv.Requests())
}

// =====================
// Mock: OrderAPI
// =====================

type MockOrderAPI struct {
	mock.Mock
}

func (m *MockOrderAPI) CreateOrder(ctx context.Context, in model.OrderRequest, key string) (*model.Order, error) {
	args := m.Called(ctx, in, key)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func TestPlaceOrder_RetriesTransportErrorWithSameKey(t *testing.T) {
	c := cart.New(storage.NewMemoryStore(), nil)
	c.AddItem(model.Product{ID: 4, Name: "Tea"}, 3)

	var keys []string
	orders := new(MockOrderAPI)
	orders.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(2)) }).
		Return(nil, &api.TransportError{Method: "POST", URL: "/orders", Err: errors.New("connection reset")}).Once()
	orders.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.String(2)) }).
		Return(&model.Order{ID: 11}, nil).Once()

	svc := NewService(c, fixedSession(true), orders, nil)
	order, err := svc.PlaceOrder(context.Background(), Details{ShippingAddress: "Patan", Phone: "98", PaymentMethod: model.PaymentOnline})
	require.NoError(t, err)
	assert.Equal(t, int64(11), order.ID)
	assert.True(t, c.IsEmpty())

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])

	in := orders.Calls[0].Arguments.Get(1).(model.OrderRequest)
	assert.Equal(t, []model.OrderLine{{ProductID: 4, Quantity: 3}}, in.Items)
	assert.Equal(t, model.PaymentOnline, in.PaymentMethod)
}

func TestPlaceOrder_BackendErrorIsNotRetried(t *testing.T) {
	c := cart.New(storage.NewMemoryStore(), nil)
	c.AddItem(model.Product{ID: 4, Name: "Tea"}, 1)

	orders := new(MockOrderAPI)
	orders.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &api.Error{Status: http.StatusBadRequest, Message: "Insufficient stock"}).Once()

	svc := NewService(c, fixedSession(true), orders, nil)
	_, err := svc.PlaceOrder(context.Background(), Details{ShippingAddress: "Patan", Phone: "98"})
	require.Error(t, err)
	orders.AssertNumberOfCalls(t, "CreateOrder", 1)
	assert.Equal(t, 1, c.Len())
}

func TestPlaceOrder_UnreadableSuccessClearsCart(t *testing.T) {
	c := cart.New(storage.NewMemoryStore(), nil)
	c.AddItem(model.Product{ID: 4, Name: "Tea"}, 2)

	orders := new(MockOrderAPI)
	orders.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &api.DecodeError{Method: "POST", Path: "/orders", Status: http.StatusCreated, Err: errors.New("unexpected EOF")}).Once()

	svc := NewService(c, fixedSession(true), orders, nil)
	order, err := svc.PlaceOrder(context.Background(), Details{ShippingAddress: "Patan", Phone: "98"})
	assert.ErrorIs(t, err, ErrOrderUnconfirmed)
	assert.Nil(t, order)
	orders.AssertNumberOfCalls(t, "CreateOrder", 1)
	assert.True(t, c.IsEmpty())
}
