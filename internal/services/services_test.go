package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/models"
	"storefront/internal/resilience"
	"storefront/internal/services/fakeapi"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.NewConfig()
	cfg.APIBaseURL = baseURL
	cfg.HTTPTimeout = 2 * time.Second
	cfg.RetryAttempts = 1
	cfg.RetryDelay = time.Millisecond
	cfg.BreakerThreshold = 3
	cfg.BreakerTimeout = time.Minute
	return cfg
}

func newTestClient(t *testing.T) (*ServiceClient, *fakeapi.Server) {
	t.Helper()
	api := fakeapi.Seeded()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewServiceClient(testConfig(srv.URL + "/")), api
}

func TestLogin(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	u, err := client.Login(ctx, models.LoginRequest{Email: "admin@example.com", Password: "admin", UserType: models.UserTypeAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.UserID)
	assert.True(t, u.IsAdmin())

	_, err = client.Login(ctx, models.LoginRequest{Email: "admin@example.com", Password: "wrong", UserType: models.UserTypeAdmin})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, "Invalid credentials", UserMessage(err))

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnauthorized, remote.StatusCode)
	assert.Equal(t, "POST /login", remote.Op)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	req := models.SignupRequest{Name: "N", Email: "new@example.com", Phone: "1", Password: "p", Address: "A", UserType: models.UserTypeCustomer}
	require.NoError(t, client.Signup(ctx, req))

	err := client.Signup(ctx, req)
	assert.Equal(t, "Email already registered", UserMessage(err))
}

func TestCartRoundTrip(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.AddCartLine(ctx, models.AddCartLineRequest{UserID: 1, ItemID: 5, Quantity: 1}))
	require.NoError(t, client.AddCartLine(ctx, models.AddCartLineRequest{UserID: 1, ItemID: 5, Quantity: 1}))
	require.NoError(t, client.AddCartLine(ctx, models.AddCartLineRequest{UserID: 1, ItemID: 2, Quantity: 1}))

	cart, err := client.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, models.CartLine{ItemID: 2, Name: "Manchow Soup", Price: 90, Quantity: 1, Subtotal: 90}, cart.Lines[0])
	assert.Equal(t, 2, cart.Lines[1].Quantity)
	assert.Equal(t, models.Amount(300), cart.Lines[1].Subtotal)
	assert.Equal(t, models.Amount(390), cart.Total)

	require.NoError(t, client.UpdateCartLine(ctx, 1, models.UpdateCartLineRequest{ItemID: 5, Quantity: 0}))
	assert.Equal(t, 0, api.CartQuantity(1, 5))
}

func TestPlaceOrderAndHistory(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.AddCartLine(ctx, models.AddCartLineRequest{UserID: 1, ItemID: 9, Quantity: 2}))
	id, err := client.PlaceOrder(ctx, models.PlaceOrderRequest{UserID: 1, DeliveryAddress: "221B", PaymentMethod: models.PaymentUPI})
	require.NoError(t, err)
	assert.Positive(t, id)

	orders, err := client.GetOrders(ctx, 1)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].OrderID)
	assert.Equal(t, "upi", orders[0].PaymentMethod())
	assert.Equal(t, models.Amount(360), orders[0].TotalPrice)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Paneer 65", orders[0].Items[0].Name)

	_, err = client.PlaceOrder(ctx, models.PlaceOrderRequest{UserID: 1, DeliveryAddress: "221B", PaymentMethod: models.PaymentCOD})
	assert.Equal(t, "Cart is empty", UserMessage(err))
}

func TestMenuAndAdmin(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	items, err := client.ListMenu(ctx, "Soups")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Manchow Soup", items[0].Name)

	all, err := client.ListMenu(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	id, err := client.AdminAddMenuItem(ctx, models.MenuItemInput{Name: "Lassi", Category: "Beverages", Price: 100, Description: "Sweet"})
	require.NoError(t, err)

	item, err := client.AdminGetMenuItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Lassi", item.Name)
	assert.Equal(t, models.Amount(100), item.Price)

	require.NoError(t, client.AdminUpdateMenuItem(ctx, id, models.MenuItemInput{Name: "Malai Lassi", Category: "Beverages", Price: 120, Description: "Creamy"}))
	item, err = client.AdminGetMenuItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Malai Lassi", item.Name)

	require.NoError(t, client.AdminDeleteMenuItem(ctx, id))
	_, err = client.AdminGetMenuItem(ctx, id)
	assert.Equal(t, "Item not found", UserMessage(err))

	admin, err := client.AdminListMenu(ctx)
	require.NoError(t, err)
	assert.Len(t, admin, 3)
	assert.Equal(t, 1, api.Calls("DELETE /admin/menu/{itemId}"))
}

func TestGetUser(t *testing.T) {
	client, _ := newTestClient(t)

	u, err := client.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", u.Name)
	assert.Equal(t, "221B Park Street", u.Address)

	_, err = client.GetUser(context.Background(), 404)
	assert.Equal(t, "User not found", UserMessage(err))
}

func TestNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html>not found</html>"))
	}))
	defer srv.Close()

	client := NewServiceClient(testConfig(srv.URL))
	_, err := client.ListMenu(context.Background(), "all")
	require.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, "bad status code: 404", UserMessage(err))
}

func TestMissingMessageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	err := NewServiceClient(testConfig(srv.URL)).AddCartLine(context.Background(), models.AddCartLineRequest{UserID: 1, ItemID: 1, Quantity: 1})
	assert.Equal(t, "The request failed. Please try again.", UserMessage(err))
}

func TestServerErrorsOpenCircuit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"Database connection failed"}`))
	}))
	defer srv.Close()

	client := NewServiceClient(testConfig(srv.URL))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := client.GetCart(ctx, 1)
		assert.Equal(t, "Database connection failed", UserMessage(err))
	}

	_, err := client.GetCart(ctx, 1)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientErrorsDoNotOpenCircuit(t *testing.T) {
	client, api := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		api.Fail("GET /cart/{userId}", http.StatusBadRequest, "nope")
		_, err := client.GetCart(ctx, 1)
		assert.Equal(t, "nope", UserMessage(err))
	}
	_, err := client.GetCart(ctx, 1)
	assert.NoError(t, err)
}

func TestRetriesOnlyTransportErrorsOnReads(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","items":[]}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryAttempts = 3
	client := NewServiceClient(cfg)

	items, err := client.ListMenu(context.Background(), "all")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNoRetryByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
	}))
	defer srv.Close()

	_, err := NewServiceClient(testConfig(srv.URL)).ListMenu(context.Background(), "all")
	require.Error(t, err)
	assert.Equal(t, "Could not reach the server. Please try again.", UserMessage(err))
	assert.False(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(1), hits.Load())
}
