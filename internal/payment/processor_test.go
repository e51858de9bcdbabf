package payment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/api"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/payment"
	"storefront/internal/storage"
)

type fakeBackend struct {
	orderCalls   int
	confirmCalls int
	confirmFails bool

	lastConfirm map[string]string
}

func (f *fakeBackend) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		f.orderCalls++
		var req struct {
			Items []models.OrderItem `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		var total float64
		for _, item := range req.Items {
			total += item.Price * float64(item.Quantity)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Order created",
			"order": models.Order{
				ID: "order-1", UserID: "user-1", Items: req.Items,
				TotalAmount: total, Status: models.OrderStatusPending,
			},
		})
	})
	mux.HandleFunc("POST /api/payments/confirm", func(w http.ResponseWriter, r *http.Request) {
		f.confirmCalls++
		json.NewDecoder(r.Body).Decode(&f.lastConfirm)
		if f.confirmFails {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "Could not confirm payment"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Payment confirmed"})
	})
	return httptest.NewServer(mux)
}

func newProcessor(t *testing.T, baseURL string) (*payment.Processor, *cart.Manager) {
	t.Helper()
	client, err := api.NewClient(api.Config{BaseURL: baseURL, Timeout: 2 * time.Second})
	require.NoError(t, err)
	cartManager := cart.NewManager(storage.NewMemoryStore())
	return payment.NewProcessor(client, cartManager, "pk_test_abc", "USD"), cartManager
}

var buyer = &models.User{
	ID: "user-1", FirstName: "Ada", LastName: "Mensah",
	Email: "ada@example.com", PhoneNumber: "+233200000001",
	Role: models.RoleCustomer,
}

func TestProcessor_BeginCheckoutEmptyCart(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.server()
	defer srv.Close()

	p, _ := newProcessor(t, srv.URL)
	charge, res := p.BeginCheckout(context.Background(), buyer)

	assert.False(t, res.Success)
	assert.Nil(t, charge)
	assert.Equal(t, 0, backend.orderCalls, "an empty cart never reaches the server")
}

func TestProcessor_BeginCheckoutRequiresUser(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.server()
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Name: "Laptop", Price: 1200}))

	charge, res := p.BeginCheckout(context.Background(), nil)
	assert.False(t, res.Success)
	assert.Nil(t, charge)
	assert.Equal(t, 0, backend.orderCalls)
}

func TestProcessor_BeginCheckoutBuildsCharge(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.server()
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Name: "Laptop", Price: 1200}))
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-2", Name: "Mouse", Price: 25}))
	require.NoError(t, cartManager.SetQuantity("prod-2", 2))

	charge, res := p.BeginCheckout(context.Background(), buyer)
	require.True(t, res.Success)
	require.NotNil(t, charge)

	assert.Equal(t, "pk_test_abc", charge.PublicKey)
	assert.Equal(t, "order-1", charge.OrderID)
	assert.Equal(t, 1250.0, charge.Amount)
	assert.Equal(t, "USD", charge.Currency)
	assert.Equal(t, "ada@example.com", charge.CustomerEmail)
	assert.Equal(t, "Ada Mensah", charge.CustomerName)
	_, err := uuid.Parse(charge.TxRef)
	assert.NoError(t, err, "the transaction reference is a fresh UUID")

	assert.Equal(t, 2, cartManager.Len(), "checkout must not clear the cart before payment")
}

func TestProcessor_CheckoutSubmitsOneCartSnapshot(t *testing.T) {
	var mu sync.Mutex
	emptySubmissions := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Items []models.OrderItem `json:"items"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		if len(req.Items) == 0 {
			emptySubmissions++
		}
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Order created",
			"order":   models.Order{ID: "order-1", Status: models.OrderStatusPending},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)

	// Race Clear against checkout repeatedly. Whatever the interleaving, the
	// order request must carry the item list that passed the emptiness check,
	// never a later, emptied view of the cart.
	for i := 0; i < 50; i++ {
		require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Name: "Laptop", Price: 1200}))
		done := make(chan struct{})
		go func() {
			cartManager.Clear()
			close(done)
		}()
		p.BeginCheckout(context.Background(), buyer)
		<-done
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, emptySubmissions, "an order request never carries an empty item list")
}

func TestProcessor_CallbackNonSuccessfulStatusNeverConfirms(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.server()
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Price: 10}))

	for _, status := range []string{"failed", "cancelled", "pending", ""} {
		res := p.HandleCallback(context.Background(), "order-1", payment.Callback{
			TransactionID: "tx-1", Status: status,
		})
		assert.False(t, res.Success)
	}
	assert.Equal(t, 0, backend.confirmCalls, "only a successful status reaches the backend")
	assert.Equal(t, 1, cartManager.Len())
}

func TestProcessor_CallbackMissingTransactionID(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.server()
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Price: 10}))

	res := p.HandleCallback(context.Background(), "order-1", payment.Callback{Status: payment.StatusSuccessful})
	assert.False(t, res.Success)
	assert.Equal(t, 0, backend.confirmCalls)
	assert.Equal(t, 1, cartManager.Len())
}

func TestProcessor_CallbackConfirmedClearsCart(t *testing.T) {
	backend := &fakeBackend{}
	srv := backend.server()
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Price: 10}))

	res := p.HandleCallback(context.Background(), "order-1", payment.Callback{
		TransactionID: "tx-99", Status: payment.StatusSuccessful,
	})
	assert.True(t, res.Success)
	assert.Equal(t, 1, backend.confirmCalls)
	assert.Equal(t, "order-1", backend.lastConfirm["orderId"])
	assert.Equal(t, "tx-99", backend.lastConfirm["transactionId"])
	assert.Equal(t, 0, cartManager.Len(), "a confirmed payment clears the cart")
}

func TestProcessor_CallbackConfirmationFailureKeepsCart(t *testing.T) {
	backend := &fakeBackend{confirmFails: true}
	srv := backend.server()
	defer srv.Close()

	p, cartManager := newProcessor(t, srv.URL)
	require.NoError(t, cartManager.Add(models.Product{ID: "prod-1", Price: 10}))

	res := p.HandleCallback(context.Background(), "order-1", payment.Callback{
		TransactionID: "tx-99", Status: payment.StatusSuccessful,
	})
	assert.False(t, res.Success, "provider success without backend confirmation is not a paid order")
	assert.Equal(t, 1, cartManager.Len())
}
