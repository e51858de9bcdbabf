package cart_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/storage"
)

var (
	laptop = models.Product{ID: "prod-1", Name: "Laptop", Price: 1200.00, Stock: 10, ImageURL: "https://img.example.com/laptop.jpg"}
	mouse  = models.Product{ID: "prod-2", Name: "Mouse", Price: 25.00, Stock: 50}
)

func TestCartManager_AddCoalescesSameProduct(t *testing.T) {
	m := cart.NewManager(storage.NewMemoryStore())

	assert.NoError(t, m.Add(laptop))
	assert.NoError(t, m.Add(laptop))

	items := m.Items()
	require.Len(t, items, 1, "adding the same product twice must not create two line items")
	assert.Equal(t, "prod-1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1200.00, items[0].UnitPrice)
	assert.Equal(t, laptop.ImageURL, items[0].ImageRef)
}

func TestCartManager_TotalMatchesLineItems(t *testing.T) {
	m := cart.NewManager(storage.NewMemoryStore())

	// An arbitrary mutation sequence; the total must always equal the sum of
	// unit price times quantity, and no quantity may drop below 1.
	assert.NoError(t, m.Add(laptop))
	assert.NoError(t, m.Add(mouse))
	assert.NoError(t, m.Add(mouse))
	assert.NoError(t, m.SetQuantity("prod-1", 3))
	assert.NoError(t, m.Remove("prod-2"))
	assert.NoError(t, m.Add(mouse))
	assert.NoError(t, m.SetQuantity("prod-2", 0)) // clamped to 1

	var expected float64
	for _, item := range m.Items() {
		assert.GreaterOrEqual(t, item.Quantity, 1)
		expected += item.UnitPrice * float64(item.Quantity)
	}
	assert.Equal(t, expected, m.Total())
	assert.Equal(t, 3*1200.00+1*25.00, m.Total())
}

func TestCartManager_RemoveAbsentIsNoop(t *testing.T) {
	m := cart.NewManager(storage.NewMemoryStore())
	assert.NoError(t, m.Add(laptop))

	assert.NoError(t, m.Remove("no-such-product"))
	assert.Equal(t, 1, m.Len())
}

func TestCartManager_SetQuantityClampsToOne(t *testing.T) {
	m := cart.NewManager(storage.NewMemoryStore())
	assert.NoError(t, m.Add(mouse))

	assert.NoError(t, m.SetQuantity("prod-2", -5))
	items := m.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity, "decrement past zero clamps, never removes")

	// Setting quantity on an absent product changes nothing.
	assert.NoError(t, m.SetQuantity("no-such-product", 4))
	assert.Equal(t, 1, m.Len())
}

func TestCartManager_ClearPersistsEmptyList(t *testing.T) {
	store := storage.NewMemoryStore()
	m := cart.NewManager(store)
	assert.NoError(t, m.Add(laptop))
	assert.NoError(t, m.Add(mouse))

	assert.NoError(t, m.Clear())
	assert.Equal(t, 0.0, m.Total())
	assert.Equal(t, 0, m.Len())

	data, ok, err := store.Get(cart.StorageKey)
	require.NoError(t, err)
	require.True(t, ok, "clear must persist, not delete, the cart")
	var persisted struct {
		Items []models.CartLineItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Empty(t, persisted.Items)
}

func TestCartManager_RehydrationRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()

	first := cart.NewManager(store)
	assert.NoError(t, first.Add(laptop))
	assert.NoError(t, first.Add(mouse))
	assert.NoError(t, first.SetQuantity("prod-2", 4))

	second := cart.NewManager(store)
	assert.Equal(t, first.Items(), second.Items())
	assert.Equal(t, first.Total(), second.Total())
}

func TestCartManager_RehydrationClampsPersistedQuantity(t *testing.T) {
	store := storage.NewMemoryStore()
	payload, _ := json.Marshal(map[string]interface{}{
		"version": 1,
		"items": []models.CartLineItem{
			{ProductID: "prod-1", Name: "Laptop", UnitPrice: 1200.00, Quantity: -3},
			{ProductID: "prod-2", Name: "Mouse", UnitPrice: 25.00, Quantity: 2},
		},
	})
	require.NoError(t, store.Set(cart.StorageKey, payload))

	m := cart.NewManager(store)
	items := m.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity, "a persisted quantity below 1 reads back as 1")
	assert.Equal(t, 2, items[1].Quantity)
	assert.Equal(t, 1*1200.00+2*25.00, m.Total())
}

func TestCartManager_CorruptStorageFailsSafeToEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(cart.StorageKey, []byte("{not json")))

	m := cart.NewManager(store)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0.0, m.Total())

	// The manager stays usable after discarding the corrupt payload.
	assert.NoError(t, m.Add(laptop))
	assert.Equal(t, 1, m.Len())
}

func TestCartManager_UnknownVersionDropped(t *testing.T) {
	store := storage.NewMemoryStore()
	payload, _ := json.Marshal(map[string]interface{}{
		"version": 99,
		"items":   []models.CartLineItem{{ProductID: "prod-1", Quantity: 2}},
	})
	require.NoError(t, store.Set(cart.StorageKey, payload))

	m := cart.NewManager(store)
	assert.Equal(t, 0, m.Len())
}

func TestCartManager_OrderItemsMirrorCart(t *testing.T) {
	m := cart.NewManager(storage.NewMemoryStore())
	assert.NoError(t, m.Add(laptop))
	assert.NoError(t, m.Add(mouse))
	assert.NoError(t, m.SetQuantity("prod-1", 2))

	items := m.OrderItems()
	require.Len(t, items, 2)
	assert.Equal(t, models.OrderItem{ProductID: "prod-1", Quantity: 2, Price: 1200.00}, items[0])
	assert.Equal(t, models.OrderItem{ProductID: "prod-2", Quantity: 1, Price: 25.00}, items[1])
}
