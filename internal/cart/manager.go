// Package cart maintains the client-only shopping cart. The cart never talks
// to the server; stock is checked at order creation, not here. Every mutation
// is persisted synchronously through the storage port so a restart reproduces
// the same line items.
package cart

import (
	"encoding/json"
	"log"
	"sync"

	"storefront/internal/models"
	"storefront/internal/storage"
)

// StorageKey is the fixed key the cart is persisted under.
const StorageKey = "cart"

// envelopeVersion guards the persisted shape. Payloads with a different
// version are dropped rather than migrated.
const envelopeVersion = 1

// envelope is the persisted cart shape.
type envelope struct {
	Version int                   `json:"version"`
	Items   []models.CartLineItem `json:"items"`
}

// Manager holds the cart line items, keyed by product ID.
type Manager struct {
	store storage.Store

	mu    sync.Mutex
	items []models.CartLineItem
}

// NewManager creates a Manager rehydrated from store. A missing, unparseable,
// or wrong-version payload yields an empty cart instead of an error.
func NewManager(store storage.Store) *Manager {
	m := &Manager{store: store}

	data, ok, err := store.Get(StorageKey)
	if err != nil {
		log.Printf("Failed to read persisted cart: %v", err)
		return m
	}
	if !ok {
		return m
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Version != envelopeVersion {
		log.Printf("Discarding unusable persisted cart (version %d)", env.Version)
		return m
	}
	for _, item := range env.Items {
		// Defensive re-clamp; a persisted quantity below 1 is invalid.
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		m.items = append(m.items, item)
	}
	return m
}

// Add puts product in the cart. If a line item with the same product ID
// already exists its quantity goes up by one; otherwise a new line item with
// quantity 1 is appended.
func (m *Manager) Add(product models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ProductID == product.ID {
			m.items[i].Quantity++
			return m.persistLocked()
		}
	}
	m.items = append(m.items, models.CartLineItem{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.Price,
		Quantity:  1,
		ImageRef:  product.ImageURL,
	})
	return m.persistLocked()
}

// Remove deletes the line item for productID. Removing an absent product is
// a no-op.
func (m *Manager) Remove(productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ProductID == productID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return m.persistLocked()
		}
	}
	return nil
}

// SetQuantity sets the quantity for productID, clamped to at least 1. Items
// leave the cart only through Remove or Clear, never by decrementing to zero.
// Setting quantity on an absent product is a no-op.
func (m *Manager) SetQuantity(productID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ProductID == productID {
			m.items[i].Quantity = quantity
			return m.persistLocked()
		}
	}
	return nil
}

// Clear empties the cart. Called after a confirmed payment.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	return m.persistLocked()
}

// Items returns a copy of the current line items.
func (m *Manager) Items() []models.CartLineItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]models.CartLineItem, len(m.items))
	copy(items, m.items)
	return items
}

// Total returns the derived cart total. It is computed on demand, never
// stored.
func (m *Manager) Total() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total float64
	for _, item := range m.items {
		total += item.Subtotal()
	}
	return total
}

// Len returns the number of line items.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// OrderItems converts the cart into order items for checkout.
func (m *Manager) OrderItems() []models.OrderItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]models.OrderItem, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		})
	}
	return items
}

// persistLocked serializes the full line-item list. Callers hold the mutex.
func (m *Manager) persistLocked() error {
	items := m.items
	if items == nil {
		items = []models.CartLineItem{}
	}
	data, err := json.Marshal(envelope{Version: envelopeVersion, Items: items})
	if err != nil {
		return err
	}
	return m.store.Set(StorageKey, data)
}
