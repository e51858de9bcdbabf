package repositories

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// GetByUser returns all orders placed by userID.
func (r *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderList := make([]models.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			orderList = append(orderList, o)
		}
	}
	return orderList, nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s not found", id)
	}
	return &order, nil
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	r.orders[order.ID] = *order
	return nil
}

// UpdateStatus changes the status of an existing order.
func (r *MockOrderRepository) UpdateStatus(id string, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for status update", id)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// MarkPaid transitions an order to paid and records the transaction ID.
func (r *MockOrderRepository) MarkPaid(id string, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s not found for payment", id)
	}
	if order.Status == models.OrderStatusPaid {
		return fmt.Errorf("order with ID %s is already paid", id)
	}
	order.Status = models.OrderStatusPaid
	order.TransactionID = transactionID
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}
