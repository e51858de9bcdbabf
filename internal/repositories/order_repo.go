package repositories

import (
	"storefront/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	GetByUser(userID string) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	UpdateStatus(id string, status string) error
	// MarkPaid transitions an order to paid and records the confirmed
	// payment transaction ID.
	MarkPaid(id string, transactionID string) error
}
