package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// EventPublisher publishes order lifecycle events to the message broker. A
// nil publisher disables eventing without disabling orders.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderService handles business logic related to orders and payment
// confirmation.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	events      EventPublisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, events EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		events:      events,
	}
}

// GetOrdersByUser retrieves all orders placed by userID.
func (s *OrderService) GetOrdersByUser(userID string) ([]models.Order, error) {
	return s.orderRepo.GetByUser(userID)
}

// GetOrderByID retrieves a single order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CreateOrder creates a new pending order for userID from the submitted
// items. Stock is validated here, at order creation, because the client-side
// cart performs no availability checks of its own. Prices come from the
// catalog, not from the request.
func (s *OrderService) CreateOrder(userID string, items []models.OrderItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("an order needs at least one item")
	}

	var totalAmount float64
	var processedItems []models.OrderItem

	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("invalid quantity %d for product %s", item.Quantity, item.ProductID)
		}
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s not found: %w", item.ProductID, err)
		}
		if product.Stock < item.Quantity {
			return nil, fmt.Errorf("insufficient stock for product %s (requested: %d, available: %d)", product.Name, item.Quantity, product.Stock)
		}

		itemPrice := product.Price // Price at the time of order creation
		processedItems = append(processedItems, models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     itemPrice,
		})
		totalAmount += itemPrice * float64(item.Quantity)
	}

	newOrder := &models.Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		Items:       processedItems,
		TotalAmount: totalAmount,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.orderRepo.Create(newOrder); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publishEvent("order.created", newOrder)
	return newOrder, nil
}

// ConfirmPayment marks an order as paid after the payment provider's
// transaction ID has been presented by the client. The order must belong to
// userID and must still be pending.
func (s *OrderService) ConfirmPayment(userID, orderID, transactionID string) (*models.Order, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s does not belong to user %s", orderID, userID)
	}

	if err := s.orderRepo.MarkPaid(orderID, transactionID); err != nil {
		return nil, fmt.Errorf("failed to mark order %s paid: %w", orderID, err)
	}

	paid, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", orderID, err)
	}

	s.publishEvent("order.paid", paid)
	return paid, nil
}

// UpdateOrderStatus updates the status of an existing order. Admin-only at
// the handler level.
func (s *OrderService) UpdateOrderStatus(id string, status string) error {
	validStatuses := map[string]bool{
		models.OrderStatusPending:   true,
		models.OrderStatusPaid:      true,
		models.OrderStatusShipped:   true,
		models.OrderStatusDelivered: true,
		models.OrderStatusCancelled: true,
	}
	if _, ok := validStatuses[status]; !ok {
		return fmt.Errorf("invalid order status: %s", status)
	}

	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		return fmt.Errorf("failed to update order status for order %s: %w", id, err)
	}
	return nil
}

// publishEvent sends an order lifecycle event to the broker. Publish failures
// are logged, never fatal to the order flow.
func (s *OrderService) publishEvent(routingKey string, order *models.Order) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(map[string]interface{}{
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  order.Status,
		"total":   order.TotalAmount,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", routingKey, order.ID, err)
		return
	}
	if err := s.events.Publish("order", routingKey, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", routingKey, order.ID, err)
	}
}
