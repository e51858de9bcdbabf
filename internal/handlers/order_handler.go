package handlers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
)

// OrderHandler handles HTTP requests for orders and payment confirmation.
// Every route requires a session; order ownership is enforced per request.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers order and payment routes. requireSession guards
// everything; adminOnly additionally guards status updates.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, requireSession, adminOnly fiber.Handler) {
	orders := router.Group("/orders", requireSession)
	orders.Get("/", h.HandleGetOrders)
	orders.Get("/:id", h.HandleGetOrderByID)
	orders.Post("/", h.HandleCreateOrder)
	orders.Patch("/:id/status", adminOnly, h.HandleUpdateOrderStatus)

	payments := router.Group("/payments", requireSession)
	payments.Post("/confirm", h.HandleConfirmPayment)
}

// HandleGetOrders retrieves the session user's order history.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.service.GetOrdersByUser(middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves one of the session user's orders.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Order with ID %s not found", orderID),
		})
	}

	role, _ := c.Locals("role").(string)
	if order.UserID != middleware.UserID(c) && role != string(models.RoleAdmin) {
		// Hide the order's existence from other users.
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Order with ID %s not found", orderID),
		})
	}
	return c.JSON(order)
}

// CreateOrderRequest represents the request body for order creation.
type CreateOrderRequest struct {
	Items []models.OrderItem `json:"items"`
}

// HandleCreateOrder creates a new pending order from the submitted items.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if len(req.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "At least one item is required for an order",
		})
	}

	order, err := h.service.CreateOrder(middleware.UserID(c), req.Items)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		if strings.Contains(err.Error(), "insufficient stock") || strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "invalid quantity") {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create order",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Order created",
		"order":   order,
	})
}

// ConfirmPaymentRequest represents the request body for payment confirmation.
type ConfirmPaymentRequest struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId"`
}

// HandleConfirmPayment marks an order paid once the client presents the
// payment provider's transaction ID.
func (h *OrderHandler) HandleConfirmPayment(c *fiber.Ctx) error {
	var req ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing payment confirmation body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if req.OrderID == "" || req.TransactionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Order ID and transaction ID are required",
		})
	}

	order, err := h.service.ConfirmPayment(middleware.UserID(c), req.OrderID, req.TransactionID)
	if err != nil {
		log.Printf("Error confirming payment for order %s: %v", req.OrderID, err)
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "does not belong") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order with ID %s not found", req.OrderID),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not confirm payment",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Payment confirmed",
		"order":   order,
	})
}

// HandleUpdateOrderStatus updates the status of an existing order.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")
	var updateData struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		log.Printf("Error parsing request body for status update: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
		})
	}

	if updateData.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Status is required for order status update",
		})
	}

	if err := h.service.UpdateOrderStatus(orderID, updateData.Status); err != nil {
		log.Printf("Error updating order status for order %s: %v", orderID, err)
		if strings.Contains(err.Error(), "not found") || strings.Contains(err.Error(), "invalid order status") {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order update failed: %v", err),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update order status",
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Order %s status updated successfully to %s", orderID, updateData.Status),
	})
}
