// Development API server for the storefront client. It implements the remote
// REST contract the session and cart managers are written against: cookie
// sessions, catalog browsing, orders, and payment confirmation.
package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// --- Repositories ---
	// DATABASE_DSN=memory runs everything on the in-memory repositories with
	// no database at all, which is handy for client development against a
	// throwaway backend. Orders are in-memory in every mode.
	var (
		userRepo    repositories.UserRepository
		productRepo repositories.ProductRepository
	)
	if cfg.DatabaseDSN == "memory" {
		log.Println("DATABASE_DSN=memory; using in-memory repositories")
		userRepo = repositories.NewMockUserRepository()
		productRepo = repositories.NewMockProductRepository()
	} else {
		db, err := openDatabase(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.User{}, &models.Product{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		userRepo = repositories.NewGORMUserRepository(db)
		productRepo = repositories.NewGORMProductRepository(db)
	}
	orderRepo := repositories.NewMockOrderRepository()

	seedProducts(productRepo)

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		var err error
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
	} else {
		log.Println("RABBITMQ_URL not set; order events disabled")
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret)
	productService := services.NewProductService(productRepo)
	var events services.EventPublisher
	if mqClient != nil {
		events = mqClient
	}
	orderService := services.NewOrderService(orderRepo, productRepo, events)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())

	requireSession := middleware.SessionRequired(authService)
	adminOnly := middleware.AdminOnly()

	api := app.Group("/api")
	userHandler.RegisterRoutes(api, requireSession)
	productHandler.RegisterRoutes(api, requireSession, adminOnly)
	orderHandler.RegisterRoutes(api, requireSession, adminOnly)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Order event consumer ---
	if mqClient != nil {
		go func() {
			log.Println("Starting order event consumer...")
			handler := func(msg amqp.Delivery) error {
				log.Printf("Order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeOrderEvents(handler); consumerErr != nil {
				log.Printf("Failed to start order event consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP server with graceful shutdown ---
	log.Printf("Starting storefront API server on %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase picks the driver from the DSN. An empty DSN runs on a local
// SQLite file; a postgres:// DSN selects PostgreSQL.
func openDatabase(dsn string) (*gorm.DB, error) {
	switch {
	case dsn == "":
		return gorm.Open(sqlite.Open("storefront.db"), &gorm.Config{})
	case strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host="):
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	default:
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
}

// seedProducts populates the catalog with initial data so the storefront has
// something to browse out of the box.
func seedProducts(repo repositories.ProductRepository) {
	existing, err := repo.GetAll()
	if err == nil && len(existing) > 0 {
		return
	}

	products := []models.Product{
		{Name: "Laptop", Description: "High performance laptop", Category: "electronics", Price: 1200.00, Stock: 10, ImageURL: "https://img.example.com/laptop.jpg"},
		{Name: "Keyboard", Description: "Mechanical keyboard", Category: "electronics", Price: 75.00, Stock: 25, ImageURL: "https://img.example.com/keyboard.jpg"},
		{Name: "Mouse", Description: "Ergonomic wireless mouse", Category: "electronics", Price: 25.00, Stock: 50, ImageURL: "https://img.example.com/mouse.jpg"},
		{Name: "Desk Lamp", Description: "Adjustable LED desk lamp", Category: "home", Price: 35.00, Stock: 40, ImageURL: "https://img.example.com/lamp.jpg"},
	}

	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}
