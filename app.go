package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"mall/internal/handlers"
	"mall/internal/middleware"
	"mall/internal/models"
	"mall/internal/repositories"
	"mall/internal/services"
	"mall/pkg/rabbitmq"
)

// App bundles the wired Fiber application with the services tests and main
// need access to.
type App struct {
	Fiber    *fiber.App
	Orders   *services.OrderService
	Products *services.ProductService
	Auth     *services.AuthService
}

// NewApp wires repositories, services and handlers over the given database
// and broker client. mqClient may be nil; order events are then skipped.
func NewApp(db *gorm.DB, mqClient *rabbitmq.Client) (*App, error) {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserAddress{},
		&models.Product{},
		&models.ProductSku{},
		&models.CouponCode{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Repositories
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	skuRepo := repositories.NewGORMSkuRepository(db)
	couponRepo := repositories.NewGORMCouponRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// A typed nil *rabbitmq.Client must not end up inside the interface.
	var publisher services.EventPublisher
	if mqClient != nil {
		publisher = mqClient
	}

	closeDelay := viper.GetDuration("ORDER_CLOSE_DELAY")
	if closeDelay <= 0 {
		closeDelay = 30 * time.Minute
	}

	// Services
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	productService := services.NewProductService(productRepo, orderRepo)
	orderService := services.NewOrderService(orderRepo, skuRepo, productRepo, userRepo, couponRepo, publisher, closeDelay)

	// Derived catalog data follows the order lifecycle.
	orderService.OnPaid(refreshPerProduct(productService.RefreshSoldCount))
	orderService.OnReviewed(refreshPerProduct(productService.RefreshRating))

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	addressHandler := handlers.NewAddressHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	app.Use(logger.New()) // Request logger

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")

	// Authentication routes (public)
	authHandler.RegisterRoutes(apiV1)

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", middleware.AuthRequired(authService))
	addressHandler.RegisterRoutes(protectedRoutes)
	productHandler.RegisterRoutes(protectedRoutes)
	orderHandler.RegisterRoutes(protectedRoutes)

	return &App{
		Fiber:    app,
		Orders:   orderService,
		Products: productService,
		Auth:     authService,
	}, nil
}

// refreshPerProduct adapts a per-product recompute into an order hook that
// touches each distinct product of the order once.
func refreshPerProduct(refresh func(productID string) error) services.OrderHook {
	return func(order *models.Order) {
		seen := make(map[string]bool, len(order.Items))
		for _, item := range order.Items {
			if seen[item.ProductID] {
				continue
			}
			seen[item.ProductID] = true
			if err := refresh(item.ProductID); err != nil {
				log.Printf("Failed to refresh product %s: %v", item.ProductID, err)
			}
		}
	}
}
