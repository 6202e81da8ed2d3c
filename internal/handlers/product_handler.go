package handlers

import (
	"log"

	"mall/internal/models"
	"mall/internal/repositories"
	"mall/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/favorites", h.HandleListFavorites)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Post("/:id/favor", h.HandleFavorProduct)
	productRoutes.Delete("/:id/favor", h.HandleDisfavorProduct)
}

// HandleListProducts lists on-sale products with optional search and ordering.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	opts := repositories.ProductListOptions{
		Search:  c.Query("search"),
		OrderBy: c.Query("order"),
		Limit:   c.QueryInt("limit", 16),
		Offset:  c.QueryInt("offset", 0),
	}
	products, err := h.service.ListProducts(opts)
	if err != nil {
		log.Printf("Error listing products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}

// HandleGetProduct retrieves a single product together with its recent
// reviews.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProduct(productID)
	if err != nil {
		log.Printf("Error getting product %s: %v", productID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}
	reviews, err := h.service.RecentReviews(productID, 10)
	if err != nil {
		log.Printf("Error getting reviews for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product reviews",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"product": product,
		"reviews": reviews,
	})
}

// HandleCreateProduct creates a new product with its SKUs.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product",
			"error":   err.Error(),
		})
	}
	if err := h.service.CreateProduct(&product); err != nil {
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create product",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct updates an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	product.ID = c.Params("id")
	if err := h.service.UpdateProduct(&product); err != nil {
		log.Printf("Error updating product %s: %v", product.ID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not update product",
			"error":   err.Error(),
		})
	}
	return c.JSON(product)
}

// HandleFavorProduct adds a product to the caller's favorites.
func (h *ProductHandler) HandleFavorProduct(c *fiber.Ctx) error {
	if err := h.service.FavorProduct(currentUserID(c), c.Params("id")); err != nil {
		log.Printf("Error favoring product %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not favor product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "favored"})
}

// HandleDisfavorProduct removes a product from the caller's favorites.
func (h *ProductHandler) HandleDisfavorProduct(c *fiber.Ctx) error {
	if err := h.service.DisfavorProduct(currentUserID(c), c.Params("id")); err != nil {
		log.Printf("Error disfavoring product %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not disfavor product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "disfavored"})
}

// HandleListFavorites lists the caller's favorite products.
func (h *ProductHandler) HandleListFavorites(c *fiber.Ctx) error {
	products, err := h.service.ListFavorites(currentUserID(c))
	if err != nil {
		log.Printf("Error listing favorites: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve favorites",
			"error":   err.Error(),
		})
	}
	return c.JSON(products)
}
