package handlers

import (
	"log"

	"mall/internal/models"
	"mall/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AddressHandler handles HTTP requests for the caller's shipping addresses.
type AddressHandler struct {
	authService *services.AuthService
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(authService *services.AuthService) *AddressHandler {
	return &AddressHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the address routes with the Fiber app.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/addresses", h.HandleCreateAddress)
}

// HandleCreateAddress stores a new shipping address for the caller.
func (h *AddressHandler) HandleCreateAddress(c *fiber.Ctx) error {
	var address models.UserAddress
	if err := c.BodyParser(&address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(&address); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Address, contact and phone are required",
			"error":   err.Error(),
		})
	}

	if err := h.authService.CreateAddress(currentUserID(c), &address); err != nil {
		log.Printf("Error creating address: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create address",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}
