package handlers

import (
	"errors"
	"log"

	"mall/internal/models"
	"mall/internal/repositories"
	"mall/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// statusForError maps the domain error taxonomy onto HTTP statuses so the
// caller can react to the specific failure reason.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrCouponUnavailable),
		errors.Is(err, models.ErrCouponExpired),
		errors.Is(err, models.ErrCouponExhausted):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrOutOfStock),
		errors.Is(err, models.ErrInvalidState):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Post("/", h.HandlePlaceOrder)
	orderRoutes.Post("/:id/pay", h.HandleSettlePayment)
	orderRoutes.Post("/:id/ship", h.HandleShip)
	orderRoutes.Post("/:id/received", h.HandleMarkReceived)
	orderRoutes.Post("/:id/review", h.HandleSubmitReview)
	orderRoutes.Post("/:id/refund", h.HandleApplyRefund)
}

// currentUserID pulls the authenticated user id stored by the JWT middleware.
func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

// PlaceOrderRequest is the payload for creating an order.
type PlaceOrderRequest struct {
	AddressID  string                    `json:"address_id" validate:"required"`
	Remark     string                    `json:"remark"`
	Items      []services.PlaceOrderLine `json:"items" validate:"required,min=1,dive"`
	CouponCode string                    `json:"coupon_code"`
}

// HandleListOrders retrieves the caller's orders.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(currentUserID(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrder retrieves a single order owned by the caller.
func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.service.GetOrder(currentUserID(c), c.Params("id"))
	if err != nil {
		log.Printf("Error getting order %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandlePlaceOrder creates a new order.
func (h *OrderHandler) HandlePlaceOrder(c *fiber.Ctx) error {
	var req PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing place order request: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid order request",
			"error":   err.Error(),
		})
	}

	order, err := h.service.PlaceOrder(currentUserID(c), req.AddressID, req.Remark, req.Items, req.CouponCode)
	if err != nil {
		log.Printf("Error placing order: %v", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not place order",
			"error":   err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleSettlePayment records a payment confirmed by the external gateway.
func (h *OrderHandler) HandleSettlePayment(c *fiber.Ctx) error {
	order, err := h.service.SettlePayment(c.Params("id"))
	if err != nil {
		log.Printf("Error settling payment for order %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not settle payment",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// ShipRequest is the payload for marking an order as delivered.
type ShipRequest struct {
	Company    string `json:"company" validate:"required"`
	TrackingNo string `json:"tracking_no" validate:"required"`
}

// HandleShip marks a paid order as delivered with express info.
func (h *OrderHandler) HandleShip(c *fiber.Ctx) error {
	var req ShipRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Company and tracking number are required",
			"error":   err.Error(),
		})
	}

	order, err := h.service.Ship(c.Params("id"), req.Company, req.TrackingNo)
	if err != nil {
		log.Printf("Error shipping order %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not ship order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleMarkReceived confirms delivery of an order.
func (h *OrderHandler) HandleMarkReceived(c *fiber.Ctx) error {
	order, err := h.service.MarkReceived(currentUserID(c), c.Params("id"))
	if err != nil {
		log.Printf("Error marking order %s received: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not mark order as received",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// SubmitReviewRequest is the payload for reviewing an order.
type SubmitReviewRequest struct {
	Reviews []repositories.ItemReview `json:"reviews" validate:"required,min=1,dive"`
}

// HandleSubmitReview records ratings for the order's items.
func (h *OrderHandler) HandleSubmitReview(c *fiber.Ctx) error {
	var req SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid review submission",
			"error":   err.Error(),
		})
	}

	order, err := h.service.SubmitReview(currentUserID(c), c.Params("id"), req.Reviews)
	if err != nil {
		log.Printf("Error reviewing order %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not submit review",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// ApplyRefundRequest is the payload for filing a refund request.
type ApplyRefundRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// HandleApplyRefund files a refund request for a paid order.
func (h *OrderHandler) HandleApplyRefund(c *fiber.Ctx) error {
	var req ApplyRefundRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A refund reason is required",
			"error":   err.Error(),
		})
	}

	order, err := h.service.ApplyRefund(currentUserID(c), c.Params("id"), req.Reason)
	if err != nil {
		log.Printf("Error applying refund for order %s: %v", c.Params("id"), err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Could not apply refund",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}
