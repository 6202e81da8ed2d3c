package repositories

import (
	"time"

	"mall/internal/models"
)

// ItemReview is one rating+text entry of a review submission, keyed by the
// order item it belongs to.
type ItemReview struct {
	ItemID string `json:"id" validate:"required"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Review string `json:"review" validate:"required"`
}

// OrderRepository defines the interface for order data access. State
// transitions that race with each other (payment vs. auto-close, repeated
// refund applications) are conditional updates whose boolean result reports
// whether this caller won the transition.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	ListByUser(userID string) ([]models.Order, error)

	// MarkPaid sets paid_at if the order is still open and unpaid. Returns
	// false if the order was already paid or closed.
	MarkPaid(id string, paidAt time.Time) (bool, error)
	// CloseIfUnpaid marks the order closed if it is still unpaid. Returns
	// false if the order was already paid or already closed; in that case
	// the caller must perform no side effects.
	CloseIfUnpaid(id string) (bool, error)
	// UpdateShipStatus moves ship_status from one value to another, merging
	// extra into the order's metadata. Returns false if the order was not in
	// the expected from status.
	UpdateShipStatus(id, from, to string, extra map[string]string) (bool, error)
	// ApplyRefund moves refund_status from pending to applied and records the
	// reason. Returns false if a refund was already applied.
	ApplyRefund(id, reason string) (bool, error)
	// SaveReview writes all item ratings and marks the order reviewed in one
	// transaction. Any item id not belonging to the order fails the whole
	// batch with models.ErrInvalidState and nothing is persisted.
	SaveReview(orderID string, reviews []ItemReview, reviewedAt time.Time) error

	// Derived-data queries consumed by the catalog recompute hooks.
	SoldCountByProduct(productID string) (int, error)
	ReviewStatsByProduct(productID string) (rating float64, count int, err error)
	RecentReviewsByProduct(productID string, limit int) ([]models.OrderItem, error)
}
