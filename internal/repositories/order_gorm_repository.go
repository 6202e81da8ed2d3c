package repositories

import (
	"fmt"
	"time"

	"mall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create persists the order and all its items in one transaction.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser retrieves all orders of a user, newest first.
func (r *GORMOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// MarkPaid sets paid_at on a still-open, unpaid order. The conditional WHERE
// makes the payment-vs-auto-close race deterministic: whichever update runs
// first wins, the other matches zero rows.
func (r *GORMOrderRepository) MarkPaid(id string, paidAt time.Time) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND paid_at IS NULL AND closed = ?", id, false).
		Update("paid_at", paidAt)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CloseIfUnpaid marks the order closed if payment never arrived.
func (r *GORMOrderRepository) CloseIfUnpaid(id string) (bool, error) {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND paid_at IS NULL AND closed = ?", id, false).
		Update("closed", true)
	if res.Error != nil {
		return false, fmt.Errorf("failed to close order %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UpdateShipStatus moves ship_status between two known values, merging extra
// metadata (e.g. express company and tracking number) into the order. The
// extra merge needs a read, so the whole move runs in a transaction.
func (r *GORMOrderRepository) UpdateShipStatus(id, from, to string, extra map[string]string) (bool, error) {
	moved := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
			}
			return err
		}
		if order.ShipStatus != from {
			return nil
		}
		if len(extra) > 0 {
			if order.Extra == nil {
				order.Extra = make(map[string]string, len(extra))
			}
			for k, v := range extra {
				order.Extra[k] = v
			}
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND ship_status = ?", id, from).
			Updates(map[string]interface{}{"ship_status": to, "extra": order.Extra})
		if res.Error != nil {
			return res.Error
		}
		moved = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to update ship status for order %s: %w", id, err)
	}
	return moved, nil
}

// ApplyRefund moves refund_status from pending to applied, storing the reason
// in the order's metadata. A second application matches zero rows.
func (r *GORMOrderRepository) ApplyRefund(id, reason string) (bool, error) {
	applied := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
			}
			return err
		}
		if order.RefundStatus != models.RefundStatusPending {
			return nil
		}
		if order.Extra == nil {
			order.Extra = make(map[string]string, 1)
		}
		order.Extra[models.ExtraRefundReason] = reason
		res := tx.Model(&models.Order{}).
			Where("id = ? AND refund_status = ?", id, models.RefundStatusPending).
			Updates(map[string]interface{}{
				"refund_status": models.RefundStatusApplied,
				"extra":         order.Extra,
			})
		if res.Error != nil {
			return res.Error
		}
		applied = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to apply refund for order %s: %w", id, err)
	}
	return applied, nil
}

// SaveReview writes every submitted rating and flips the reviewed flag in one
// transaction. An item id outside the order aborts the transaction, so a
// partially reviewed order can never be observed.
func (r *GORMOrderRepository) SaveReview(orderID string, reviews []ItemReview, reviewedAt time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, review := range reviews {
			rating := review.Rating
			res := tx.Model(&models.OrderItem{}).
				Where("id = ? AND order_id = ?", review.ItemID, orderID).
				Updates(map[string]interface{}{
					"rating":      &rating,
					"review":      review.Review,
					"reviewed_at": reviewedAt,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("item %s does not belong to order %s: %w",
					review.ItemID, orderID, models.ErrInvalidState)
			}
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND reviewed = ?", orderID, false).
			Update("reviewed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s already reviewed: %w", orderID, models.ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save review for order %s: %w", orderID, err)
	}
	return nil
}

// SoldCountByProduct sums the paid amounts of a product across all orders
// with a settled payment.
func (r *GORMOrderRepository) SoldCountByProduct(productID string) (int, error) {
	var sold int64
	err := r.db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.product_id = ? AND orders.paid_at IS NOT NULL", productID).
		Select("COALESCE(SUM(order_items.amount), 0)").
		Scan(&sold).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute sold count for product %s: %w", productID, err)
	}
	return int(sold), nil
}

// ReviewStatsByProduct returns the average rating and review count for a
// product over its reviewed order items.
func (r *GORMOrderRepository) ReviewStatsByProduct(productID string) (float64, int, error) {
	var stats struct {
		Rating float64
		Count  int64
	}
	err := r.db.Model(&models.OrderItem{}).
		Where("product_id = ? AND reviewed_at IS NOT NULL", productID).
		Select("COALESCE(AVG(rating), 0) AS rating, COUNT(*) AS count").
		Scan(&stats).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute review stats for product %s: %w", productID, err)
	}
	return stats.Rating, int(stats.Count), nil
}

// RecentReviewsByProduct returns the latest reviewed order items of a product.
func (r *GORMOrderRepository) RecentReviewsByProduct(productID string, limit int) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.Model(&models.OrderItem{}).
		Where("product_id = ? AND reviewed_at IS NOT NULL", productID).
		Order("reviewed_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for product %s: %w", productID, err)
	}
	return items, nil
}
