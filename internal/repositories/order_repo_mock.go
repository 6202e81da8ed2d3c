package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"mall/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order with its items.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	order = cloneOrder(order)
	return &order, nil
}

// ListByUser returns all orders of a user, newest first.
func (r *MockOrderRepository) ListByUser(userID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			orders = append(orders, cloneOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// MarkPaid sets paid_at if the order is still open and unpaid.
func (r *MockOrderRepository) MarkPaid(id string, paidAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	if order.PaidAt != nil || order.Closed {
		return false, nil
	}
	order.PaidAt = &paidAt
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// CloseIfUnpaid marks the order closed if payment never arrived.
func (r *MockOrderRepository) CloseIfUnpaid(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	if order.PaidAt != nil || order.Closed {
		return false, nil
	}
	order.Closed = true
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// UpdateShipStatus moves ship_status between two known values.
func (r *MockOrderRepository) UpdateShipStatus(id, from, to string, extra map[string]string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	if order.ShipStatus != from {
		return false, nil
	}
	order.ShipStatus = to
	if len(extra) > 0 {
		if order.Extra == nil {
			order.Extra = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			order.Extra[k] = v
		}
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// ApplyRefund moves refund_status from pending to applied.
func (r *MockOrderRepository) ApplyRefund(id, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	if order.RefundStatus != models.RefundStatusPending {
		return false, nil
	}
	order.RefundStatus = models.RefundStatusApplied
	if order.Extra == nil {
		order.Extra = make(map[string]string, 1)
	}
	order.Extra[models.ExtraRefundReason] = reason
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// SaveReview writes all ratings and marks the order reviewed, or changes
// nothing at all.
func (r *MockOrderRepository) SaveReview(orderID string, reviews []ItemReview, reviewedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", orderID, models.ErrNotFound)
	}
	if order.Reviewed {
		return fmt.Errorf("order %s already reviewed: %w", orderID, models.ErrInvalidState)
	}
	// Validate every item id before mutating anything.
	updated := cloneOrder(order)
	for _, review := range reviews {
		found := false
		for i := range updated.Items {
			if updated.Items[i].ID == review.ItemID {
				rating := review.Rating
				at := reviewedAt
				updated.Items[i].Rating = &rating
				updated.Items[i].Review = review.Review
				updated.Items[i].ReviewedAt = &at
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("item %s does not belong to order %s: %w",
				review.ItemID, orderID, models.ErrInvalidState)
		}
	}
	updated.Reviewed = true
	updated.UpdatedAt = time.Now()
	r.orders[orderID] = updated
	return nil
}

// SoldCountByProduct sums paid amounts for a product.
func (r *MockOrderRepository) SoldCountByProduct(productID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sold := 0
	for _, order := range r.orders {
		if order.PaidAt == nil {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID {
				sold += item.Amount
			}
		}
	}
	return sold, nil
}

// ReviewStatsByProduct averages ratings over reviewed items of a product.
func (r *MockOrderRepository) ReviewStatsByProduct(productID string) (float64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum, count := 0, 0
	for _, order := range r.orders {
		for _, item := range order.Items {
			if item.ProductID == productID && item.ReviewedAt != nil && item.Rating != nil {
				sum += *item.Rating
				count++
			}
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// RecentReviewsByProduct returns the latest reviewed items of a product.
func (r *MockOrderRepository) RecentReviewsByProduct(productID string, limit int) ([]models.OrderItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []models.OrderItem
	for _, order := range r.orders {
		for _, item := range order.Items {
			if item.ProductID == productID && item.ReviewedAt != nil {
				items = append(items, item)
			}
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ReviewedAt.After(*items[j].ReviewedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// cloneOrder deep-copies an order so callers never share item slices or extra
// maps with the store.
func cloneOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	if order.Extra != nil {
		extra := make(map[string]string, len(order.Extra))
		for k, v := range order.Extra {
			extra[k] = v
		}
		order.Extra = extra
	}
	return order
}
