package repositories

import (
	"fmt"
	"sync"
	"time"

	"mall/internal/models"

	"github.com/google/uuid"
)

// MockCouponRepository is an in-memory implementation of CouponRepository.
type MockCouponRepository struct {
	coupons map[string]models.CouponCode // keyed by code
	mu      sync.RWMutex
}

// NewMockCouponRepository creates a new instance of MockCouponRepository.
func NewMockCouponRepository() *MockCouponRepository {
	return &MockCouponRepository{
		coupons: make(map[string]models.CouponCode),
	}
}

// GetByCode returns a coupon by its code string.
func (r *MockCouponRepository) GetByCode(code string) (*models.CouponCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return nil, fmt.Errorf("coupon %s: %w", code, models.ErrCouponUnavailable)
	}
	return &coupon, nil
}

// Create adds a new coupon code.
func (r *MockCouponRepository) Create(coupon *models.CouponCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
	}
	r.coupons[coupon.Code] = *coupon
	return nil
}

// ReserveUsage checks availability and increments the used count under one
// lock, the in-memory equivalent of the conditional UPDATE.
func (r *MockCouponRepository) ReserveUsage(code string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return fmt.Errorf("coupon %s: %w", code, models.ErrCouponUnavailable)
	}
	if err := coupon.CheckAvailable(now); err != nil {
		return fmt.Errorf("coupon %s: %w", code, err)
	}
	coupon.Used++
	r.coupons[code] = coupon
	return nil
}

// ReleaseUsage decrements the used count.
func (r *MockCouponRepository) ReleaseUsage(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	coupon, ok := r.coupons[code]
	if !ok {
		return fmt.Errorf("coupon %s: %w", code, models.ErrCouponUnavailable)
	}
	if coupon.Used > 0 {
		coupon.Used--
	}
	r.coupons[code] = coupon
	return nil
}
