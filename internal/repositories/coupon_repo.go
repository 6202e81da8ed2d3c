package repositories

import (
	"time"

	"mall/internal/models"
)

// CouponRepository defines the interface for coupon code data access. Usage
// counting is exposed only as atomic conditional operations, mirroring the
// SKU stock contract.
type CouponRepository interface {
	GetByCode(code string) (*models.CouponCode, error)
	Create(coupon *models.CouponCode) error
	// ReserveUsage increments the coupon's used count in a single conditional
	// update that also checks enabled, the validity window and the usage
	// limit. On failure it returns models.ErrCouponUnavailable,
	// models.ErrCouponExpired or models.ErrCouponExhausted.
	ReserveUsage(code string, now time.Time) error
	// ReleaseUsage decrements the coupon's used count. Called when an order
	// holding a reservation is auto-closed without ever being paid.
	ReleaseUsage(code string) error
}
