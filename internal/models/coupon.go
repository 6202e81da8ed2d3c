package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon discount types.
const (
	CouponTypeFixed   = "fixed"   // subtract Value from the total
	CouponTypePercent = "percent" // take Value percent off the total
)

// CouponCode is a redeemable discount code with a usage limit. Used is a
// shared counter mutated only through the coupon ledger's conditional update,
// so `used <= total` holds under concurrent placements.
type CouponCode struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string     `json:"name" validate:"required"`
	Code       string     `json:"code" gorm:"uniqueIndex;type:varchar(100)" validate:"required"`
	Type       string     `json:"type" validate:"required,oneof=fixed percent"`
	Value      float64    `json:"value" validate:"required,gt=0"`
	MinAmount  float64    `json:"min_amount" validate:"gte=0"`
	Total      int        `json:"total" validate:"gte=0"` // usage limit
	Used       int        `json:"used"`
	Enabled    bool       `json:"enabled"`
	NotBefore  *time.Time `json:"not_before,omitempty"`
	NotAfter   *time.Time `json:"not_after,omitempty"`
	gorm.Model `json:"-"`
}

// CheckAvailable classifies why a coupon cannot be used right now. It is a
// read-side check only; the race-free enforcement happens in the ledger's
// conditional increment.
func (c *CouponCode) CheckAvailable(now time.Time) error {
	if !c.Enabled {
		return ErrCouponUnavailable
	}
	if c.NotBefore != nil && now.Before(*c.NotBefore) {
		return ErrCouponExpired
	}
	if c.NotAfter != nil && now.After(*c.NotAfter) {
		return ErrCouponExpired
	}
	if c.Used >= c.Total {
		return ErrCouponExhausted
	}
	return nil
}

// AdjustedTotal applies the discount rule to an order total. The result never
// drops below zero.
func (c *CouponCode) AdjustedTotal(total float64) float64 {
	var adjusted float64
	switch c.Type {
	case CouponTypePercent:
		adjusted = total * (100 - c.Value) / 100
	default:
		adjusted = total - c.Value
	}
	if adjusted < 0 {
		return 0
	}
	return adjusted
}
