package services

import (
	"log"
	"time"

	"mall/internal/models"
	"mall/internal/repositories"
)

// CouponLedger owns all mutation of coupon usage counters. Reserving a use is
// a single conditional increment in the repository, so two orders racing for
// the last remaining use of a code cannot both succeed.
type CouponLedger struct {
	couponRepo repositories.CouponRepository
}

// NewCouponLedger creates a new CouponLedger.
func NewCouponLedger(couponRepo repositories.CouponRepository) *CouponLedger {
	return &CouponLedger{
		couponRepo: couponRepo,
	}
}

// Reserve claims one use of the coupon and returns it for discount math. It
// fails with models.ErrCouponUnavailable, models.ErrCouponExpired or
// models.ErrCouponExhausted.
func (l *CouponLedger) Reserve(code string, now time.Time) (*models.CouponCode, error) {
	if err := l.couponRepo.ReserveUsage(code, now); err != nil {
		return nil, err
	}
	coupon, err := l.couponRepo.GetByCode(code)
	if err != nil {
		// The reservation went through but the handle read failed; give the
		// use back so the counter stays consistent.
		l.Release(code)
		return nil, err
	}
	return coupon, nil
}

// Release gives one use of the coupon back. Called when an order holding a
// reservation is auto-closed, or when placement fails after the reserve.
func (l *CouponLedger) Release(code string) {
	if err := l.couponRepo.ReleaseUsage(code); err != nil {
		log.Printf("Failed to release coupon %s: %v", code, err)
	}
}
