package models

import "errors"

// Domain errors surfaced by the order core. Handlers match on these with
// errors.Is to pick a response status, so services must wrap rather than
// replace them.
var (
	// ErrOutOfStock means a stock reservation would take a SKU below zero.
	ErrOutOfStock = errors.New("out of stock")

	// ErrCouponUnavailable means the coupon code does not exist or is disabled.
	ErrCouponUnavailable = errors.New("coupon code unavailable")

	// ErrCouponExpired means the coupon is outside its validity window.
	ErrCouponExpired = errors.New("coupon code expired")

	// ErrCouponExhausted means the coupon's usage limit has been reached.
	ErrCouponExhausted = errors.New("coupon code exhausted")

	// ErrInvalidState means the order is not in a state that permits the
	// requested transition (e.g. reviewing an unpaid order).
	ErrInvalidState = errors.New("invalid order state")

	// ErrNotFound means a referenced order, SKU, product or address is missing.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller does not own the referenced resource.
	ErrForbidden = errors.New("forbidden")
)
