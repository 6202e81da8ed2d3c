package services

import (
	"fmt"
	"log"

	"mall/internal/repositories"
)

// StockLine is one SKU reservation request within an order placement.
type StockLine struct {
	SkuID  string
	Amount int
}

// StockLedger owns all mutation of SKU stock counters. Each reservation is a
// single conditional decrement in the repository, so concurrent orders
// competing for the same SKU serialize there and the stock never goes
// negative.
type StockLedger struct {
	skuRepo repositories.SkuRepository
}

// NewStockLedger creates a new StockLedger.
func NewStockLedger(skuRepo repositories.SkuRepository) *StockLedger {
	return &StockLedger{
		skuRepo: skuRepo,
	}
}

// Reserve claims qty units of one SKU. It fails with models.ErrOutOfStock
// when the remaining stock would go below zero.
func (l *StockLedger) Reserve(skuID string, qty int) error {
	return l.skuRepo.DecrementStock(skuID, qty)
}

// Release gives qty units of one SKU back. Each release must correspond to
// exactly one prior successful reserve; that bookkeeping is carried by the
// order state, not by the ledger.
func (l *StockLedger) Release(skuID string, qty int) error {
	return l.skuRepo.IncrementStock(skuID, qty)
}

// ReserveAll reserves every line or none: when a line fails, all lines
// reserved so far are released before the error surfaces.
func (l *StockLedger) ReserveAll(lines []StockLine) error {
	for i, line := range lines {
		if err := l.Reserve(line.SkuID, line.Amount); err != nil {
			l.ReleaseAll(lines[:i])
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
	}
	return nil
}

// ReleaseAll gives every line back. Release failures are logged rather than
// returned; a restock is an unconditional addition and only a storage outage
// can make it fail.
func (l *StockLedger) ReleaseAll(lines []StockLine) {
	for _, line := range lines {
		if err := l.Release(line.SkuID, line.Amount); err != nil {
			log.Printf("Failed to release %d units of sku %s: %v", line.Amount, line.SkuID, err)
		}
	}
}
