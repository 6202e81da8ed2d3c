package repositories

import (
	"mall/internal/models"
)

// SkuRepository defines the interface for product SKU data access. Stock
// mutation is exposed only as atomic conditional operations so that the
// non-negative invariant cannot be broken by a read-then-write race.
type SkuRepository interface {
	GetByID(id string) (*models.ProductSku, error)
	Create(sku *models.ProductSku) error
	// DecrementStock subtracts qty from the SKU's stock in a single
	// conditional update. It returns models.ErrOutOfStock if the remaining
	// stock would go negative, models.ErrNotFound if the SKU is missing.
	DecrementStock(id string, qty int) error
	// IncrementStock adds qty back to the SKU's stock unconditionally.
	IncrementStock(id string, qty int) error
}
