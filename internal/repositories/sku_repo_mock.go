package repositories

import (
	"fmt"
	"sync"

	"mall/internal/models"

	"github.com/google/uuid"
)

// MockSkuRepository is an in-memory implementation of SkuRepository. The
// single mutex gives the same linearizable decrement-with-floor behavior the
// GORM implementation gets from conditional updates.
type MockSkuRepository struct {
	skus map[string]models.ProductSku
	mu   sync.RWMutex
}

// NewMockSkuRepository creates a new instance of MockSkuRepository.
func NewMockSkuRepository() *MockSkuRepository {
	return &MockSkuRepository{
		skus: make(map[string]models.ProductSku),
	}
}

// GetByID returns a SKU by its ID.
func (r *MockSkuRepository) GetByID(id string) (*models.ProductSku, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sku, ok := r.skus[id]
	if !ok {
		return nil, fmt.Errorf("sku with ID %s: %w", id, models.ErrNotFound)
	}
	return &sku, nil
}

// Create adds a new SKU.
func (r *MockSkuRepository) Create(sku *models.ProductSku) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sku.ID == "" {
		sku.ID = uuid.New().String()
	}
	r.skus[sku.ID] = *sku
	return nil
}

// DecrementStock subtracts qty if the remaining stock stays non-negative.
func (r *MockSkuRepository) DecrementStock(id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sku, ok := r.skus[id]
	if !ok {
		return fmt.Errorf("sku with ID %s: %w", id, models.ErrNotFound)
	}
	if sku.Stock < qty {
		return fmt.Errorf("sku %s: %w", id, models.ErrOutOfStock)
	}
	sku.Stock -= qty
	r.skus[id] = sku
	return nil
}

// IncrementStock adds qty back to the SKU's stock.
func (r *MockSkuRepository) IncrementStock(id string, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sku, ok := r.skus[id]
	if !ok {
		return fmt.Errorf("sku with ID %s: %w", id, models.ErrNotFound)
	}
	sku.Stock += qty
	r.skus[id] = sku
	return nil
}
