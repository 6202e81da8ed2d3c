package repositories

import (
	"fmt"

	"mall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMSkuRepository is a GORM implementation of SkuRepository.
type GORMSkuRepository struct {
	db *gorm.DB
}

// NewGORMSkuRepository creates a new instance of GORMSkuRepository.
func NewGORMSkuRepository(db *gorm.DB) *GORMSkuRepository {
	return &GORMSkuRepository{
		db: db,
	}
}

// GetByID retrieves a single SKU by its ID from the database.
func (r *GORMSkuRepository) GetByID(id string) (*models.ProductSku, error) {
	var sku models.ProductSku
	if err := r.db.First(&sku, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("sku with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sku by ID %s: %w", id, err)
	}
	return &sku, nil
}

// Create creates a new SKU in the database.
func (r *GORMSkuRepository) Create(sku *models.ProductSku) error {
	if sku.ID == "" {
		sku.ID = uuid.New().String()
	}
	if err := r.db.Create(sku).Error; err != nil {
		return fmt.Errorf("failed to create sku: %w", err)
	}
	return nil
}

// DecrementStock subtracts qty from the SKU's stock. The WHERE clause carries
// the floor check, so two concurrent decrements can never take the stock
// negative: the database applies them one at a time and the loser matches
// zero rows.
func (r *GORMSkuRepository) DecrementStock(id string, qty int) error {
	res := r.db.Model(&models.ProductSku{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement stock for sku %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing SKU from insufficient stock.
		var count int64
		if err := r.db.Model(&models.ProductSku{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check sku %s: %w", id, err)
		}
		if count == 0 {
			return fmt.Errorf("sku with ID %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("sku %s: %w", id, models.ErrOutOfStock)
	}
	return nil
}

// IncrementStock adds qty back to the SKU's stock.
func (r *GORMSkuRepository) IncrementStock(id string, qty int) error {
	res := r.db.Model(&models.ProductSku{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("failed to increment stock for sku %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("sku with ID %s: %w", id, models.ErrNotFound)
	}
	return nil
}
