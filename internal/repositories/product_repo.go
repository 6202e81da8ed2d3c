package repositories

import (
	"mall/internal/models"
)

// ProductListOptions controls catalog listing. Search is a substring match
// over product and SKU titles/descriptions; OrderBy must be one of the
// whitelisted fields with an _asc/_desc suffix, e.g. "price_desc".
type ProductListOptions struct {
	Search  string
	OrderBy string
	Limit   int
	Offset  int
}

// ProductRepository defines the interface for product catalog data access.
type ProductRepository interface {
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	List(opts ProductListOptions) ([]models.Product, error)

	// Derived fields, recomputed after payment and review transitions.
	UpdateSoldCount(productID string, soldCount int) error
	UpdateRating(productID string, rating float64, reviewCount int) error

	// Favorites.
	Favor(userID, productID string) error
	Disfavor(userID, productID string) error
	ListFavorites(userID string) ([]models.Product, error)
}
