package repositories

import (
	"fmt"
	"strings"
	"sync"

	"mall/internal/models"

	"github.com/google/uuid"
)

// MockProductRepository is an in-memory implementation of ProductRepository.
type MockProductRepository struct {
	products  map[string]models.Product
	favorites map[string]map[string]bool // userID -> productID set
	mu        sync.RWMutex
}

// NewMockProductRepository creates a new instance of MockProductRepository.
func NewMockProductRepository() *MockProductRepository {
	return &MockProductRepository{
		products:  make(map[string]models.Product),
		favorites: make(map[string]map[string]bool),
	}
}

// GetByID returns a product by its ID.
func (r *MockProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, models.ErrNotFound)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MockProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Skus {
		if product.Skus[i].ID == "" {
			product.Skus[i].ID = uuid.New().String()
		}
		product.Skus[i].ProductID = product.ID
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MockProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, models.ErrNotFound)
	}
	r.products[product.ID] = *product
	return nil
}

// List returns on-sale products matching the options. Ordering is ignored in
// the mock beyond the whitelist check.
func (r *MockProductRepository) List(opts ProductListOptions) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	for _, p := range r.products {
		if !p.OnSale {
			continue
		}
		if opts.Search != "" && !matchesSearch(p, opts.Search) {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func matchesSearch(p models.Product, search string) bool {
	if strings.Contains(p.Title, search) || strings.Contains(p.Description, search) {
		return true
	}
	for _, sku := range p.Skus {
		if strings.Contains(sku.Title, search) || strings.Contains(sku.Description, search) {
			return true
		}
	}
	return false
}

// UpdateSoldCount writes the recomputed sold count.
func (r *MockProductRepository) UpdateSoldCount(productID string, soldCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", productID, models.ErrNotFound)
	}
	product.SoldCount = soldCount
	r.products[productID] = product
	return nil
}

// UpdateRating writes the recomputed rating and review count.
func (r *MockProductRepository) UpdateRating(productID string, rating float64, reviewCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok {
		return fmt.Errorf("product with ID %s: %w", productID, models.ErrNotFound)
	}
	product.Rating = rating
	product.ReviewCount = reviewCount
	r.products[productID] = product
	return nil
}

// Favor adds a product to a user's favorites.
func (r *MockProductRepository) Favor(userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[productID]; !ok {
		return fmt.Errorf("product with ID %s: %w", productID, models.ErrNotFound)
	}
	if r.favorites[userID] == nil {
		r.favorites[userID] = make(map[string]bool)
	}
	r.favorites[userID][productID] = true
	return nil
}

// Disfavor removes a product from a user's favorites.
func (r *MockProductRepository) Disfavor(userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.favorites[userID], productID)
	return nil
}

// ListFavorites returns all products a user has favored.
func (r *MockProductRepository) ListFavorites(userID string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []models.Product
	for id := range r.favorites[userID] {
		if p, ok := r.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}
