package services

import (
	"fmt"

	"mall/internal/models"
	"mall/internal/repositories"
)

// ProductService handles business logic related to the product catalog,
// including the derived fields recomputed after order transitions.
type ProductService struct {
	productRepo repositories.ProductRepository
	orderRepo   repositories.OrderRepository
}

// NewProductService creates a new ProductService.
func NewProductService(productRepo repositories.ProductRepository, orderRepo repositories.OrderRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// ListProducts retrieves on-sale products matching the options.
func (s *ProductService) ListProducts(opts repositories.ProductListOptions) ([]models.Product, error) {
	return s.productRepo.List(opts)
}

// GetProduct retrieves a single on-sale product by its ID.
func (s *ProductService) GetProduct(id string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !product.OnSale {
		return nil, fmt.Errorf("product %s is not on sale: %w", id, models.ErrNotFound)
	}
	return product, nil
}

// CreateProduct creates a new product with its SKUs.
func (s *ProductService) CreateProduct(product *models.Product) error {
	return s.productRepo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	return s.productRepo.Update(product)
}

// RecentReviews retrieves the latest reviewed order items of a product.
func (s *ProductService) RecentReviews(productID string, limit int) ([]models.OrderItem, error) {
	return s.orderRepo.RecentReviewsByProduct(productID, limit)
}

// RefreshSoldCount recomputes a product's sold count from the paid order
// items. Registered as a paid hook on the order service.
func (s *ProductService) RefreshSoldCount(productID string) error {
	sold, err := s.orderRepo.SoldCountByProduct(productID)
	if err != nil {
		return err
	}
	return s.productRepo.UpdateSoldCount(productID, sold)
}

// RefreshRating recomputes a product's rating and review count from the
// reviewed order items. Registered as a reviewed hook on the order service.
func (s *ProductService) RefreshRating(productID string) error {
	rating, count, err := s.orderRepo.ReviewStatsByProduct(productID)
	if err != nil {
		return err
	}
	return s.productRepo.UpdateRating(productID, rating, count)
}

// FavorProduct adds a product to the user's favorites.
func (s *ProductService) FavorProduct(userID, productID string) error {
	if _, err := s.productRepo.GetByID(productID); err != nil {
		return err
	}
	return s.productRepo.Favor(userID, productID)
}

// DisfavorProduct removes a product from the user's favorites.
func (s *ProductService) DisfavorProduct(userID, productID string) error {
	return s.productRepo.Disfavor(userID, productID)
}

// ListFavorites retrieves all products the user has favored.
func (s *ProductService) ListFavorites(userID string) ([]models.Product, error) {
	return s.productRepo.ListFavorites(userID)
}
