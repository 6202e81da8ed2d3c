package repositories

import (
	"fmt"
	"strings"

	"mall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetByID retrieves a single product with its SKUs.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Skus").First(&product, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("product with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product and its SKUs in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	for i := range product.Skus {
		if product.Skus[i].ID == "" {
			product.Skus[i].ID = uuid.New().String()
		}
		product.Skus[i].ProductID = product.ID
	}
	if err := r.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update updates an existing product in the database.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Omit("Skus").Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, models.ErrNotFound)
	}
	return nil
}

// List retrieves on-sale products, optionally filtered by a substring search
// over product and SKU text, and ordered by a whitelisted field.
func (r *GORMProductRepository) List(opts ProductListOptions) ([]models.Product, error) {
	query := r.db.Model(&models.Product{}).Preload("Skus").Where("on_sale = ?", true)

	if opts.Search != "" {
		like := "%" + opts.Search + "%"
		query = query.Where(
			r.db.Where("title LIKE ? OR description LIKE ?", like, like).
				Or("id IN (?)", r.db.Model(&models.ProductSku{}).
					Select("product_id").
					Where("title LIKE ? OR description LIKE ?", like, like)),
		)
	}

	if orderBy := parseOrderBy(opts.OrderBy); orderBy != "" {
		query = query.Order(orderBy)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// parseOrderBy accepts "<field>_asc" or "<field>_desc" for a whitelisted set
// of fields and returns the SQL order clause, or "" if the value is invalid.
func parseOrderBy(orderBy string) string {
	field, dir := orderBy, ""
	switch {
	case strings.HasSuffix(orderBy, "_asc"):
		field, dir = strings.TrimSuffix(orderBy, "_asc"), "ASC"
	case strings.HasSuffix(orderBy, "_desc"):
		field, dir = strings.TrimSuffix(orderBy, "_desc"), "DESC"
	default:
		return ""
	}
	switch field {
	case "price", "sold_count", "rating":
		return field + " " + dir
	}
	return ""
}

// UpdateSoldCount writes the recomputed sold count of a product.
func (r *GORMProductRepository) UpdateSoldCount(productID string, soldCount int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("sold_count", soldCount)
	if res.Error != nil {
		return fmt.Errorf("failed to update sold count for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", productID, models.ErrNotFound)
	}
	return nil
}

// UpdateRating writes the recomputed rating and review count of a product.
func (r *GORMProductRepository) UpdateRating(productID string, rating float64, reviewCount int) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumns(map[string]interface{}{"rating": rating, "review_count": reviewCount})
	if res.Error != nil {
		return fmt.Errorf("failed to update rating for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s: %w", productID, models.ErrNotFound)
	}
	return nil
}

// Favor adds a product to a user's favorites. Favoring twice is a no-op.
func (r *GORMProductRepository) Favor(userID, productID string) error {
	user := models.User{ID: userID}
	product := models.Product{ID: productID}
	if err := r.db.Model(&user).Association("Favorites").Append(&product); err != nil {
		return fmt.Errorf("failed to favor product %s for user %s: %w", productID, userID, err)
	}
	return nil
}

// Disfavor removes a product from a user's favorites.
func (r *GORMProductRepository) Disfavor(userID, productID string) error {
	user := models.User{ID: userID}
	product := models.Product{ID: productID}
	if err := r.db.Model(&user).Association("Favorites").Delete(&product); err != nil {
		return fmt.Errorf("failed to disfavor product %s for user %s: %w", productID, userID, err)
	}
	return nil
}

// ListFavorites retrieves all products a user has favored.
func (r *GORMProductRepository) ListFavorites(userID string) ([]models.Product, error) {
	user := models.User{ID: userID}
	var products []models.Product
	if err := r.db.Model(&user).Association("Favorites").Find(&products); err != nil {
		return nil, fmt.Errorf("failed to list favorites for user %s: %w", userID, err)
	}
	return products, nil
}
