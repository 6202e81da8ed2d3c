package repositories

import "mall/internal/models"

// UserRepository defines the interface for user and address data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	CreateAddress(address *models.UserAddress) error
	GetAddressByID(id string) (*models.UserAddress, error)
}
