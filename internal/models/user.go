package models

import "gorm.io/gorm"

// User represents a user of the store.
type User struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username   string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email      string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string    `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Favorites  []Product `json:"-" gorm:"many2many:user_favorite_products"`
	gorm.Model `json:"-"`
}

// UserAddress is a shipping address owned by a user. Orders copy its fields
// at placement time instead of referencing it.
type UserAddress struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID     string `json:"user_id" gorm:"index;type:varchar(36)"`
	Address    string `json:"address" validate:"required"`
	Contact    string `json:"contact" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	gorm.Model `json:"-"`
}
