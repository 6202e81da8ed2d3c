package models

import "gorm.io/gorm"

// Product represents a product in the store. SoldCount, Rating and
// ReviewCount are derived values recomputed from paid order items.
type Product struct {
	ID          string       `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title       string       `json:"title" validate:"required,min=3,max=100"`
	Description string       `json:"description" validate:"omitempty,max=500"`
	Image       string       `json:"image"`
	OnSale      bool         `json:"on_sale"`
	Rating      float64      `json:"rating"`
	SoldCount   int          `json:"sold_count"`
	ReviewCount int          `json:"review_count"`
	Price       float64      `json:"price" validate:"required,gt=0"`
	Skus        []ProductSku `json:"skus" gorm:"foreignKey:ProductID"`
	gorm.Model  `json:"-"`
}

// ProductSku is a sellable variant of a product with its own price and stock.
// Stock is never written directly; all mutation goes through the stock ledger
// so the non-negative invariant holds under concurrent orders.
type ProductSku struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	ProductID   string  `json:"product_id" gorm:"index;type:varchar(36)"`
	Title       string  `json:"title" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	gorm.Model  `json:"-"`
}
