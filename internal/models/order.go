package models

import (
	"time"

	"gorm.io/gorm"
)

// Shipping status values for Order.ShipStatus.
const (
	ShipStatusPending   = "pending"
	ShipStatusDelivered = "delivered"
	ShipStatusReceived  = "received"
)

// Refund status values for Order.RefundStatus.
const (
	RefundStatusPending    = "pending"
	RefundStatusApplied    = "applied"
	RefundStatusProcessing = "processing"
	RefundStatusSuccess    = "success"
	RefundStatusFailed     = "failed"
)

// Extra map keys.
const (
	ExtraRefundReason   = "refund_reason"
	ExtraShipCompany    = "ship_company"
	ExtraShipTrackingNo = "ship_tracking_no"
)

// OrderItem is a single SKU line within an order. The product title and price
// are snapshots taken at placement time so later catalog edits never alter
// order history. Rating, Review and ReviewedAt stay empty until the owning
// order is reviewed.
type OrderItem struct {
	ID           string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID      string     `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID    string     `json:"product_id" gorm:"type:varchar(36)"`
	ProductSkuID string     `json:"product_sku_id" gorm:"type:varchar(36)"`
	ProductTitle string     `json:"product_title"`
	Price        float64    `json:"price"` // SKU price at the time of order
	Amount       int        `json:"amount" validate:"required,min=1"`
	Rating       *int       `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Review       string     `json:"review,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
}

// Order is a customer order together with its line items. The address fields
// are an immutable snapshot of the shipping address chosen at placement.
type Order struct {
	ID           string            `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID       string            `json:"user_id" gorm:"index;type:varchar(36)"`
	Address      string            `json:"address"` // snapshot, not a live reference
	Contact      string            `json:"contact"`
	Phone        string            `json:"phone"`
	Remark       string            `json:"remark"`
	TotalAmount  float64           `json:"total_amount"`
	PaidAt       *time.Time        `json:"paid_at,omitempty"`
	ShipStatus   string            `json:"ship_status"`
	Closed       bool              `json:"closed"`
	Reviewed     bool              `json:"reviewed"`
	RefundStatus string            `json:"refund_status"`
	CouponCode   *string           `json:"coupon_code,omitempty" gorm:"type:varchar(100)"`
	Extra        map[string]string `json:"extra,omitempty" gorm:"serializer:json"`
	Items        []OrderItem       `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `json:"-" gorm:"index"`
}

// IsPaid reports whether payment has been settled for the order.
func (o *Order) IsPaid() bool {
	return o.PaidAt != nil
}

// OwnsItem reports whether the given order item id belongs to this order.
func (o *Order) OwnsItem(itemID string) bool {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return true
		}
	}
	return false
}
