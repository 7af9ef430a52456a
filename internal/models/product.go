package models

import "gorm.io/gorm"

// Product represents an item in the catalog. The order flow only reads it:
// the price and stock a draft works with are snapshots taken at selection
// time (see OrderLine).
type Product struct {
	ID          string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string  `json:"name" validate:"required,min=3,max=100"`
	Description string  `json:"description" validate:"omitempty,max=500"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
