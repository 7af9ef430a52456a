package models

import "time"

// OrderLine is one product entry within a draft. Price and Stock are
// snapshots of the product at selection time; quantity bounds are checked
// against the stock snapshot, not a live re-fetch.
type OrderLine struct {
	ProductID string  `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
}

// OrderDraft is an order being composed. It lives for one editing session
// and is validated as a whole before it may be finalized.
type OrderDraft struct {
	CustomerName string      `json:"customer_name" validate:"required,min=3"`
	Email        string      `json:"email" validate:"required,email"`
	Lines        []OrderLine `json:"lines" validate:"required,min=1,max=3,dive"`
}

// Order is a finalized, submitted order. Created exactly once from a valid
// draft plus the computed total and generated code; immutable thereafter.
type Order struct {
	ID           string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerName string      `json:"customer_name"`
	Email        string      `json:"email" gorm:"index"`
	Lines        []OrderLine `json:"lines" gorm:"serializer:json"`
	Total        float64     `json:"total"`
	OrderCode    string      `json:"order_code"`
	CreatedAt    time.Time   `json:"created_at"`
}

// OrderHistoryEntry is the slice of a past order the rate limiter needs.
type OrderHistoryEntry struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry projects an order down to what the rate limiter reads.
func (o Order) HistoryEntry() OrderHistoryEntry {
	return OrderHistoryEntry{Email: o.Email, CreatedAt: o.CreatedAt}
}
