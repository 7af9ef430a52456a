package repositories

import (
	"pesanan/internal/models"
)

// OrderRepository defines the interface for order data access. Finalized
// orders are immutable, so there is no update path: orders are created once
// and read back for listing and rate-limit history.
type OrderRepository interface {
	GetAll() ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	Create(order *models.Order) error
	// HistoryByEmail returns the order history projection for an email,
	// case-sensitive as provided. Used by the rate limiter.
	HistoryByEmail(email string) ([]models.OrderHistoryEntry, error)
}
