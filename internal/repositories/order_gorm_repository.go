package repositories

import (
	"fmt"

	"pesanan/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// GetAll retrieves all orders from the database, newest first.
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order by its ID from the database.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s not found", id)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// Create persists a finalized order.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// HistoryByEmail returns the history projection for every order placed with
// the given email. The match is case-sensitive, as stored.
func (r *GORMOrderRepository) HistoryByEmail(email string) ([]models.OrderHistoryEntry, error) {
	var orders []models.Order
	if err := r.db.Select("email", "created_at").Find(&orders, "email = ?", email).Error; err != nil {
		return nil, fmt.Errorf("failed to get order history for %s: %w", email, err)
	}
	entries := make([]models.OrderHistoryEntry, 0, len(orders))
	for _, o := range orders {
		entries = append(entries, o.HistoryEntry())
	}
	return entries, nil
}
