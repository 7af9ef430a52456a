package services

import (
	"strings"

	"pesanan/internal/models"
	"pesanan/internal/repositories"
)

// ListingService is the read side over submitted orders: listing and a
// simple substring search.
type ListingService struct {
	repo repositories.OrderRepository
}

// NewListingService creates a new ListingService.
func NewListingService(repo repositories.OrderRepository) *ListingService {
	return &ListingService{
		repo: repo,
	}
}

// Search fetches the order list and filters it by term. An empty term means
// "reset to latest known state": the full, freshly fetched set is returned
// rather than a cached one.
func (s *ListingService) Search(term string) ([]models.Order, error) {
	orders, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	return FilterOrders(orders, term), nil
}

// FilterOrders keeps the orders whose customer name or email contains term,
// case-insensitively. An empty term keeps everything.
func FilterOrders(orders []models.Order, term string) []models.Order {
	if term == "" {
		return orders
	}
	term = strings.ToLower(term)

	filtered := make([]models.Order, 0, len(orders))
	for _, order := range orders {
		if strings.Contains(strings.ToLower(order.CustomerName), term) ||
			strings.Contains(strings.ToLower(order.Email), term) {
			filtered = append(filtered, order)
		}
	}
	return filtered
}
