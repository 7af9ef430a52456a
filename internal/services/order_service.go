package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pesanan/internal/models"
	"pesanan/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Timestamp layout for order codes, UTC with millisecond precision.
const orderCodeTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// EventPublisher publishes order events to the message broker.
// Satisfied by *rabbitmq.Client.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// OrderService assembles drafts into finalized orders. It owns the full
// validation decision (field rules, line rules, rate limit) and, only when
// every rule passes, builds and persists the final order record.
type OrderService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	limiter     *RateLimiter
	publisher   EventPublisher
	validate    *validator.Validate
	now         func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, productRepo repositories.ProductRepository, limiter *RateLimiter, publisher EventPublisher) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		limiter:     limiter,
		publisher:   publisher,
		validate:    validator.New(),
		now:         time.Now,
	}
}

// GetOrderByID retrieves a single finalized order by its ID.
func (s *OrderService) GetOrderByID(id string) (*models.Order, error) {
	return s.orderRepo.GetByID(id)
}

// CheckDraft runs the synchronous rules over a draft: customer name and
// email field rules via the struct validator, then the structural line
// rules. The rate limit is not part of this; it is asynchronous and checked
// separately. Returns every failure found, empty when the draft passes.
func (s *OrderService) CheckDraft(draft models.OrderDraft) []error {
	var failures []error

	// Line rules are covered by CheckLines below; the struct validator only
	// handles the scalar fields here.
	if err := s.validate.StructPartial(draft, "CustomerName", "Email"); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.Field() {
				case "CustomerName":
					failures = append(failures, ErrCustomerNameInvalid)
				case "Email":
					failures = append(failures, ErrEmailInvalid)
				}
			}
		} else {
			failures = append(failures, err)
		}
	}

	failures = append(failures, CheckLines(draft.Lines)...)
	return failures
}

// ValidateDraft runs the complete rule set, rate limit included, and returns
// every failure. Used by the dry-run validation endpoint.
func (s *OrderService) ValidateDraft(draft models.OrderDraft) []error {
	failures := s.CheckDraft(draft)
	if res := s.limiter.CheckNow(draft.Email); !res.Allowed {
		failures = append(failures, res.Err)
	}
	return failures
}

// SubmitDraft validates a complete draft and, if every rule passes,
// finalizes and persists it. On failure it returns a *ValidationError
// carrying all failed rules; the order store is never contacted for an
// invalid draft.
func (s *OrderService) SubmitDraft(draft models.OrderDraft) (*models.Order, error) {
	if failures := s.ValidateDraft(draft); len(failures) > 0 {
		return nil, &ValidationError{Failures: failures}
	}
	return s.finalize(draft)
}

// finalize builds the immutable order record from a draft that has already
// passed validation, persists it and publishes the created event. The total
// is rounded here and nowhere else, and the order code is generated exactly
// once.
func (s *OrderService) finalize(draft models.OrderDraft) (*models.Order, error) {
	now := s.now()
	totals := ComputeTotal(draft.Lines)

	order := &models.Order{
		ID:           uuid.New().String(),
		CustomerName: draft.CustomerName,
		Email:        draft.Email,
		Lines:        draft.Lines,
		Total:        RoundCurrency(totals.Total),
		OrderCode:    orderCode(draft.CustomerName, draft.Email, now),
		CreatedAt:    now,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to submit order: %w", err)
	}

	s.publishCreated(order)
	return order, nil
}

// orderCode builds the human-readable code: first letter of the customer
// name uppercased, the last 4 characters of the email, and the timestamp.
func orderCode(name, email string, now time.Time) string {
	var first string
	if runes := []rune(name); len(runes) > 0 {
		first = strings.ToUpper(string(runes[0]))
	}
	suffix := email
	if len(email) > 4 {
		suffix = email[len(email)-4:]
	}
	return first + suffix + now.UTC().Format(orderCodeTimeLayout)
}

// publishCreated emits an order.created event. Publishing is best effort:
// the order is already persisted, so a broker failure is only logged.
func (s *OrderService) publishCreated(order *models.Order) {
	if s.publisher == nil {
		log.Println("Event publisher is not configured. Skipping order.created event.")
		return
	}

	payload := map[string]interface{}{
		"orderID":   order.ID,
		"orderCode": order.OrderCode,
		"email":     order.Email,
		"total":     order.Total,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal order %s for publishing: %v", order.ID, err)
		return
	}

	if err := s.publisher.Publish("order", "order.created", body); err != nil {
		log.Printf("Warning: Failed to publish order created event for order %s: %v", order.ID, err)
	} else {
		log.Printf("Published order created event for order %s", order.ID)
	}
}
