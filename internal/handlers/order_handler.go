package handlers

import (
	"errors"
	"fmt"
	"log"

	"pesanan/internal/models"
	"pesanan/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orders  *services.OrderService
	listing *services.ListingService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, listing *services.ListingService) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		listing: listing,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleSubmitOrder)
	orderRoutes.Post("/validate", h.HandleValidateOrder)
}

// HandleListOrders lists submitted orders. With a ?q= term the list is
// filtered by customer name or email; without one the full fresh set is
// returned.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.listing.Search(c.Query("q"))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.orders.GetOrderByID(orderID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		if err.Error() == fmt.Sprintf("order with ID %s not found", orderID) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Order with ID %s not found", orderID),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleSubmitOrder validates a submitted draft and, if every rule passes,
// finalizes it. Validation failures come back as 422 with the full list of
// failed rules so the client can display all of them.
func (h *OrderHandler) HandleSubmitOrder(c *fiber.Ctx) error {
	var draft models.OrderDraft
	if err := c.BodyParser(&draft); err != nil {
		log.Printf("Error parsing order draft: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.orders.SubmitDraft(draft)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message":  "Order validation failed",
				"failures": failureMessages(verr.Failures),
			})
		}
		log.Printf("Error submitting order: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not submit order",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// HandleValidateOrder dry-runs the full rule set over a draft without
// submitting anything, mirroring the live validation a form shows.
func (h *OrderHandler) HandleValidateOrder(c *fiber.Ctx) error {
	var draft models.OrderDraft
	if err := c.BodyParser(&draft); err != nil {
		log.Printf("Error parsing order draft: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	failures := h.orders.ValidateDraft(draft)
	totals := services.ComputeTotal(draft.Lines)
	return c.JSON(fiber.Map{
		"valid":    len(failures) == 0,
		"failures": failureMessages(failures),
		"totals":   totals,
	})
}

// failureMessages flattens rule failures into display strings.
func failureMessages(failures []error) []string {
	msgs := make([]string, 0, len(failures))
	for _, f := range failures {
		msgs = append(msgs, f.Error())
	}
	return msgs
}
