package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"pesanan/internal/handlers"
	"pesanan/internal/models"
	"pesanan/internal/repositories"
	"pesanan/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbCounter int

// setupApp builds a Fiber app over an in-memory SQLite database with all
// handlers and services wired, mirroring the production wiring.
func setupApp() (*fiber.App, repositories.ProductRepository, error) {
	// A distinct shared-cache name per setup keeps tests isolated while the
	// GORM connection pool still sees one database.
	dbCounter++
	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", dbCounter)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	if err := db.AutoMigrate(&models.Product{}, &models.Order{}); err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Repositories
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// Services
	productService := services.NewProductService(productRepo)
	rateLimiter := services.NewRateLimiter(orderRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, rateLimiter, nil) // nil event publisher
	listingService := services.NewListingService(orderRepo)

	// Handlers
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService, listingService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)
	orderHandler.RegisterRoutes(apiV1)

	seedProductsForTest(productRepo)

	return app, productRepo, nil
}

// seedProductsForTest populates the catalog for tests.
func seedProductsForTest(repo repositories.ProductRepository) {
	products := []models.Product{
		{ID: "prod-1", Name: "Test Laptop", Description: "For testing purposes", Price: 1000.00, Stock: 5},
		{ID: "prod-2", Name: "Test Monitor", Description: "Another test item", Price: 200.00, Stock: 10},
	}
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Failed to seed product %s: %v", products[i].Name, err)
		}
	}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func draftBody(name, email string, lines []models.OrderLine) *bytes.Reader {
	body, _ := json.Marshal(models.OrderDraft{
		CustomerName: name,
		Email:        email,
		Lines:        lines,
	})
	return bytes.NewReader(body)
}

func postJSON(app *fiber.App, path string, body *bytes.Reader) (*http.Response, error) {
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", "application/json")
	return app.Test(req, -1)
}

func TestSubmitOrder_HappyFlow(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	lines := []models.OrderLine{
		{ProductID: "prod-1", Quantity: 2, Price: 1000.00, Stock: 5},
	}
	resp, err := postJSON(app, "/api/v1/orders", draftBody("Ana Torres", "ana@example.com", lines))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var order models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()

	assert.NotEmpty(t, order.ID)
	assert.NotEmpty(t, order.OrderCode)
	assert.Equal(t, 1800.00, order.Total) // 2000 with 10% discount
	assert.Len(t, order.Lines, 1)

	// The order shows up in the listing.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	listResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, listResp.StatusCode)

	var orders []models.Order
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	listResp.Body.Close()
	assert.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	// And individually by ID.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.ID, nil)
	getResp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
	getResp.Body.Close()
}

func TestSubmitOrder_ValidationFailures(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	// Duplicate product and an out-of-range quantity.
	lines := []models.OrderLine{
		{ProductID: "prod-1", Quantity: 1, Price: 1000.00, Stock: 5},
		{ProductID: "prod-1", Quantity: 99, Price: 1000.00, Stock: 5},
	}
	resp, err := postJSON(app, "/api/v1/orders", draftBody("Ana", "ana@example.com", lines))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var result struct {
		Message  string   `json:"message"`
		Failures []string `json:"failures"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.Len(t, result.Failures, 2)

	// Nothing was persisted.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	listResp, _ := app.Test(req, -1)
	var orders []models.Order
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	listResp.Body.Close()
	assert.Empty(t, orders)
}

func TestSubmitOrder_RateLimitAfterThreeOrders(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	lines := []models.OrderLine{
		{ProductID: "prod-2", Quantity: 1, Price: 200.00, Stock: 10},
	}

	for i := 0; i < 3; i++ {
		resp, err := postJSON(app, "/api/v1/orders", draftBody("Ana", "limited@example.com", lines))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode, "order %d should pass", i+1)
		resp.Body.Close()
	}

	// The fourth order inside the window is denied.
	resp, err := postJSON(app, "/api/v1/orders", draftBody("Ana", "limited@example.com", lines))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "order limit")

	// A different email is unaffected.
	resp, err = postJSON(app, "/api/v1/orders", draftBody("Bruno", "other@example.com", lines))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

func TestValidateOrder_DryRun(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	lines := []models.OrderLine{
		{ProductID: "prod-1", Quantity: 1, Price: 1000.00, Stock: 5},
		{ProductID: "prod-2", Quantity: 2, Price: 200.00, Stock: 10},
	}
	resp, err := postJSON(app, "/api/v1/orders/validate", draftBody("Ana", "ana@example.com", lines))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Valid    bool     `json:"valid"`
		Failures []string `json:"failures"`
		Totals   struct {
			Subtotal   float64 `json:"subtotal"`
			Total      float64 `json:"total"`
			Discounted bool    `json:"discounted"`
		} `json:"totals"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()

	assert.True(t, result.Valid)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 1400.00, result.Totals.Subtotal)
	assert.True(t, result.Totals.Discounted)

	// Dry runs never persist.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	listResp, _ := app.Test(req, -1)
	var orders []models.Order
	assert.NoError(t, json.NewDecoder(listResp.Body).Decode(&orders))
	listResp.Body.Close()
	assert.Empty(t, orders)
}

func TestListOrders_Search(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	lines := []models.OrderLine{
		{ProductID: "prod-2", Quantity: 1, Price: 200.00, Stock: 10},
	}
	for _, customer := range []struct{ name, email string }{
		{"Ana Torres", "ana@example.com"},
		{"Bruno Diaz", "bruno@mail.net"},
	} {
		resp, err := postJSON(app, "/api/v1/orders", draftBody(customer.name, customer.email, lines))
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/?q=BRUNO", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var orders []models.Order
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&orders))
	resp.Body.Close()
	assert.Len(t, orders, 1)
	assert.Equal(t, "Bruno Diaz", orders[0].CustomerName)
}

func TestProductEndpoints(t *testing.T) {
	app, _, err := setupApp()
	assert.NoError(t, err)

	// Catalog listing includes the seeded products.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	resp.Body.Close()
	assert.Len(t, products, 2)

	// Create a valid product.
	body, _ := json.Marshal(models.Product{Name: "Test Webcam", Price: 49.99, Stock: 7})
	resp, err = postJSON(app, "/api/v1/products", bytes.NewReader(body))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// An invalid product is rejected before the repository.
	body, _ = json.Marshal(models.Product{Name: "X"})
	resp, err = postJSON(app, "/api/v1/products", bytes.NewReader(body))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown product is a 404.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
