package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mall/internal/handlers"
	"mall/internal/middleware"
	"mall/internal/models"
	"mall/internal/repositories"
	"mall/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "integration-test-secret"

// setupTestApp wires the full HTTP surface over an in-memory SQLite database,
// mirroring the production wiring minus the message broker.
func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.UserAddress{},
		&models.Product{},
		&models.ProductSku{},
		&models.CouponCode{},
		&models.Order{},
		&models.OrderItem{},
	)
	require.NoError(t, err)

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	skuRepo := repositories.NewGORMSkuRepository(db)
	couponRepo := repositories.NewGORMCouponRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	authService := services.NewAuthService(userRepo, testJWTSecret)
	productService := services.NewProductService(productRepo, orderRepo)
	orderService := services.NewOrderService(orderRepo, skuRepo, productRepo, userRepo, couponRepo, nil, time.Hour)
	t.Cleanup(orderService.Stop)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	handlers.NewAddressHandler(authService).RegisterRoutes(protected)
	handlers.NewProductHandler(productService).RegisterRoutes(protected)
	handlers.NewOrderHandler(orderService).RegisterRoutes(protected)

	return app
}

// doRequest performs a JSON request against the test app and returns the
// response.
func doRequest(t *testing.T, app *fiber.App, method, path, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out), "body: %s", string(data))
}

// registerAndLogin creates a user through the API and returns a bearer token.
func registerAndLogin(t *testing.T, app *fiber.App, username string) string {
	t.Helper()

	resp := doRequest(t, app, "POST", "/api/v1/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"Password": "password123",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = doRequest(t, app, "POST", "/api/v1/auth/login", "", fiber.Map{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var loginResp struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	return loginResp.Token
}

// createAddress stores a shipping address for the caller and returns its id.
func createAddress(t *testing.T, app *fiber.App, token string) string {
	t.Helper()

	resp := doRequest(t, app, "POST", "/api/v1/addresses", token, fiber.Map{
		"address": "1 Test Street",
		"contact": "Tester",
		"phone":   "555-0100",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var address models.UserAddress
	decodeJSON(t, resp, &address)
	require.NotEmpty(t, address.ID)
	return address.ID
}

// createProduct creates a product with one SKU and returns the product and
// SKU ids.
func createProduct(t *testing.T, app *fiber.App, token string, price float64, stock int) (string, string) {
	t.Helper()

	resp := doRequest(t, app, "POST", "/api/v1/products", token, fiber.Map{
		"title":       "Mechanical Keyboard",
		"description": "Tactile switches",
		"on_sale":     true,
		"price":       price,
		"skus": []fiber.Map{
			{"title": "Brown switches", "price": price, "stock": stock},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var product models.Product
	decodeJSON(t, resp, &product)
	require.NotEmpty(t, product.ID)
	require.Len(t, product.Skus, 1)
	return product.ID, product.Skus[0].ID
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	app := setupTestApp(t)

	resp := doRequest(t, app, "GET", "/api/v1/orders", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/products", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_OrderLifecycle(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app, "lifecycle_user")
	addressID := createAddress(t, app, token)
	_, skuID := createProduct(t, app, token, 75.0, 10)

	// Place an order for two units.
	resp := doRequest(t, app, "POST", "/api/v1/orders", token, fiber.Map{
		"address_id": addressID,
		"remark":     "leave at door",
		"items": []fiber.Map{
			{"sku_id": skuID, "amount": 2},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var order models.Order
	decodeJSON(t, resp, &order)
	require.NotEmpty(t, order.ID)
	assert.Equal(t, 150.0, order.TotalAmount)
	assert.Equal(t, "1 Test Street", order.Address)
	require.Len(t, order.Items, 1)

	// Pay for it.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/pay", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.NotNil(t, order.PaidAt)

	// Paying twice is rejected.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/pay", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Ship it.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/ship", token, fiber.Map{
		"company":     "SF Express",
		"tracking_no": "SF123456",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.ShipStatusDelivered, order.ShipStatus)

	// Confirm receipt.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/received", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.ShipStatusReceived, order.ShipStatus)

	// Review the item.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/review", token, fiber.Map{
		"reviews": []fiber.Map{
			{"id": order.Items[0].ID, "rating": 5, "review": "great keyboard"},
		},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.True(t, order.Reviewed)

	// Reviewing twice is rejected.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/review", token, fiber.Map{
		"reviews": []fiber.Map{
			{"id": order.Items[0].ID, "rating": 1, "review": "changed my mind"},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// File a refund request.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/refund", token, fiber.Map{
		"reason": "arrived scratched",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &order)
	assert.Equal(t, models.RefundStatusApplied, order.RefundStatus)
	assert.Equal(t, "arrived scratched", order.Extra[models.ExtraRefundReason])

	// Refunding twice is rejected.
	resp = doRequest(t, app, "POST", "/api/v1/orders/"+order.ID+"/refund", token, fiber.Map{
		"reason": "again",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// The order shows up in the caller's list.
	resp = doRequest(t, app, "GET", "/api/v1/orders", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeJSON(t, resp, &orders)
	assert.Len(t, orders, 1)
}

func TestAPI_PlaceOrderOutOfStock(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app, "stock_user")
	addressID := createAddress(t, app, token)
	_, skuID := createProduct(t, app, token, 25.0, 1)

	resp := doRequest(t, app, "POST", "/api/v1/orders", token, fiber.Map{
		"address_id": addressID,
		"items": []fiber.Map{
			{"sku_id": skuID, "amount": 2},
		},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAPI_OrdersAreOwnerScoped(t *testing.T) {
	app := setupTestApp(t)
	ownerToken := registerAndLogin(t, app, "order_owner")
	otherToken := registerAndLogin(t, app, "other_user")
	addressID := createAddress(t, app, ownerToken)
	_, skuID := createProduct(t, app, ownerToken, 25.0, 5)

	resp := doRequest(t, app, "POST", "/api/v1/orders", ownerToken, fiber.Map{
		"address_id": addressID,
		"items": []fiber.Map{
			{"sku_id": skuID, "amount": 1},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeJSON(t, resp, &order)

	// Another user cannot read the order.
	resp = doRequest(t, app, "GET", "/api/v1/orders/"+order.ID, otherToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Nor can they place an order with the owner's address.
	resp = doRequest(t, app, "POST", "/api/v1/orders", otherToken, fiber.Map{
		"address_id": addressID,
		"items": []fiber.Map{
			{"sku_id": skuID, "amount": 1},
		},
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAPI_Favorites(t *testing.T) {
	app := setupTestApp(t)
	token := registerAndLogin(t, app, "favorites_user")
	productID, _ := createProduct(t, app, token, 25.0, 5)

	resp := doRequest(t, app, "POST", "/api/v1/products/"+productID+"/favor", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/products/favorites", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var favorites []models.Product
	decodeJSON(t, resp, &favorites)
	assert.Len(t, favorites, 1)

	resp = doRequest(t, app, "DELETE", "/api/v1/products/"+productID+"/favor", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, "GET", "/api/v1/products/favorites", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	favorites = nil
	decodeJSON(t, resp, &favorites)
	assert.Empty(t, favorites)
}
