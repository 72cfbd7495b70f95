package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/orders"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory stand-ins for the document store, shaped like the repository
// layer but without Mongo.
type memStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
	items  map[primitive.ObjectID]*models.OrderItem
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[primitive.ObjectID]*models.Order{},
		items:  map[primitive.ObjectID]*models.OrderItem{},
	}
}

func (m *memStore) Insert(_ context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *order
	copied.ID = primitive.NewObjectID()
	m.orders[copied.ID] = &copied
	return &copied, nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *memStore) Find(_ context.Context, filter bson.M, _ []string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := []models.Order{}
	for _, order := range m.orders {
		if id, ok := filter["_id"]; ok && order.ID != id.(primitive.ObjectID) {
			continue
		}
		if user, ok := filter["user"]; ok && order.User != user.(primitive.ObjectID) {
			continue
		}
		matches = append(matches, *order)
	}
	return matches, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	order.Status = status
	copied := *order
	return &copied, nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.orders, id)
	return order, nil
}

func (m *memStore) TotalSales(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, order := range m.orders {
		total += order.TotalPrice
	}
	return total, nil
}

func (m *memStore) InsertItem(_ context.Context, item *models.OrderItem) (*models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	copied.ID = primitive.NewObjectID()
	m.items[copied.ID] = &copied
	return &copied, nil
}

func (m *memStore) FindItemByID(_ context.Context, id primitive.ObjectID) (*models.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (m *memStore) DeleteItem(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type memProducts struct {
	products map[primitive.ObjectID]*models.Product
}

func (m *memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return product, nil
}

type memCategories struct{}

func (memCategories) FindByID(_ context.Context, _ primitive.ObjectID) (*models.Category, error) {
	return nil, repository.ErrNotFound
}

type memUsers struct{}

func (memUsers) FindByID(_ context.Context, _ primitive.ObjectID) (*models.User, error) {
	return nil, repository.ErrNotFound
}

type testEnv struct {
	server   *Server
	store    *memStore
	products *memProducts
	tokens   *auth.Manager
}

func newTestEnv(t *testing.T, authCfg config.AuthConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if authCfg.Secret == "" {
		authCfg.Secret = "test-secret"
	}
	if authCfg.TokenTTL == 0 {
		authCfg.TokenTTL = time.Hour
	}

	cfg := &config.Config{
		Server:  config.ServerConfig{Name: "test"},
		Auth:    authCfg,
		Uploads: config.UploadsConfig{Dir: t.TempDir()},
	}

	store := newMemStore()
	products := &memProducts{products: map[primitive.ObjectID]*models.Product{}}
	logger := zap.NewNop()

	service := orders.NewService(store, products, memCategories{}, memUsers{}, nil, logger)
	tokens := auth.NewManager(&cfg.Auth)
	gate := auth.NewGate(tokens, Exemptions(&cfg.Auth), cfg.Auth.AdminOnly, logger)

	server := NewServer(cfg, logger, &Deps{
		Orders: service,
		Tokens: tokens,
	})
	server.SetupRoutes(gate)

	return &testEnv{
		server:   server,
		store:    store,
		products: products,
		tokens:   tokens,
	}
}

func (e *testEnv) addProduct(price float64) primitive.ObjectID {
	id := primitive.NewObjectID()
	e.products.products[id] = &models.Product{ID: id, Price: price, Category: primitive.NewObjectID()}
	return id
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func orderBody(productID primitive.ObjectID, user string) map[string]interface{} {
	return map[string]interface{}{
		"orderItems": []map[string]interface{}{
			{"product": productID.Hex(), "quantity": 2},
		},
		"shippingAddress1": "1 Main St",
		"city":             "Springfield",
		"user":             user,
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})
	productID := env.addProduct(12.5)

	token, err := env.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	w := env.do("POST", "/api/v1/orders", token, orderBody(productID, primitive.NewObjectID().Hex()))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeEnvelope(t, w)
	assert.Nil(t, body["error"])
	assert.EqualValues(t, http.StatusCreated, body["status"])
	data := body["data"].(map[string]interface{})
	assert.InDelta(t, 25.0, data["totalPrice"].(float64), 1e-9)
}

func TestCreateOrderUnknownProductIs400(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})

	token, err := env.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	w := env.do("POST", "/api/v1/orders", token, orderBody(primitive.NewObjectID(), primitive.NewObjectID().Hex()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.store.orders, "no order may be persisted")

	body := decodeEnvelope(t, w)
	assert.NotNil(t, body["error"])
}

func TestCreateOrderRequiresAuthWhenNotExempt(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: false})
	productID := env.addProduct(5)

	w := env.do("POST", "/api/v1/orders", "", orderBody(productID, primitive.NewObjectID().Hex()))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateOrderExemptPolicy(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: false, ExemptOrderCreate: true})
	productID := env.addProduct(5)

	w := env.do("POST", "/api/v1/orders", "", orderBody(productID, primitive.NewObjectID().Hex()))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateOrderOwnership(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: false})
	productID := env.addProduct(5)
	caller := primitive.NewObjectID().Hex()

	token, err := env.tokens.Issue(caller, false)
	require.NoError(t, err)

	// For someone else: rejected.
	w := env.do("POST", "/api/v1/orders", token, orderBody(productID, primitive.NewObjectID().Hex()))
	assert.Equal(t, http.StatusForbidden, w.Code)

	// For the caller: accepted.
	w = env.do("POST", "/api/v1/orders", token, orderBody(productID, caller))
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestGetOrderNullWhenMissing(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})

	token, err := env.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	w := env.do("GET", "/api/v1/orders?orderId="+primitive.NewObjectID().Hex(), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeEnvelope(t, w)
	assert.Nil(t, body["data"])
	assert.Nil(t, body["error"])
}

func TestTotalSalesEndpoint(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})

	token, err := env.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	w := env.do("GET", "/api/v1/orders/total-sales", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeEnvelope(t, w)
	data := body["data"].(map[string]interface{})
	assert.Zero(t, data["totalSales"].(float64))

	for _, price := range []float64{10, 20, 30} {
		productID := env.addProduct(price)
		user := primitive.NewObjectID().Hex()
		w := env.do("POST", "/api/v1/orders", token, orderBody(productID, user))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = env.do("GET", "/api/v1/orders/total-sales", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeEnvelope(t, w)
	data = body["data"].(map[string]interface{})
	assert.InDelta(t, 120.0, data["totalSales"].(float64), 1e-9)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})
	productID := env.addProduct(5)

	token, err := env.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	w := env.do("POST", "/api/v1/orders", token, orderBody(productID, primitive.NewObjectID().Hex()))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEnvelope(t, w)["data"].(map[string]interface{})
	orderID := created["id"].(string)

	w = env.do("PUT", "/api/v1/orders/status-update?orderId="+orderID, token, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, orderID, data["id"])
	assert.Equal(t, "shipped", data["status"])

	w = env.do("PUT", "/api/v1/orders/status-update?orderId=garbage", token, map[string]string{"status": "shipped"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})
	productID := env.addProduct(5)

	token, err := env.tokens.Issue(primitive.NewObjectID().Hex(), true)
	require.NoError(t, err)

	w := env.do("POST", "/api/v1/orders", token, orderBody(productID, primitive.NewObjectID().Hex()))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeEnvelope(t, w)["data"].(map[string]interface{})
	orderID := created["id"].(string)

	w = env.do("DELETE", "/api/v1/orders?orderId="+orderID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, fmt.Sprintf("Order id %s is successfully deleted!", orderID), data["message"])
	assert.Empty(t, env.store.orders)
	assert.Empty(t, env.store.items)

	w = env.do("DELETE", "/api/v1/orders?orderId=garbage", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("DELETE", "/api/v1/orders?orderId="+primitive.NewObjectID().Hex(), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExemptionTableOnRealRoutes(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{AdminOnly: true})

	// Order listing is protected.
	w := env.do("GET", "/api/v1/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health stays open.
	w = env.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusForMapsDomainErrors(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(repository.ErrInvalidID))
	assert.Equal(t, http.StatusBadRequest, statusFor(orders.ErrProductNotFound))
	assert.Equal(t, http.StatusBadRequest, statusFor(orders.ErrEmptyItems))
	assert.Equal(t, http.StatusNotFound, statusFor(repository.ErrNotFound))
	assert.Equal(t, http.StatusForbidden, statusFor(orders.ErrForbidden))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
