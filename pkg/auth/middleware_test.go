package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExemptionMatching(t *testing.T) {
	wildcard := Exemption{Pattern: "/api/v1/products*", Methods: []string{"GET", "OPTIONS"}}
	assert.True(t, wildcard.matches("GET", "/api/v1/products"))
	assert.True(t, wildcard.matches("GET", "/api/v1/products/get/count"))
	assert.True(t, wildcard.matches("OPTIONS", "/api/v1/products"))
	assert.False(t, wildcard.matches("POST", "/api/v1/products"))
	assert.False(t, wildcard.matches("GET", "/api/v1/orders"))

	literal := Exemption{Pattern: "/api/v1/users/login", Methods: []string{"POST"}}
	assert.True(t, literal.matches("POST", "/api/v1/users/login"))
	assert.False(t, literal.matches("POST", "/api/v1/users/login/extra"))
	assert.False(t, literal.matches("GET", "/api/v1/users/login"))
}

func gateRouter(t *testing.T, adminOnly bool) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := testManager("gate-secret")
	gate := NewGate(m, []Exemption{
		{Pattern: "/api/v1/products*", Methods: []string{"GET", "OPTIONS"}},
	}, adminOnly, zap.NewNop())

	router := gin.New()
	router.Use(gate.Middleware())
	router.GET("/api/v1/products", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "products"})
	})
	router.GET("/api/v1/orders", func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		require.True(t, ok, "protected handler must see verified claims")
		c.JSON(http.StatusOK, gin.H{"data": claims.UserID})
	})
	return router, m
}

func doRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestExemptRouteSkipsAuth(t *testing.T) {
	router, _ := gateRouter(t, true)

	w := doRequest(router, "GET", "/api/v1/products", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	router, _ := gateRouter(t, true)

	w := doRequest(router, "GET", "/api/v1/orders", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["data"])
	assert.NotNil(t, body["error"], "failure must carry a non-null error")
	assert.EqualValues(t, http.StatusUnauthorized, body["status"])
}

func TestProtectedRouteRejectsInvalidToken(t *testing.T) {
	router, _ := gateRouter(t, true)

	w := doRequest(router, "GET", "/api/v1/orders", "bogus")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRevocationPolicyRejectsNonAdmin(t *testing.T) {
	router, m := gateRouter(t, true)

	token, err := m.Issue("user-1", false)
	require.NoError(t, err)

	// Correctly signed, yet treated as revoked under the admin-only policy.
	w := doRequest(router, "GET", "/api/v1/orders", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin, err := m.Issue("admin-1", true)
	require.NoError(t, err)
	w = doRequest(router, "GET", "/api/v1/orders", admin)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRevocationPolicyDisabledAcceptsNonAdmin(t *testing.T) {
	router, m := gateRouter(t, false)

	token, err := m.Issue("user-1", false)
	require.NoError(t, err)

	w := doRequest(router, "GET", "/api/v1/orders", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
