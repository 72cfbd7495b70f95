package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const claimsContextKey = "authClaims"

// Exemption names a path pattern and the methods for which authorization is
// bypassed. A pattern ending in "*" matches the literal prefix followed by
// anything; any other pattern matches exactly.
type Exemption struct {
	Pattern string
	Methods []string
}

func (e Exemption) matches(method, path string) bool {
	methodOK := false
	for _, m := range e.Methods {
		if strings.EqualFold(m, method) {
			methodOK = true
			break
		}
	}
	if !methodOK {
		return false
	}

	if prefix, ok := strings.CutSuffix(e.Pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return e.Pattern == path
}

// Gate is the per-request authorization state machine: exemption match,
// credential verification, then the revocation policy.
type Gate struct {
	manager    *Manager
	exemptions []Exemption
	adminOnly  bool
	logger     *zap.Logger
}

// NewGate captures the exemption table and policy at startup; the table is
// read-only afterward.
func NewGate(manager *Manager, exemptions []Exemption, adminOnly bool, logger *zap.Logger) *Gate {
	return &Gate{
		manager:    manager,
		exemptions: exemptions,
		adminOnly:  adminOnly,
		logger:     logger,
	}
}

func (g *Gate) exempt(method, path string) bool {
	for _, e := range g.exemptions {
		if e.matches(method, path) {
			return true
		}
	}
	return false
}

// Middleware runs before every handler. Failures short-circuit with the
// standard response envelope and never reach a handler.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.exempt(c.Request.Method, c.Request.URL.Path) {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			g.reject(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := g.manager.Verify(token)
		if err != nil {
			g.reject(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		// Revocation policy: a valid non-admin token is treated as revoked
		// on protected routes when admin-only mode is on.
		if g.adminOnly && !claims.IsAdmin {
			g.reject(c, http.StatusUnauthorized, ErrNotAdmin.Error())
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func (g *Gate) reject(c *gin.Context, status int, msg string) {
	g.logger.Info("Request rejected by auth gate",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.String("reason", msg))

	c.AbortWithStatusJSON(status, gin.H{
		"data":   nil,
		"status": status,
		"error":  msg,
	})
}

// ClaimsFromContext returns the verified claims set by the middleware, if
// the route required authentication.
func ClaimsFromContext(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}
