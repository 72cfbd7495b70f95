package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/metrics"
	"github.com/example/eshop/pkg/orders"
	"github.com/example/eshop/pkg/repository"
	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const apiBase = "/api/v1"

// Deps collects the collaborators the handlers call into.
type Deps struct {
	Orders       *orders.Service
	Products     *repository.ProductRepository
	ProductCache *repository.CachedProductRepository
	Categories   *repository.CategoryRepository
	Users        *repository.UserRepository
	Tokens       *auth.Manager
	Metrics      *metrics.ServerMetrics
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	validate *validatorv10.Validate
	deps     *Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps *Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(logger))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware())
	}

	return &Server{
		config:   cfg,
		logger:   logger,
		router:   router,
		validate: validatorv10.New(),
		deps:     deps,
	}
}

// Exemptions builds the ordered route-exemption table: product and category
// reads, registration, and login stay open, as do the operational endpoints.
// Order creation is protected unless the config opts into the open policy.
func Exemptions(cfg *config.AuthConfig) []auth.Exemption {
	exemptions := []auth.Exemption{
		{Pattern: apiBase + "/products*", Methods: []string{http.MethodGet, http.MethodOptions}},
		{Pattern: apiBase + "/categories*", Methods: []string{http.MethodGet, http.MethodOptions}},
		{Pattern: apiBase + "/users/register", Methods: []string{http.MethodPost}},
		{Pattern: apiBase + "/users/login", Methods: []string{http.MethodPost}},
		{Pattern: "/health", Methods: []string{http.MethodGet}},
		{Pattern: "/metrics", Methods: []string{http.MethodGet}},
		{Pattern: "/swagger*", Methods: []string{http.MethodGet}},
		{Pattern: "/public/uploads*", Methods: []string{http.MethodGet}},
	}
	if cfg.ExemptOrderCreate {
		exemptions = append(exemptions, auth.Exemption{
			Pattern: apiBase + "/orders",
			Methods: []string{http.MethodPost},
		})
	}
	return exemptions
}

func (s *Server) SetupRoutes(gate *auth.Gate) {
	s.router.Use(gate.Middleware())

	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/metrics", metrics.Handler())
	s.router.Static("/public/uploads", s.config.Uploads.Dir)

	v1 := s.router.Group(apiBase)
	{
		products := v1.Group("/products")
		{
			products.GET("", s.listProducts)
			products.GET("/get/count", s.countProducts)
			products.POST("", s.createProduct)
			products.PUT("", s.updateProduct)
			products.PUT("/gallery", s.updateProductGallery)
			products.DELETE("", s.deleteProduct)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", s.listCategories)
			categories.POST("", s.createCategory)
			categories.PUT("", s.updateCategory)
			categories.DELETE("", s.deleteCategory)
		}

		users := v1.Group("/users")
		{
			users.GET("", s.listUsers)
			users.GET("/get/count", s.countUsers)
			users.POST("/register", s.registerUser)
			users.POST("/login", s.loginUser)
			users.PUT("", s.updateUser)
			users.DELETE("", s.deleteUser)
		}

		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.GET("", s.listOrders)
			ordersGroup.GET("/total-sales", s.totalSales)
			ordersGroup.POST("", s.createOrder)
			ordersGroup.PUT("/status-update", s.updateOrderStatus)
			ordersGroup.DELETE("", s.deleteOrder)
		}
	}

	// Swagger
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("API server starting", zap.String("address", addr))
	return s.router.Run(addr)
}

// Router exposes the engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("request_id", c.GetString("request_id")),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
