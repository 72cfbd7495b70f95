package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/eshop/api"
	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/events"
	"github.com/example/eshop/pkg/metrics"
	"github.com/example/eshop/pkg/orders"
	"github.com/example/eshop/pkg/repository"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/api-config.yaml", "path to config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := newLogger(&cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting API server",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// MongoDB
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoRepo.Close(ctx)
	}()

	ctx := context.Background()
	if err := mongoRepo.Ping(ctx); err != nil {
		logger.Fatal("MongoDB connection failed", zap.Error(err))
	}
	logger.Info("MongoDB connected successfully")

	// Redis
	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	// Repositories
	orderRepo := repository.NewOrderRepository(mongoRepo)
	productRepo := repository.NewProductRepository(mongoRepo)
	categoryRepo := repository.NewCategoryRepository(mongoRepo)
	userRepo := repository.NewUserRepository(mongoRepo)
	cachedProducts := repository.NewCachedProductRepository(productRepo, redisRepo, logger)

	// Event publisher is optional; the service runs without a broker.
	var publisher orders.EventPublisher
	if cfg.AMQP.URL != "" {
		p, err := events.NewPublisher(&cfg.AMQP)
		if err != nil {
			logger.Warn("AMQP connection failed, events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = p
			logger.Info("AMQP connected successfully")
		}
	}

	orderService := orders.NewService(orderRepo, cachedProducts, categoryRepo, userRepo, publisher, logger)

	tokens := auth.NewManager(&cfg.Auth)
	gate := auth.NewGate(tokens, api.Exemptions(&cfg.Auth), cfg.Auth.AdminOnly, logger)

	server := api.NewServer(cfg, logger, &api.Deps{
		Orders:       orderService,
		Products:     productRepo,
		ProductCache: cachedProducts,
		Categories:   categoryRepo,
		Users:        userRepo,
		Tokens:       tokens,
		Metrics:      metrics.NewServerMetrics("api"),
	})
	server.SetupRoutes(gate)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Service stopped")
}

func newLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zapCfg.Level = level
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	return zapCfg.Build()
}
