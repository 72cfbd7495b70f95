package repository

import (
	"context"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// CachedProductRepository is a read-through cache over product lookups.
// Cache failures are logged and fall back to Mongo; they never fail a read.
type CachedProductRepository struct {
	products *ProductRepository
	cache    *RedisRepository
	logger   *zap.Logger
}

func NewCachedProductRepository(products *ProductRepository, cache *RedisRepository, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		products: products,
		cache:    cache,
		logger:   logger,
	}
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if product, err := r.cache.GetProductCache(ctx, id); err == nil {
		return product, nil
	}

	product, err := r.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CacheProduct(ctx, product); err != nil {
		r.logger.Warn("Failed to cache product",
			zap.String("product_id", id.Hex()),
			zap.Error(err))
	}
	return product, nil
}

func (r *CachedProductRepository) Invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := r.cache.InvalidateProduct(ctx, id); err != nil {
		r.logger.Warn("Failed to invalidate product cache",
			zap.String("product_id", id.Hex()),
			zap.Error(err))
	}
}
