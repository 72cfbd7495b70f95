package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/eshop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const productsCollection = "products"

type ProductRepository struct {
	products *mongo.Collection
}

func NewProductRepository(m *MongoRepository) *ProductRepository {
	return &ProductRepository{products: m.Collection(productsCollection)}
}

func (r *ProductRepository) Insert(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.DateCreated.IsZero() {
		product.DateCreated = time.Now().UTC()
	}
	res, err := r.products.InsertOne(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return product, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) Find(ctx context.Context, filter bson.M, fields []string) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}})
	if proj := fieldsProjection(fields); proj != nil {
		opts.SetProjection(proj)
	}

	cursor, err := r.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err = cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := r.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.products.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}
