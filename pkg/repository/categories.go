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

const categoriesCollection = "categories"

type CategoryRepository struct {
	categories *mongo.Collection
}

func NewCategoryRepository(m *MongoRepository) *CategoryRepository {
	return &CategoryRepository{categories: m.Collection(categoriesCollection)}
}

func (r *CategoryRepository) Insert(ctx context.Context, category *models.Category) (*models.Category, error) {
	if category.DateCreated.IsZero() {
		category.DateCreated = time.Now().UTC()
	}
	res, err := r.categories.InsertOne(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	category.ID = res.InsertedID.(primitive.ObjectID)
	return category, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := r.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Find(ctx context.Context, filter bson.M, fields []string) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}})
	if proj := fieldsProjection(fields); proj != nil {
		opts.SetProjection(proj)
	}

	cursor, err := r.categories.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err = cursor.All(ctx, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Category, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var category models.Category
	err := r.categories.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": update}, opts).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := r.categories.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&category)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete category: %w", err)
	}
	return &category, nil
}
