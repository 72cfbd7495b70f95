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

const (
	ordersCollection     = "orders"
	orderItemsCollection = "orderitems"
)

type OrderRepository struct {
	orders *mongo.Collection
	items  *mongo.Collection
}

func NewOrderRepository(m *MongoRepository) *OrderRepository {
	return &OrderRepository{
		orders: m.Collection(ordersCollection),
		items:  m.Collection(orderItemsCollection),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.DateCreated.IsZero() {
		order.DateCreated = time.Now().UTC()
	}
	res, err := r.orders.InsertOne(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	order.ID = res.InsertedID.(primitive.ObjectID)
	return order, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

// Find returns orders matching the filter, newest first.
func (r *OrderRepository) Find(ctx context.Context, filter bson.M, fields []string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "dateCreated", Value: -1}})
	if proj := fieldsProjection(fields); proj != nil {
		opts.SetProjection(proj)
	}

	cursor, err := r.orders.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.orders.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts,
	).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete order: %w", err)
	}
	return &order, nil
}

// TotalSales sums totalPrice over the whole collection in a single
// aggregation pass. An empty collection yields 0.
func (r *OrderRepository) TotalSales(ctx context.Context) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"totalSales": bson.M{"$sum": "$totalPrice"},
		}}},
	}

	cursor, err := r.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("aggregate total sales: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		TotalSales float64 `bson:"totalSales"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("decode total sales: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].TotalSales, nil
}

func (r *OrderRepository) InsertItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error) {
	res, err := r.items.InsertOne(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("insert order item: %w", err)
	}
	item.ID = res.InsertedID.(primitive.ObjectID)
	return item, nil
}

func (r *OrderRepository) FindItemByID(ctx context.Context, id primitive.ObjectID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.items.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order item: %w", err)
	}
	return &item, nil
}

func (r *OrderRepository) DeleteItem(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.items.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// fieldsProjection builds an inclusion projection from a field list.
func fieldsProjection(fields []string) bson.M {
	if len(fields) == 0 {
		return nil
	}
	proj := bson.M{}
	for _, f := range fields {
		if f != "" {
			proj[f] = 1
		}
	}
	if len(proj) == 0 {
		return nil
	}
	return proj
}
