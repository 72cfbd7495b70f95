// Package orders implements order placement, lookup, status updates, and
// cascading deletion on top of the document store. Line items exist only
// through this package: they are created during placement and destroyed
// during deletion.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrEmptyItems      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("caller may not place orders for another user")
)

// OrderStore is the slice of the document store the orchestrator needs.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	Find(ctx context.Context, filter bson.M, fields []string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (*models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	TotalSales(ctx context.Context) (float64, error)
	InsertItem(ctx context.Context, item *models.OrderItem) (*models.OrderItem, error)
	FindItemByID(ctx context.Context, id primitive.ObjectID) (*models.OrderItem, error)
	DeleteItem(ctx context.Context, id primitive.ObjectID) error
}

// ProductResolver returns the product a line item references; the price used
// for the subtotal comes from here.
type ProductResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type CategoryResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
}

type UserResolver interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// EventPublisher is notified after successful order mutations. Publishing is
// best effort and never fails the request.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderDeleted(ctx context.Context, orderID primitive.ObjectID) error
}

type Service struct {
	store      OrderStore
	products   ProductResolver
	categories CategoryResolver
	users      UserResolver
	events     EventPublisher
	logger     *zap.Logger
}

func NewService(store OrderStore, products ProductResolver, categories CategoryResolver, users UserResolver, events EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		products:   products,
		categories: categories,
		users:      users,
		events:     events,
		logger:     logger,
	}
}

// Caller identifies the authenticated requester. Nil means the route was
// exempt from authentication.
type Caller struct {
	UserID  string
	IsAdmin bool
}

type ItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

type CreateRequest struct {
	OrderItems       []ItemRequest `json:"orderItems" binding:"required"`
	ShippingAddress1 string        `json:"shippingAddress1"`
	ShippingAddress2 string        `json:"shippingAddress2"`
	City             string        `json:"city"`
	Zip              string        `json:"zip"`
	Country          string        `json:"country"`
	Phone            string        `json:"phone"`
	Status           string        `json:"status"`
	User             string        `json:"user" binding:"required"`
}

// Create validates the request, assembles the line items, and persists the
// order. Validation happens before any write; assembly failures compensate
// by deleting the line items already created, so no order ever references
// missing or unpriced items.
func (s *Service) Create(ctx context.Context, req *CreateRequest, caller *Caller) (*models.Order, error) {
	if len(req.OrderItems) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.OrderItems {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	userID, err := repository.ParseID(req.User)
	if err != nil {
		return nil, err
	}

	if caller != nil && !caller.IsAdmin && caller.UserID != req.User {
		return nil, ErrForbidden
	}

	itemIDs, totalPrice, err := s.assemble(ctx, req.OrderItems)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = "pending"
	}

	order := &models.Order{
		OrderItems:       itemIDs,
		ShippingAddress1: req.ShippingAddress1,
		ShippingAddress2: req.ShippingAddress2,
		City:             req.City,
		Zip:              req.Zip,
		Country:          req.Country,
		Phone:            req.Phone,
		Status:           status,
		TotalPrice:       totalPrice,
		User:             userID,
		DateCreated:      time.Now().UTC(),
	}

	created, err := s.store.Insert(ctx, order)
	if err != nil {
		// The order document was never written; drop the line items so they
		// do not leak.
		s.removeItems(ctx, itemIDs)
		return nil, err
	}

	s.publish(func() error { return s.events.OrderCreated(ctx, created) }, "order.created", created.ID)

	return created, nil
}

// UpdateStatus overwrites the status field only and returns the updated
// order.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*models.Order, error) {
	id, err := repository.ParseID(orderID)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateStatus(ctx, id, status)
}

// DeleteResult reports a cascading deletion. The order itself is removed
// first; item removal is best effort, so ItemFailures may be non-empty even
// though the order is gone.
type DeleteResult struct {
	OrderID      primitive.ObjectID
	ItemFailures []string
}

// Delete removes the order, then every line item it referenced. All item
// removals are attempted even when earlier ones fail; failures are reported
// alongside the deletion, not instead of it.
func (s *Service) Delete(ctx context.Context, orderID string) (*DeleteResult, error) {
	id, err := repository.ParseID(orderID)
	if err != nil {
		return nil, err
	}

	order, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &DeleteResult{OrderID: order.ID}
	for _, itemID := range order.OrderItems {
		if err := s.store.DeleteItem(ctx, itemID); err != nil {
			s.logger.Error("Failed to delete order item",
				zap.String("order_id", order.ID.Hex()),
				zap.String("item_id", itemID.Hex()),
				zap.Error(err))
			result.ItemFailures = append(result.ItemFailures, itemID.Hex())
		}
	}

	s.publish(func() error { return s.events.OrderDeleted(ctx, order.ID) }, "order.deleted", order.ID)

	return result, nil
}

// TotalSales sums totalPrice across all orders; no orders means 0.
func (s *Service) TotalSales(ctx context.Context) (float64, error) {
	return s.store.TotalSales(ctx)
}

func (s *Service) publish(fn func() error, event string, orderID primitive.ObjectID) {
	if s.events == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event", event),
			zap.String("order_id", orderID.Hex()),
			zap.Error(err))
	}
}
