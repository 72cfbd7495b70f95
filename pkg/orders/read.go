package orders

import (
	"context"
	"errors"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// GetByID returns a single populated order, or (nil, nil) when no order
// matches; a missing order is a null result here, not an error.
func (s *Service) GetByID(ctx context.Context, orderID string, fields []string) (*models.PopulatedOrder, error) {
	id, err := repository.ParseID(orderID)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.Find(ctx, bson.M{"_id": id}, fields)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}

	populated := s.populate(ctx, &matches[0])
	return populated, nil
}

// List returns populated orders, newest first, optionally filtered to one
// owning user.
func (s *Service) List(ctx context.Context, userID string, fields []string) ([]*models.PopulatedOrder, error) {
	filter := bson.M{}
	if userID != "" {
		id, err := repository.ParseID(userID)
		if err != nil {
			return nil, err
		}
		filter["user"] = id
	}

	found, err := s.store.Find(ctx, filter, fields)
	if err != nil {
		return nil, err
	}

	populated := make([]*models.PopulatedOrder, len(found))
	for i := range found {
		populated[i] = s.populate(ctx, &found[i])
	}
	return populated, nil
}

// populate resolves each line item's product, that product's category, and
// the owning user with credentials stripped. Dangling references are logged
// and left nil rather than failing the read.
func (s *Service) populate(ctx context.Context, order *models.Order) *models.PopulatedOrder {
	populated := &models.PopulatedOrder{
		ID:               order.ID,
		OrderItems:       make([]models.PopulatedItem, 0, len(order.OrderItems)),
		ShippingAddress1: order.ShippingAddress1,
		ShippingAddress2: order.ShippingAddress2,
		City:             order.City,
		Zip:              order.Zip,
		Country:          order.Country,
		Phone:            order.Phone,
		Status:           order.Status,
		TotalPrice:       order.TotalPrice,
		DateCreated:      order.DateCreated,
	}

	for _, itemID := range order.OrderItems {
		item, err := s.store.FindItemByID(ctx, itemID)
		if err != nil {
			s.warnDangling("order item", itemID.Hex(), err)
			continue
		}

		pi := models.PopulatedItem{
			ID:       item.ID,
			Quantity: item.Quantity,
			Price:    item.Price,
		}

		product, err := s.products.FindByID(ctx, item.Product)
		if err != nil {
			s.warnDangling("product", item.Product.Hex(), err)
		} else {
			pp := &models.PopulatedProduct{Product: *product}
			category, err := s.categories.FindByID(ctx, product.Category)
			if err != nil {
				s.warnDangling("category", product.Category.Hex(), err)
			} else {
				pp.Category = category
			}
			pi.Product = pp
		}

		populated.OrderItems = append(populated.OrderItems, pi)
	}

	if !order.User.IsZero() {
		user, err := s.users.FindByID(ctx, order.User)
		if err != nil {
			s.warnDangling("user", order.User.Hex(), err)
		} else {
			user.PasswordHash = ""
			populated.User = user
		}
	}

	return populated
}

func (s *Service) warnDangling(kind, id string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Dangling reference while populating order",
			zap.String("kind", kind),
			zap.String("id", id))
		return
	}
	s.logger.Warn("Failed to resolve reference while populating order",
		zap.String("kind", kind),
		zap.String("id", id),
		zap.Error(err))
}
