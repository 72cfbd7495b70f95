package orders

import (
	"context"
	"errors"

	"github.com/example/eshop/pkg/models"
	"github.com/example/eshop/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// assembled is one fan-out slot, written by exactly one goroutine.
type assembled struct {
	itemID   primitive.ObjectID
	created  bool
	subtotal float64
}

// assemble resolves and persists one line item per request pair. Pairs are
// processed concurrently; results land in a pre-sized slice indexed by the
// original position, so the returned id sequence matches the request order
// no matter which goroutine finishes first. If any pair fails, the items
// already created are deleted before the error is returned.
func (s *Service) assemble(ctx context.Context, items []ItemRequest) ([]primitive.ObjectID, float64, error) {
	results := make([]assembled, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			productID, err := repository.ParseID(item.Product)
			if err != nil {
				return ErrProductNotFound
			}

			product, err := s.products.FindByID(gctx, productID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrProductNotFound
			}
			if err != nil {
				return err
			}

			created, err := s.store.InsertItem(gctx, &models.OrderItem{
				Product:  productID,
				Quantity: item.Quantity,
				Price:    product.Price,
			})
			if err != nil {
				return err
			}

			results[i] = assembled{
				itemID:   created.ID,
				created:  true,
				subtotal: product.Price * float64(item.Quantity),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var createdIDs []primitive.ObjectID
		for _, r := range results {
			if r.created {
				createdIDs = append(createdIDs, r.itemID)
			}
		}
		s.removeItems(ctx, createdIDs)
		return nil, 0, err
	}

	itemIDs := make([]primitive.ObjectID, len(results))
	var totalPrice float64
	for i, r := range results {
		itemIDs[i] = r.itemID
		totalPrice += r.subtotal
	}
	return itemIDs, totalPrice, nil
}

// removeItems is the compensating action for a failed placement: best-effort
// deletion of line items that were persisted before the failure.
func (s *Service) removeItems(ctx context.Context, itemIDs []primitive.ObjectID) {
	for _, id := range itemIDs {
		if err := s.store.DeleteItem(ctx, id); err != nil {
			s.logger.Warn("Failed to remove orphaned order item",
				zap.String("item_id", id.Hex()),
				zap.Error(err))
		}
	}
}
