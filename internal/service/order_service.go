package service

import (
	"context"
	"errors"
	"log"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/repository"
	"github.com/iliyamo/conference-commerce/internal/utils"
)

// OrderService owns order creation and the status state machine.
type OrderService struct {
	catalog CatalogStore
	orders  OrderStore
}

// NewOrderService returns an OrderService over the given stores.
func NewOrderService(catalog CatalogStore, orders OrderStore) *OrderService {
	return &OrderService{catalog: catalog, orders: orders}
}

// Create builds a PENDING order from the requested lines. Prices
// come from the catalog, never from the client: each line is priced
// at the current item or pack price and snapshotted onto the order.
// A pack line expands into one priced line for the pack plus one
// zero-priced line per component carrying the quantity to reserve;
// the requested size and color apply to every apparel component.
// Stock is reserved atomically with the insert, so either every line
// is reserved and the order exists, or neither.
func (s *OrderService) Create(ctx context.Context, userID uint64, in model.CreateOrderInput) (*model.Order, error) {
	order := &model.Order{
		PublicCode:      utils.NewOrderCode(),
		UserID:          userID,
		Status:          model.OrderPending,
		StatusChangedBy: userID,
	}

	for _, line := range in.Items {
		item, err := s.catalog.ItemByCode(ctx, line.Code)
		if err == nil {
			if !item.Active {
				return nil, repository.ErrNotFound
			}
			if item.Variant(line.Size, line.Color) == nil {
				return nil, repository.ErrNotFound
			}
			order.Items = append(order.Items, model.OrderItem{
				ItemCode:       item.Code,
				Name:           item.Name,
				UnitPriceCents: item.UnitPriceCents,
				Quantity:       line.Quantity,
				Size:           line.Size,
				Color:          line.Color,
			})
			order.TotalCents += item.UnitPriceCents * int64(line.Quantity)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}

		pack, err := s.catalog.PackByCode(ctx, line.Code)
		if err != nil {
			return nil, err
		}
		if !pack.Active {
			return nil, repository.ErrNotFound
		}
		// Priced bookkeeping line for the pack itself.
		order.Items = append(order.Items, model.OrderItem{
			ItemCode:       pack.Code,
			Name:           pack.Name,
			UnitPriceCents: pack.PriceCents,
			Quantity:       line.Quantity,
			PackCode:       pack.Code,
		})
		order.TotalCents += pack.PriceCents * int64(line.Quantity)
		for _, comp := range pack.Items {
			item, err := s.catalog.ItemByCode(ctx, comp.ItemCode)
			if err != nil {
				return nil, err
			}
			size, color := line.Size, line.Color
			if item.Variant(size, color) == nil {
				return nil, repository.ErrNotFound
			}
			order.Items = append(order.Items, model.OrderItem{
				ItemCode: comp.ItemCode,
				Name:     item.Name,
				Quantity: comp.Quantity * line.Quantity,
				Size:     size,
				Color:    color,
				PackCode: pack.Code,
			})
		}
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// Get returns an order, enforcing ownership for non-privileged
// callers. Orders of other users are indistinguishable from missing
// ones for regular callers.
func (s *OrderService) Get(ctx context.Context, callerID uint64, privileged bool, orderID uint64) (*model.Order, error) {
	order, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !privileged && order.UserID != callerID {
		return nil, repository.ErrNotFound
	}
	return order, nil
}

// ListMine returns the caller's orders newest first.
func (s *OrderService) ListMine(ctx context.Context, userID uint64) ([]model.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Transition moves an order to a new status on behalf of an actor.
// A request for the order's current status is an audited no-op: it
// succeeds without touching the row and without consulting the state
// machine. Cancellation releases the order's reserved stock in the
// same transaction that flips the status.
func (s *OrderService) Transition(ctx context.Context, actorID uint64, privileged bool, orderID uint64, to string) (*model.Order, error) {
	order, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !privileged && order.UserID != actorID {
		return nil, repository.ErrNotFound
	}
	if order.Status == to {
		log.Printf("order %s: status %s requested again by %d, no-op", order.PublicCode, to, actorID)
		return order, nil
	}
	if !model.CanTransition(order.Status, to) {
		return nil, repository.ErrInvalidTransition
	}
	if model.TransitionPrivileged(order.Status, to) && !privileged {
		return nil, repository.ErrForbidden
	}

	var applied bool
	if to == model.OrderCancelled {
		applied, err = s.orders.Cancel(ctx, order, []string{order.Status}, actorID)
	} else {
		applied, err = s.orders.Transition(ctx, orderID, []string{order.Status}, to, actorID)
	}
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost a race: the order moved under us. Re-read and let the
		// caller see the fresh status; a retry against it will be
		// judged by the state machine again.
		fresh, ferr := s.orders.ByID(ctx, orderID)
		if ferr != nil {
			return nil, ferr
		}
		if fresh.Status == to {
			return fresh, nil
		}
		return nil, repository.ErrInvalidTransition
	}
	return s.orders.ByID(ctx, orderID)
}
