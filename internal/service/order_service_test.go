package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/repository"
)

func seededCatalog() *memStore {
	store := newMemStore()
	store.seedItem("TSHIRT", "Conference T-Shirt", 2500, map[[2]string]int{
		{"M", "black"}: 2,
		{"L", "black"}: 5,
	})
	store.seedItem("MUG", "Conference Mug", 1200, map[[2]string]int{
		{"", ""}: 10,
	})
	store.seedItem("HOODIE", "Conference Hoodie", 6000, map[[2]string]int{
		{"M", "black"}: 3,
	})
	store.seedPack("SWAG", "Swag Pack", 7500, map[string]int{
		"TSHIRT": 1,
		"HOODIE": 1,
	})
	return store
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{
			{Code: "TSHIRT", Quantity: 2, Size: "M", Color: "black"},
			{Code: "MUG", Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, int64(2*2500+1200), order.TotalCents)
	assert.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.PublicCode)

	assert.Equal(t, 0, store.stockOf("TSHIRT", "M", "black"))
	assert.Equal(t, 9, store.stockOf("MUG", "", ""))
}

func TestCreateOrderAllOrNothingOnStock(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	// Second line exceeds stock, so the first line's decrement must
	// not survive either.
	_, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{
			{Code: "MUG", Quantity: 3},
			{Code: "TSHIRT", Quantity: 6, Size: "L", Color: "black"},
		},
	})
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	assert.Equal(t, 10, store.stockOf("MUG", "", ""))
	assert.Equal(t, 5, store.stockOf("TSHIRT", "L", "black"))
}

func TestCreateOrderUnknownVariant(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	_, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "TSHIRT", Quantity: 1, Size: "XXL", Color: "black"}},
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCreateOrderPackExpansion(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "SWAG", Quantity: 1, Size: "M", Color: "black"}},
	})
	require.NoError(t, err)

	// One priced line for the pack, one zero-priced line per component.
	assert.Equal(t, int64(7500), order.TotalCents)
	require.Len(t, order.Items, 3)
	assert.Equal(t, "SWAG", order.Items[0].ItemCode)
	assert.Equal(t, "SWAG", order.Items[0].PackCode)
	assert.False(t, order.Items[0].ReservesStock())
	for _, l := range order.Items[1:] {
		assert.Equal(t, "SWAG", l.PackCode)
		assert.Zero(t, l.UnitPriceCents)
		assert.True(t, l.ReservesStock())
	}

	assert.Equal(t, 1, store.stockOf("TSHIRT", "M", "black"))
	assert.Equal(t, 2, store.stockOf("HOODIE", "M", "black"))
}

func TestConcurrentOrdersCannotOversell(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), uint64(i+1), model.CreateOrderInput{
				Items: []model.OrderLineInput{{Code: "TSHIRT", Quantity: 1, Size: "M", Color: "black"}},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repository.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 2, succeeded, "exactly the available stock may be sold")
	assert.Equal(t, 0, store.stockOf("TSHIRT", "M", "black"))
}

func TestTransitionHappyPath(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "MUG", Quantity: 1}},
	})
	require.NoError(t, err)

	order, err = svc.Transition(context.Background(), 7, false, order.ID, model.OrderConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.OrderConfirmed, order.Status)

	// DELIVERED needs staff even from PAID; PAID first via staff.
	order, err = svc.Transition(context.Background(), 99, true, order.ID, model.OrderPaid)
	require.NoError(t, err)
	order, err = svc.Transition(context.Background(), 99, true, order.ID, model.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderDelivered, order.Status)
	assert.Equal(t, uint64(99), order.StatusChangedBy)
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "MUG", Quantity: 1}},
	})
	require.NoError(t, err)
	before := order.StatusChangedAt

	again, err := svc.Transition(context.Background(), 7, false, order.ID, model.OrderPending)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, again.Status)
	assert.Equal(t, before, again.StatusChangedAt, "no-op must not touch the audit fields")
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "MUG", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), 7, false, order.ID, model.OrderDelivered)
	assert.ErrorIs(t, err, repository.ErrForbidden, "DELIVERED is staff-only")

	_, err = svc.Transition(context.Background(), 99, true, order.ID, model.OrderDelivered)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition, "PENDING cannot jump to DELIVERED")
}

func TestCancelReleasesStockOnce(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "TSHIRT", Quantity: 2, Size: "M", Color: "black"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, store.stockOf("TSHIRT", "M", "black"))

	order, err = svc.Transition(context.Background(), 7, false, order.ID, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
	assert.Equal(t, 2, store.stockOf("TSHIRT", "M", "black"))

	// Repeating the cancel is a no-op and must not release again.
	order, err = svc.Transition(context.Background(), 7, false, order.ID, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
	assert.Equal(t, 2, store.stockOf("TSHIRT", "M", "black"))
}

func TestCancelAfterPaymentIsStaffOnly(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "MUG", Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), 99, true, order.ID, model.OrderPaid)
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), 7, false, order.ID, model.OrderCancelled)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	order, err = svc.Transition(context.Background(), 99, true, order.ID, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := seededCatalog()
	svc := NewOrderService(store, store)

	order, err := svc.Create(context.Background(), 7, model.CreateOrderInput{
		Items: []model.OrderLineInput{{Code: "MUG", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 8, false, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	got, err := svc.Get(context.Background(), 8, true, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}
