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

const testTables = 10

func TestBookSeatsAllOrNothing(t *testing.T) {
	store := newMemStore()
	svc := NewSeatService(store, testTables)

	_, err := svc.Book(context.Background(), 1, 5, []model.SeatRef{{TableNo: 3, SeatNo: 4}})
	require.NoError(t, err)

	// One seat of the batch collides, so the free seat must stay free.
	_, err = svc.Book(context.Background(), 2, 5, []model.SeatRef{
		{TableNo: 3, SeatNo: 5},
		{TableNo: 3, SeatNo: 4},
	})
	assert.ErrorIs(t, err, repository.ErrSeatTaken)

	mine, err := svc.ListMine(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, mine)

	// The free seat is still bookable by anyone.
	booked, err := svc.Book(context.Background(), 3, 5, []model.SeatRef{{TableNo: 3, SeatNo: 5}})
	require.NoError(t, err)
	assert.Len(t, booked, 1)
}

func TestBookSeatsQuota(t *testing.T) {
	store := newMemStore()
	svc := NewSeatService(store, testTables)

	_, err := svc.Book(context.Background(), 1, 4, []model.SeatRef{
		{TableNo: 1, SeatNo: 1},
		{TableNo: 1, SeatNo: 2},
	})
	require.NoError(t, err)

	// Holding 2 with quota 4, a batch of 3 must be rejected whole.
	_, err = svc.Book(context.Background(), 1, 4, []model.SeatRef{
		{TableNo: 2, SeatNo: 1},
		{TableNo: 2, SeatNo: 2},
		{TableNo: 2, SeatNo: 3},
	})
	assert.ErrorIs(t, err, repository.ErrQuotaExceeded)

	n, err := store.CountByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// A batch of exactly the remaining quota passes.
	booked, err := svc.Book(context.Background(), 1, 4, []model.SeatRef{
		{TableNo: 2, SeatNo: 1},
		{TableNo: 2, SeatNo: 2},
	})
	require.NoError(t, err)
	assert.Len(t, booked, 4)
}

func TestBookSeatsValidatesReferences(t *testing.T) {
	store := newMemStore()
	svc := NewSeatService(store, testTables)

	cases := []struct {
		name string
		refs []model.SeatRef
	}{
		{"table beyond layout", []model.SeatRef{{TableNo: testTables + 1, SeatNo: 1}}},
		{"seat beyond table", []model.SeatRef{{TableNo: 1, SeatNo: model.SeatsPerTable + 1}}},
		{"zero table", []model.SeatRef{{TableNo: 0, SeatNo: 1}}},
		{"duplicate in batch", []model.SeatRef{{TableNo: 1, SeatNo: 1}, {TableNo: 1, SeatNo: 1}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), 1, 5, tc.refs)
			assert.ErrorIs(t, err, ErrInvalidSeat)
		})
	}
}

func TestConcurrentBookingOfSameSeat(t *testing.T) {
	store := newMemStore()
	svc := NewSeatService(store, testTables)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), uint64(i+1), 5, []model.SeatRef{{TableNo: 4, SeatNo: 7}})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, repository.ErrSeatTaken)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestReleaseThenRebook(t *testing.T) {
	store := newMemStore()
	svc := NewSeatService(store, testTables)

	ref := model.SeatRef{TableNo: 6, SeatNo: 2}
	_, err := svc.Book(context.Background(), 1, 5, []model.SeatRef{ref})
	require.NoError(t, err)

	// Only the holder can release.
	err = svc.Release(context.Background(), 2, ref)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svc.Release(context.Background(), 1, ref))
	err = svc.Release(context.Background(), 1, ref)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Book(context.Background(), 2, 5, []model.SeatRef{ref})
	assert.NoError(t, err)
}

func TestSeatMapCoversAllTables(t *testing.T) {
	store := newMemStore()
	svc := NewSeatService(store, testTables)

	_, err := svc.Book(context.Background(), 1, 5, []model.SeatRef{
		{TableNo: 2, SeatNo: 1},
		{TableNo: 2, SeatNo: 9},
	})
	require.NoError(t, err)

	grid, err := svc.SeatMap(context.Background())
	require.NoError(t, err)
	assert.Len(t, grid, testTables)
	assert.ElementsMatch(t, []int{1, 9}, grid[2])
	assert.Empty(t, grid[5])
}
