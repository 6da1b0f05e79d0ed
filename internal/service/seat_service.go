package service

import (
	"context"

	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/repository"
)

// SeatService books and releases banquet seats against a fixed grid
// of tables. The per-user quota caps how many seats one group
// representative may hold across all their bookings.
type SeatService struct {
	seats  SeatStore
	tables int
}

// NewSeatService returns a SeatService for a venue with the given
// number of tables.
func NewSeatService(seats SeatStore, tables int) *SeatService {
	return &SeatService{seats: seats, tables: tables}
}

// Book reserves all requested seats for the user or none of them.
// Every reference must fit the venue grid and appear at most once in
// the request; the quota is checked against the user's current
// holdings plus the whole batch before anything is written, and the
// store re-checks both the quota and seat availability inside its
// transaction.
func (s *SeatService) Book(ctx context.Context, userID uint64, quota int, refs []model.SeatRef) ([]model.SeatBooking, error) {
	seen := make(map[model.SeatRef]struct{}, len(refs))
	for _, ref := range refs {
		if !ref.Valid(s.tables) {
			return nil, ErrInvalidSeat
		}
		if _, dup := seen[ref]; dup {
			return nil, ErrInvalidSeat
		}
		seen[ref] = struct{}{}
	}

	held, err := s.seats.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if held+len(refs) > quota {
		return nil, repository.ErrQuotaExceeded
	}

	return s.seats.Book(ctx, userID, refs, quota)
}

// Release gives one of the user's seats back.
func (s *SeatService) Release(ctx context.Context, userID uint64, ref model.SeatRef) error {
	if !ref.Valid(s.tables) {
		return ErrInvalidSeat
	}
	return s.seats.Release(ctx, userID, ref)
}

// ListMine returns the user's current bookings.
func (s *SeatService) ListMine(ctx context.Context, userID uint64) ([]model.SeatBooking, error) {
	return s.seats.BookingsByUser(ctx, userID)
}

// SeatMap returns the occupancy of every table as a table-indexed
// list of taken seat numbers. Tables with no bookings are present
// with an empty list so clients can render the full grid.
func (s *SeatService) SeatMap(ctx context.Context) (map[int][]int, error) {
	bookings, err := s.seats.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	grid := make(map[int][]int, s.tables)
	for t := 1; t <= s.tables; t++ {
		grid[t] = []int{}
	}
	for _, b := range bookings {
		grid[b.TableNo] = append(grid[b.TableNo], b.SeatNo)
	}
	return grid, nil
}

// Tables reports the venue's table count.
func (s *SeatService) Tables() int { return s.tables }
