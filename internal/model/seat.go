package model

import "time"

// SeatsPerTable is the fixed capacity of one banquet table.  The
// bookings of a table always form a partition of these seat numbers.
const SeatsPerTable = 12

// SeatRef addresses a single banquet seat by table and seat number
// (1-based within the table).
type SeatRef struct {
	TableNo int `json:"table_no" validate:"required,gte=1"`
	SeatNo  int `json:"seat_no" validate:"required,gte=1,lte=12"`
}

// Valid reports whether the reference fits the fixed grid of the
// given table count.
func (r SeatRef) Valid(tables int) bool {
	return r.TableNo >= 1 && r.TableNo <= tables && r.SeatNo >= 1 && r.SeatNo <= SeatsPerTable
}

// SeatBooking records one occupied banquet seat.  At most one
// booking exists per (table, seat) pair; the unique key in the
// seat_bookings table enforces this.  Releasing a seat deletes the
// row, so every stored booking is active.
type SeatBooking struct {
	ID        uint64    // seat_bookings.id
	UserID    uint64    // seat_bookings.user_id (the group representative)
	TableNo   int       // seat_bookings.table_no
	SeatNo    int       // seat_bookings.seat_no
	CreatedAt time.Time // seat_bookings.created_at
}
