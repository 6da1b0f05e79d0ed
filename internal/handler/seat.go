package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-commerce/internal/middleware"
	"github.com/iliyamo/conference-commerce/internal/model"
	"github.com/iliyamo/conference-commerce/internal/service"
)

// SeatHandler serves banquet seat booking for authenticated group
// representatives.  The per-user quota comes from the seat_quota JWT
// claim so that an enlarged delegation takes effect without a
// service restart.
type SeatHandler struct {
	Seats *service.SeatService
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(seats *service.SeatService) *SeatHandler {
	if seats == nil {
		panic("nil service passed to NewSeatHandler")
	}
	return &SeatHandler{Seats: seats}
}

// SeatBookingView is one booked seat as returned to clients.
type SeatBookingView struct {
	TableNo  int       `json:"table_no"`
	SeatNo   int       `json:"seat_no"`
	BookedAt time.Time `json:"booked_at"`
}

func bookingViews(bookings []model.SeatBooking) []SeatBookingView {
	out := make([]SeatBookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, SeatBookingView{TableNo: b.TableNo, SeatNo: b.SeatNo, BookedAt: b.CreatedAt})
	}
	return out
}

// Book handles POST /v1/seats/book.  The request lists seat
// references; the whole batch is booked or none of it is.  A seat
// already held by anyone answers 409 with no partial effect.
func (h *SeatHandler) Book(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in model.BookSeatsInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	quota := middleware.SeatQuota(c)
	bookings, err := h.Seats.Book(c.Request().Context(), userID, quota, in.Seats)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"seats": bookingViews(bookings)})
}

// Release handles DELETE /v1/seats/:table/:seat.  Only the booker
// can release a seat; someone else's booking answers 404.
func (h *SeatHandler) Release(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tableNo, err := strconv.Atoi(c.Param("table"))
	if err != nil || tableNo < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table number"})
	}
	seatNo, err := strconv.Atoi(c.Param("seat"))
	if err != nil || seatNo < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat number"})
	}
	ref := model.SeatRef{TableNo: tableNo, SeatNo: seatNo}
	if err := h.Seats.Release(c.Request().Context(), userID, ref); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMine handles GET /v1/seats/mine.
func (h *SeatHandler) ListMine(c echo.Context) error {
	userID, ok := authedUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Seats.ListMine(c.Request().Context(), userID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"seats": bookingViews(bookings)})
}

// SeatMap handles GET /v1/seats.  The response maps every table
// number to its occupied seat numbers, empty tables included, so
// clients can render the full floor without knowing the table count.
func (h *SeatHandler) SeatMap(c echo.Context) error {
	m, err := h.Seats.SeatMap(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tables":          h.Seats.Tables(),
		"seats_per_table": model.SeatsPerTable,
		"occupied":        m,
	})
}
