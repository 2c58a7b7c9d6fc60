package handler

import (
	"errors"   // errors.Is comparisons against repository sentinels
	"net/http" // HTTP status codes
	"time"     // timestamp formatting

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/condortrails/tour-booking-api/internal/booking"
	"github.com/condortrails/tour-booking-api/internal/repository"
)

// ReservationHandler serves the customer-facing booking endpoints.
// All seat and state mutations go through the booking manager; the
// reservation repository is used only for reads and for the customer
// comments field, which does not affect capacity.
type ReservationHandler struct {
	Booking      *booking.Manager
	Reservations *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(mgr *booking.Manager, reservations *repository.ReservationRepo) *ReservationHandler {
	if mgr == nil || reservations == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Booking: mgr, Reservations: reservations}
}

type createReservationReq struct {
	TourID      uint64  `json:"tour_id"`
	DepartureID uint64  `json:"departure_id"`
	PartySize   int     `json:"party_size"`
	Comments    *string `json:"comments"`
}

// reservationResp is the JSON shape returned after booking operations.
// Amounts are decimal values in the reservation's currency.
type reservationResp struct {
	ID           uint64   `json:"id"`
	TourID       uint64   `json:"tour_id"`
	DepartureID  uint64   `json:"departure_id"`
	PartySize    int      `json:"party_size"`
	State        string   `json:"state"`
	PaymentState string   `json:"payment_state"`
	TotalAmount  float64  `json:"total_amount"`
	Currency     string   `json:"currency"`
	RefundAmount *float64 `json:"refund_amount,omitempty"`
	CancelledAt  *string  `json:"cancelled_at,omitempty"`
	CreatedAt    string   `json:"created_at"`
	Notified     bool     `json:"notified"`
}

func toReservationResp(res *booking.Result) reservationResp {
	r := res.Reservation
	out := reservationResp{
		ID:           r.ID,
		TourID:       r.TourID,
		DepartureID:  r.DepartureID,
		PartySize:    r.PartySize,
		State:        string(r.State),
		PaymentState: string(r.PaymentState),
		TotalAmount:  float64(r.TotalAmountCents) / 100,
		Currency:     r.Currency,
		CreatedAt:    r.CreatedAt.UTC().Format(time.RFC3339),
		Notified:     res.Notified,
	}
	if r.RefundAmountCents != nil {
		v := float64(*r.RefundAmountCents) / 100
		out.RefundAmount = &v
	}
	if r.CancelledAt != nil {
		v := r.CancelledAt.UTC().Format(time.RFC3339)
		out.CancelledAt = &v
	}
	return out
}

// Create handles POST /v1/reservations.  It places a pre-reservation
// for the authenticated customer, holding seats on the departure until
// an operator confirms or cancels the booking.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.TourID == 0 || req.DepartureID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tour_id and departure_id are required"})
	}

	result, err := h.Booking.Reserve(c.Request().Context(), booking.ReserveInput{
		UserID:      userID,
		TourID:      req.TourID,
		DepartureID: req.DepartureID,
		PartySize:   req.PartySize,
		Comments:    req.Comments,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResp(result))
}

// List handles GET /v1/my-reservations.  It returns all reservations of
// the current user with tour and departure details, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// Get handles GET /v1/reservations/:id.  Customers can only see their
// own reservations; a reservation owned by someone else answers 403.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), resID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toReservationResp(&booking.Result{Reservation: res})})
}

type cancelReq struct {
	Reason *string `json:"reason"`
}

// Cancel handles POST /v1/reservations/:id/cancel.  The refund policy
// applies automatically when the reservation was already paid: a full
// refund more than 30 days before departure, half between 16 and 30
// days, nothing at 15 days or closer.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}

	// Ownership check happens before touching the booking manager so
	// another customer's reservation yields 403, not a state error.
	res, err := h.Reservations.GetByID(c.Request().Context(), resID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	if res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req cancelReq
	_ = c.Bind(&req)

	result, err := h.Booking.Cancel(c.Request().Context(), booking.CancelInput{
		ReservationID: resID,
		Actor:         booking.ActorCustomer,
		Reason:        req.Reason,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(result))
}

type commentsReq struct {
	Comments *string `json:"comments"`
}

// UpdateComments handles PATCH /v1/reservations/:id/comments.  The
// free-text comments field is the only part of a reservation customers
// may edit directly; everything else moves through booking operations.
func (h *ReservationHandler) UpdateComments(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req commentsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	err = h.Reservations.UpdateComments(c.Request().Context(), resID, userID, req.Comments)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update comments"})
	}
	return c.NoContent(http.StatusNoContent)
}
