package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/condortrails/tour-booking-api/internal/booking"
	"github.com/condortrails/tour-booking-api/internal/model"
	"github.com/condortrails/tour-booking-api/internal/repository"
)

// AdminReservationHandler serves the operator side of the booking
// workflow: the confirmation queue, manual bookings taken over phone or
// email, operator cancellations and the dashboard aggregates.
type AdminReservationHandler struct {
	Booking      *booking.Manager
	Reservations *repository.ReservationRepo
}

// NewAdminReservationHandler constructs an AdminReservationHandler.
func NewAdminReservationHandler(mgr *booking.Manager, reservations *repository.ReservationRepo) *AdminReservationHandler {
	if mgr == nil || reservations == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Booking: mgr, Reservations: reservations}
}

// List handles GET /v1/admin/reservations.  Optional query parameters
// state, payment_state and tour_id narrow the listing.
func (h *AdminReservationHandler) List(c echo.Context) error {
	var filter repository.AdminFilter
	if s := strings.TrimSpace(c.QueryParam("state")); s != "" {
		state := model.ReservationState(s)
		if !state.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown state filter"})
		}
		filter.State = &state
	}
	if s := strings.TrimSpace(c.QueryParam("payment_state")); s != "" {
		ps := model.PaymentState(s)
		if !ps.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment_state filter"})
		}
		filter.PaymentState = &ps
	}
	if s := strings.TrimSpace(c.QueryParam("tour_id")); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour_id filter"})
		}
		filter.TourID = &id
	}

	items, err := h.Reservations.ListAdmin(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Pending handles GET /v1/admin/reservations/pending.  It is the
// operator's work queue: pre-reservations waiting for payment
// verification, oldest payments first served by the default ordering.
func (h *AdminReservationHandler) Pending(c echo.Context) error {
	state := model.ReservationPreReservation
	items, err := h.Reservations.ListAdmin(c.Request().Context(), repository.AdminFilter{State: &state})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type confirmReq struct {
	PaymentMethod string `json:"payment_method"`
	PaymentRef    string `json:"payment_ref"`
}

// Confirm handles POST /v1/admin/reservations/:id/confirm.  The
// operator records the verified payment and the reservation moves from
// pre_reservation to confirmed.
func (h *AdminReservationHandler) Confirm(c echo.Context) error {
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req confirmReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	req.PaymentRef = strings.TrimSpace(req.PaymentRef)
	if req.PaymentMethod == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_method is required"})
	}

	result, err := h.Booking.Confirm(c.Request().Context(), booking.ConfirmInput{
		ReservationID: resID,
		PaymentMethod: req.PaymentMethod,
		PaymentRef:    req.PaymentRef,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(result))
}

// Cancel handles POST /v1/admin/reservations/:id/cancel.  Operator
// cancellations end in the cancelled_by_operator state; the same
// refund policy applies when the reservation was paid.
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req cancelReq
	_ = c.Bind(&req)

	result, err := h.Booking.Cancel(c.Request().Context(), booking.CancelInput{
		ReservationID: resID,
		Actor:         booking.ActorOperator,
		Reason:        req.Reason,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResp(result))
}

type adminCreateReq struct {
	UserID      uint64  `json:"user_id"`
	TourID      uint64  `json:"tour_id"`
	DepartureID uint64  `json:"departure_id"`
	PartySize   int     `json:"party_size"`
	Comments    *string `json:"comments"`
}

// Create handles POST /v1/admin/reservations.  It books on behalf of a
// customer, for walk-in, phone or email bookings.  The reservation
// follows the same lifecycle as a self-service one.
func (h *AdminReservationHandler) Create(c echo.Context) error {
	var req adminCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == 0 || req.TourID == 0 || req.DepartureID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id, tour_id and departure_id are required"})
	}

	result, err := h.Booking.Reserve(c.Request().Context(), booking.ReserveInput{
		UserID:      req.UserID,
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

// Dashboard handles GET /v1/admin/dashboard.  It returns reservation
// counts per state, the number of pending payments and confirmed
// revenue grouped by currency.
func (h *AdminReservationHandler) Dashboard(c echo.Context) error {
	sum, err := h.Reservations.Summary(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	return c.JSON(http.StatusOK, sum)
}
