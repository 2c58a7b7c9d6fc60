package handler

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/condortrails/tour-booking-api/internal/model"
	"github.com/condortrails/tour-booking-api/internal/repository"
)

// AdminCatalogHandler lets operators manage the tour catalog and its
// departures.  Departure seat totals can be edited here, but occupied
// seat counts cannot; those move only through booking operations.
type AdminCatalogHandler struct {
	Tours      *repository.TourRepo
	Departures *repository.DepartureRepo
}

// NewAdminCatalogHandler constructs an AdminCatalogHandler.
func NewAdminCatalogHandler(tours *repository.TourRepo, departures *repository.DepartureRepo) *AdminCatalogHandler {
	if tours == nil || departures == nil {
		panic("nil repository passed to NewAdminCatalogHandler")
	}
	return &AdminCatalogHandler{Tours: tours, Departures: departures}
}

// ----- tours -----

type tourReq struct {
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Country          string  `json:"country"`
	DurationDays     int     `json:"duration_days"`
	ActivityLevel    string  `json:"activity_level"`
	PricePerPerson   float64 `json:"price_per_person"`
	Currency         string  `json:"currency"`
	ShortDescription string  `json:"short_description"`
	LongDescription  string  `json:"long_description"`
	Active           *bool   `json:"active"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a URL-friendly slug from a tour name.
func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

func (req *tourReq) validate() (string, bool) {
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	req.Country = strings.TrimSpace(req.Country)
	if req.Name == "" {
		return "name is required", false
	}
	if req.DurationDays < 1 {
		return "duration_days must be at least 1", false
	}
	if req.PricePerPerson < 0 {
		return "price_per_person cannot be negative", false
	}
	if req.Slug == "" {
		req.Slug = slugify(req.Name)
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	return "", true
}

func (req *tourReq) toModel() *model.Tour {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &model.Tour{
		Name:                req.Name,
		Slug:                req.Slug,
		Country:             req.Country,
		DurationDays:        req.DurationDays,
		ActivityLevel:       req.ActivityLevel,
		PricePerPersonCents: uint32(math.Round(req.PricePerPerson * 100)),
		Currency:            strings.ToUpper(req.Currency),
		ShortDescription:    req.ShortDescription,
		LongDescription:     req.LongDescription,
		Active:              active,
	}
}

// CreateTour handles POST /v1/admin/tours.
func (h *AdminCatalogHandler) CreateTour(c echo.Context) error {
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	t := req.toModel()
	if err := h.Tours.Create(c.Request().Context(), t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create tour"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": t})
}

// ListTours handles GET /v1/admin/tours.  Unlike the public catalog it
// includes deactivated tours.
func (h *AdminCatalogHandler) ListTours(c echo.Context) error {
	items, err := h.Tours.List(c.Request().Context(), false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tours"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateTour handles PUT /v1/admin/tours/:id.
func (h *AdminCatalogHandler) UpdateTour(c echo.Context) error {
	tourID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}
	var req tourReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg, ok := req.validate(); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	t := req.toModel()
	t.ID = tourID
	err := h.Tours.Update(c.Request().Context(), t)
	switch {
	case err == nil, errors.Is(err, repository.ErrNoChange):
		return c.JSON(http.StatusOK, echo.Map{"item": t})
	case errors.Is(err, repository.ErrTourNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tour"})
}

// DeactivateTour handles DELETE /v1/admin/tours/:id.  Tours are soft
// deleted so their reservation history survives.
func (h *AdminCatalogHandler) DeactivateTour(c echo.Context) error {
	tourID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}
	err := h.Tours.Deactivate(c.Request().Context(), tourID)
	switch {
	case err == nil, errors.Is(err, repository.ErrNoChange):
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrTourNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to deactivate tour"})
}

// ----- departures -----

type departureReq struct {
	StartDate  string `json:"start_date"` // YYYY-MM-DD
	EndDate    string `json:"end_date"`   // YYYY-MM-DD
	TotalSeats int    `json:"total_seats"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

func (req *departureReq) parse() (start, end time.Time, msg string, ok bool) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return start, end, "start_date must be YYYY-MM-DD", false
	}
	end, err = time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return start, end, "end_date must be YYYY-MM-DD", false
	}
	if end.Before(start) {
		return start, end, "end_date cannot precede start_date", false
	}
	if req.TotalSeats < 1 {
		return start, end, "total_seats must be at least 1", false
	}
	return start, end, "", true
}

// CreateDeparture handles POST /v1/admin/tours/:id/departures.
func (h *AdminCatalogHandler) CreateDeparture(c echo.Context) error {
	tourID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tour id"})
	}
	if _, err := h.Tours.GetByID(c.Request().Context(), tourID); err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var req departureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, msg, ok := req.parse()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	d := &model.Departure{
		TourID:     tourID,
		StartDate:  start,
		EndDate:    end,
		TotalSeats: req.TotalSeats,
		Notes:      req.Notes,
	}
	if err := h.Departures.Create(c.Request().Context(), d); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create departure"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": d})
}

// UpdateDeparture handles PUT /v1/admin/departures/:id.  Lowering
// total_seats below the current occupancy is refused with 409.
func (h *AdminCatalogHandler) UpdateDeparture(c echo.Context) error {
	depID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid departure id"})
	}
	cur, err := h.Departures.GetByID(c.Request().Context(), depID)
	if err != nil {
		if errors.Is(err, repository.ErrDepartureNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var req departureReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, msg, ok := req.parse()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	status := cur.Status
	if req.Status != "" {
		status = model.DepartureStatus(req.Status)
		if !status.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown departure status"})
		}
	}
	cur.StartDate = start
	cur.EndDate = end
	cur.TotalSeats = req.TotalSeats
	cur.Status = status
	cur.Notes = req.Notes
	err = h.Departures.Update(c.Request().Context(), cur)
	switch {
	case err == nil, errors.Is(err, repository.ErrNoChange):
		return c.JSON(http.StatusOK, echo.Map{"item": cur})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "total_seats cannot drop below occupied seats"})
	case errors.Is(err, repository.ErrDepartureNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update departure"})
}

// DeleteDeparture handles DELETE /v1/admin/departures/:id.  Departures
// with active reservations cannot be removed.
func (h *AdminCatalogHandler) DeleteDeparture(c echo.Context) error {
	depID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid departure id"})
	}
	err := h.Departures.Delete(c.Request().Context(), depID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "departure has active reservations"})
	case errors.Is(err, repository.ErrDepartureNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete departure"})
}
