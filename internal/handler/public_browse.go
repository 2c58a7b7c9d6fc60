package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/condortrails/tour-booking-api/internal/model"
	"github.com/condortrails/tour-booking-api/internal/repository"
)

// PublicHandler serves the unauthenticated catalog: tour listings,
// tour detail pages, departure schedules with live availability and
// approved customer comments.  These endpoints sit behind the response
// cache middleware, so they must stay side-effect free.
type PublicHandler struct {
	Tours      *repository.TourRepo
	Departures *repository.DepartureRepo
	Comments   *repository.CommentRepo
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(tours *repository.TourRepo, departures *repository.DepartureRepo, comments *repository.CommentRepo) *PublicHandler {
	if tours == nil || departures == nil || comments == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Tours: tours, Departures: departures, Comments: comments}
}

// tourCard is the public listing shape.  Prices are decimal values.
type tourCard struct {
	ID               uint64  `json:"id"`
	Name             string  `json:"name"`
	Slug             string  `json:"slug"`
	Country          string  `json:"country"`
	DurationDays     int     `json:"duration_days"`
	ActivityLevel    string  `json:"activity_level"`
	PricePerPerson   float64 `json:"price_per_person"`
	Currency         string  `json:"currency"`
	ShortDescription string  `json:"short_description"`
}

func toTourCard(t model.Tour) tourCard {
	return tourCard{
		ID:               t.ID,
		Name:             t.Name,
		Slug:             t.Slug,
		Country:          t.Country,
		DurationDays:     t.DurationDays,
		ActivityLevel:    t.ActivityLevel,
		PricePerPerson:   float64(t.PricePerPersonCents) / 100,
		Currency:         t.Currency,
		ShortDescription: t.ShortDescription,
	}
}

// ListTours handles GET /v1/tours.  Only active tours are listed.
func (h *PublicHandler) ListTours(c echo.Context) error {
	tours, err := h.Tours.List(c.Request().Context(), true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tours"})
	}
	items := make([]tourCard, 0, len(tours))
	for _, t := range tours {
		items = append(items, toTourCard(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetTour handles GET /v1/tours/:slug.  It returns the full detail of
// one active tour including the long description.
func (h *PublicHandler) GetTour(c echo.Context) error {
	t, err := h.Tours.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tour"})
	}
	if !t.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	card := toTourCard(*t)
	return c.JSON(http.StatusOK, echo.Map{
		"item": echo.Map{
			"id":                card.ID,
			"name":              card.Name,
			"slug":              card.Slug,
			"country":           card.Country,
			"duration_days":     card.DurationDays,
			"activity_level":    card.ActivityLevel,
			"price_per_person":  card.PricePerPerson,
			"currency":          card.Currency,
			"short_description": card.ShortDescription,
			"long_description":  t.LongDescription,
		},
	})
}

// departureView is the public schedule entry.  Occupied counts are not
// exposed; customers only see how many seats remain.
type departureView struct {
	ID             uint64 `json:"id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	AvailableSeats int    `json:"available_seats"`
	Status         string `json:"status"`
}

// ListDepartures handles GET /v1/tours/:slug/departures.  It returns
// the upcoming schedule of a tour with live seat availability.
func (h *PublicHandler) ListDepartures(c echo.Context) error {
	t, err := h.Tours.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tour"})
	}
	if !t.Active {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
	}
	deps, err := h.Departures.ListByTour(c.Request().Context(), t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load departures"})
	}
	now := time.Now().UTC()
	items := make([]departureView, 0, len(deps))
	for _, d := range deps {
		if d.StartDate.Before(now.Truncate(24 * time.Hour)) {
			continue // past departures are history, not bookable inventory
		}
		items = append(items, departureView{
			ID:             d.ID,
			StartDate:      d.StartDate.UTC().Format("2006-01-02"),
			EndDate:        d.EndDate.UTC().Format("2006-01-02"),
			AvailableSeats: d.AvailableSeats(),
			Status:         string(d.Status),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetAvailability handles GET /v1/departures/:id/availability.  It is
// the lightweight pre-booking check the booking form polls.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	depID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid departure id"})
	}
	d, err := h.Departures.GetByID(c.Request().Context(), depID)
	if err != nil {
		if errors.Is(err, repository.ErrDepartureNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "departure not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load departure"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"departure_id":    d.ID,
		"start_date":      d.StartDate.UTC().Format("2006-01-02"),
		"total_seats":     d.TotalSeats,
		"available_seats": d.AvailableSeats(),
		"status":          string(d.Status),
	})
}

// ListComments handles GET /v1/tours/:slug/comments.  Only approved
// comments are shown publicly.
func (h *PublicHandler) ListComments(c echo.Context) error {
	t, err := h.Tours.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrTourNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tour not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tour"})
	}
	items, err := h.Comments.ListApprovedByTour(c.Request().Context(), t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load comments"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
