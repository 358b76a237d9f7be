package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/pricing"
	"github.com/iliyamo/coworking-booking/internal/repository"
)

// BrowseHandler serves the public catalogue: locations, their
// resources and the per-day availability grid.  No authentication is
// required on these routes.
type BrowseHandler struct {
	Resources *repository.ResourceRepo
	Bookings  *repository.BookingRepo
}

func NewBrowseHandler(res *repository.ResourceRepo, b *repository.BookingRepo) *BrowseHandler {
	if res == nil || b == nil {
		panic("handler: nil dependency in NewBrowseHandler")
	}
	return &BrowseHandler{Resources: res, Bookings: b}
}

// Locations lists every active coworking site.
// GET /v1/locations
func (h *BrowseHandler) Locations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	locs, err := h.Resources.ListLocations(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(locs))
	for _, l := range locs {
		out = append(out, echo.Map{
			"id":      l.ID,
			"name":    l.Name,
			"address": l.Address,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"locations": out})
}

// LocationResources lists the bookable resources of one location.
// GET /v1/locations/:id/resources
func (h *BrowseHandler) LocationResources(c echo.Context) error {
	locID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || locID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resources, err := h.Resources.ListByLocation(ctx, locID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(resources))
	for _, r := range resources {
		out = append(out, echo.Map{
			"id":       r.ID,
			"name":     r.Name,
			"category": r.Category,
			"capacity": r.Capacity,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"resources": out})
}

type availabilitySlot struct {
	StartMinute int    `json:"start_minute"`
	Start       string `json:"start"` // HH:MM
	Status      string `json:"status"`
}

// Availability renders a resource's day as 48 half-hour slots.  Each
// slot is free, booked, or re_rent when the overlapping booking was
// re-offered by its owner (and is therefore bookable again).
// GET /v1/resources/:id/availability?date=YYYY-MM-DD
func (h *BrowseHandler) Availability(c echo.Context) error {
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid resource id"})
	}
	date, err := parseDate(strings.TrimSpace(c.QueryParam("date")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Resources.GetByID(ctx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrResourceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	bookings, err := h.Bookings.ListConfirmedByResourceDate(ctx, resID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	slots := make([]availabilitySlot, 0, 24*60/pricing.SlotMinutes)
	for m := 0; m < 24*60; m += pricing.SlotMinutes {
		slots = append(slots, availabilitySlot{
			StartMinute: m,
			Start:       minuteClock(m),
			Status:      slotStatus(bookings, m),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"resource_id": res.ID,
		"category":    res.Category,
		"date":        date.Format("2006-01-02"),
		"slots":       slots,
	})
}

// slotStatus reports how a half-hour slot is occupied.  A re-rent
// listing marks the slot bookable again, so it wins over "booked"
// only in the sense that nothing else overlaps; a plain confirmed
// booking always blocks.
func slotStatus(bookings []*model.Booking, startMin int) string {
	status := "free"
	for _, b := range bookings {
		lo, hi := b.StartMinute, b.EndMinute()
		if startMin >= hi || startMin+pricing.SlotMinutes <= lo {
			continue
		}
		if !b.IsReRentListed {
			return "booked"
		}
		status = "re_rent"
	}
	return status
}
