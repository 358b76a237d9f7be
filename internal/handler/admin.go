package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/ledger"
)

// AdminHandler exposes the administrative booking operations.  Role
// gating happens in the router middleware; the ledger still applies
// its own rule matrix (an admin cannot cancel late, only senior roles
// can), so the handler passes the actor role through unchanged.
type AdminHandler struct {
	Ledger *ledger.Ledger
	Store  ledger.Store
	Carts  *BookingHandler // shares the cart pricing pipeline for reschedules
}

func NewAdminHandler(l *ledger.Ledger, s ledger.Store, carts *BookingHandler) *AdminHandler {
	if l == nil || s == nil || carts == nil {
		panic("handler: nil dependency in NewAdminHandler")
	}
	return &AdminHandler{Ledger: l, Store: s, Carts: carts}
}

func bookingIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Cancel cancels any customer's confirmed booking.  The ledger's rule
// matrix decides whether this actor may cancel this close to start.
// POST /v1/admin/bookings/:id/cancel
func (h *AdminHandler) Cancel(c echo.Context) error {
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ledger.Cancel(ctx, id, strings.TrimSpace(body.Reason), getRole(c)); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reschedule refunds a confirmed booking and books a replacement cart
// for the same customer in one transaction.  The body is the same
// cart shape the checkout uses.
// POST /v1/admin/bookings/:id/reschedule
func (h *AdminHandler) Reschedule(c echo.Context) error {
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	old, err := h.Store.Repos().Bookings.GetByID(ctx, id)
	if err != nil {
		return ledgerError(c, err)
	}
	confirm, total, err := h.Carts.confirmRequest(ctx, old.CustomerID, req)
	if err != nil {
		return ledgerError(c, err)
	}
	created, err := h.Ledger.Reschedule(ctx, id, confirm)
	if err != nil {
		return ledgerError(c, err)
	}

	views := make([]bookingView, 0, len(created))
	for _, b := range created {
		views = append(views, toBookingView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookings": views,
		"total": cartPart{
			BaseCents:     total.BaseCents,
			ExtrasCents:   total.ExtrasCents,
			DiscountCents: total.DiscountCents,
			FinalCents:    total.FinalCents,
		},
	})
}

// SetManualPrice overrides the final price of a confirmed booking and
// settles the cash difference against the customer's balance.  The
// router restricts this route to senior_admin and owner.
// POST /v1/admin/bookings/:id/price
func (h *AdminHandler) SetManualPrice(c echo.Context) error {
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		PriceCents int64 `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ledger.SetManualPrice(ctx, id, body.PriceCents); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForReRent re-offers any confirmed booking for rental on the
// owner's behalf.
// POST /v1/admin/bookings/:id/re-rent
func (h *AdminHandler) ListForReRent(c echo.Context) error {
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	// Customer 0 skips the ownership check.
	if err := h.Ledger.ListForReRent(ctx, id, 0); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkNoShow flags a confirmed booking whose customer never arrived.
// Nothing is refunded.
// POST /v1/admin/bookings/:id/no-show
func (h *AdminHandler) MarkNoShow(c echo.Context) error {
	id, ok := bookingIDParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ledger.MarkNoShow(ctx, id); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reconcile runs the weekly loyalty settlement for one customer.  The
// optional ?week=YYYY-MM-DD query picks any day inside the target
// week; it defaults to the previous ISO week.
// POST /v1/admin/customers/:id/reconcile
func (h *AdminHandler) Reconcile(c echo.Context) error {
	customerID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || customerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid customer id"})
	}
	ref := time.Now().UTC().AddDate(0, 0, -7)
	if w := strings.TrimSpace(c.QueryParam("week")); w != "" {
		d, err := parseDate(w)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "week must be YYYY-MM-DD"})
		}
		ref = d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	bonus, err := h.Ledger.Reconcile(ctx, customerID, ref)
	if err != nil {
		return ledgerError(c, err)
	}
	if bonus == nil {
		return c.JSON(http.StatusOK, echo.Map{"bonus": nil})
	}
	return c.JSON(http.StatusOK, echo.Map{"bonus": echo.Map{
		"amount_cents": bonus.AmountCents,
		"currency":     bonus.Currency,
		"expires_at":   bonus.ExpiresAt,
	}})
}

// Sweep completes every confirmed booking whose end time has passed.
// POST /v1/admin/sweep
func (h *AdminHandler) Sweep(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	n, err := h.Ledger.CompleteExpired(ctx)
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"completed": n})
}
