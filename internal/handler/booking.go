package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coworking-booking/internal/ledger"
	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/iliyamo/coworking-booking/internal/pricing"
	"github.com/iliyamo/coworking-booking/internal/repository"
)

// BookingHandler serves the customer-facing checkout flow: quote,
// confirm, booking list, cancellation and re-rent listing.  Prices are
// always re-derived server-side from the selected slots; the client
// never supplies amounts.
type BookingHandler struct {
	Ledger    *ledger.Ledger
	Engine    *pricing.Engine
	Store     ledger.Store
	Resources *repository.ResourceRepo
}

func NewBookingHandler(l *ledger.Ledger, e *pricing.Engine, s ledger.Store, res *repository.ResourceRepo) *BookingHandler {
	if l == nil || e == nil || s == nil || res == nil {
		panic("handler: nil dependency in NewBookingHandler")
	}
	return &BookingHandler{Ledger: l, Engine: e, Store: s, Resources: res}
}

// ----- DTOs -----

type slotReq struct {
	ResourceID  uint64 `json:"resource_id"`
	StartMinute int    `json:"start_minute"`
}

type cartReq struct {
	Date          string    `json:"date"` // YYYY-MM-DD
	Format        string    `json:"format"`
	PaymentMethod string    `json:"payment_method"`
	Extras        []string  `json:"extras"`
	Slots         []slotReq `json:"slots"`
}

type quoteItem struct {
	ResourceID    uint64  `json:"resource_id"`
	Category      string  `json:"category"`
	Start         string  `json:"start"` // HH:MM
	End           string  `json:"end"`
	DurationMin   int     `json:"duration_min"`
	BaseCents     int64   `json:"base_cents"`
	ExtrasCents   int64   `json:"extras_cents"`
	DiscountCents int64   `json:"discount_cents"`
	DiscountPct   float64 `json:"discount_pct"`
	DiscountKind  string  `json:"discount_kind"`
	FinalCents    int64   `json:"final_cents"`
}

type quoteResp struct {
	Date          string      `json:"date"`
	Format        string      `json:"format"`
	PaymentMethod string      `json:"payment_method"`
	Items         []quoteItem `json:"items"`
	Total         cartPart    `json:"total"`
}

type cartPart struct {
	BaseCents     int64 `json:"base_cents"`
	ExtrasCents   int64 `json:"extras_cents"`
	DiscountCents int64 `json:"discount_cents"`
	FinalCents    int64 `json:"final_cents"`
}

type bookingView struct {
	ID              uint64   `json:"id"`
	ResourceID      uint64   `json:"resource_id"`
	Date            string   `json:"date"`
	Start           string   `json:"start"`
	End             string   `json:"end"`
	DurationMin     int      `json:"duration_min"`
	Format          string   `json:"format"`
	Extras          []string `json:"extras,omitempty"`
	PaymentMethod   string   `json:"payment_method"`
	PaymentSource   string   `json:"payment_source"`
	HoursDeducted   float64  `json:"hours_deducted,omitempty"`
	BasePriceCents  int64    `json:"base_price_cents"`
	ExtrasCents     int64    `json:"extras_cents"`
	DiscountCents   int64    `json:"discount_cents"`
	DiscountKind    string   `json:"discount_kind"`
	FinalPriceCents int64    `json:"final_price_cents"`
	Status          string   `json:"status"`
	IsReRentListed  bool     `json:"is_re_rent_listed"`
	ReplacesID      *uint64  `json:"replaces_id,omitempty"`
}

func toBookingView(b *model.Booking) bookingView {
	return bookingView{
		ID:              b.ID,
		ResourceID:      b.ResourceID,
		Date:            b.Date.Format("2006-01-02"),
		Start:           minuteClock(b.StartMinute),
		End:             minuteClock(b.EndMinute()),
		DurationMin:     b.DurationMin,
		Format:          string(b.Format),
		Extras:          b.Extras,
		PaymentMethod:   string(b.PaymentMethod),
		PaymentSource:   string(b.PaymentSource),
		HoursDeducted:   b.HoursDeducted,
		BasePriceCents:  b.BasePriceCents,
		ExtrasCents:     b.ExtrasCents,
		DiscountCents:   b.DiscountCents,
		DiscountKind:    string(b.DiscountKind),
		FinalPriceCents: b.FinalPriceCents,
		Status:          string(b.Status),
		IsReRentListed:  b.IsReRentListed,
		ReplacesID:      b.ReplacesID,
	}
}

// priceCart turns a raw slot selection into a priced cart.  It
// aggregates contiguous tokens into candidates, resolves resource
// categories from the database and runs the pricing engine with the
// customer's account state and current weekly hours.
func (h *BookingHandler) priceCart(ctx context.Context, customerID uint64, req cartReq) ([]pricing.PricedBooking, pricing.CartTotal, model.BookingFormat, model.PaymentMethod, error) {
	none := pricing.CartTotal{}

	date, err := parseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return nil, none, "", "", fmt.Errorf("%w: date must be YYYY-MM-DD", ledger.ErrValidation)
	}
	format := model.BookingFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if format != model.FormatIndividual && format != model.FormatGroup {
		return nil, none, "", "", fmt.Errorf("%w: unknown format %q", ledger.ErrValidation, req.Format)
	}
	method := model.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if method != model.PayBySubscription && method != model.PayByBalance {
		return nil, none, "", "", fmt.Errorf("%w: unknown payment method %q", ledger.ErrValidation, req.PaymentMethod)
	}
	if len(req.Slots) == 0 {
		return nil, none, "", "", fmt.Errorf("%w: empty slot selection", ledger.ErrValidation)
	}

	ids := make([]uint64, 0, len(req.Slots))
	for _, s := range req.Slots {
		ids = append(ids, s.ResourceID)
	}
	cats, err := h.Resources.CategoriesByID(ctx, ids)
	if err != nil {
		return nil, none, "", "", err
	}
	tokens := make([]pricing.SlotToken, 0, len(req.Slots))
	for _, s := range req.Slots {
		cat, ok := cats[s.ResourceID]
		if !ok {
			return nil, none, "", "", fmt.Errorf("%w: unknown or inactive resource %d", ledger.ErrValidation, s.ResourceID)
		}
		if s.StartMinute < 0 || s.StartMinute >= 24*60 || s.StartMinute%pricing.SlotMinutes != 0 {
			return nil, none, "", "", fmt.Errorf("%w: start_minute must be a 30-minute offset within the day", ledger.ErrValidation)
		}
		tokens = append(tokens, pricing.SlotToken{ResourceID: s.ResourceID, Category: cat, StartMinute: s.StartMinute})
	}
	cands := pricing.Aggregate(date, tokens)

	acct, err := h.Store.Repos().Accounts.Get(ctx, customerID)
	if err != nil {
		return nil, none, "", "", err
	}
	weekly, err := h.Ledger.ConfirmedWeekHours(ctx, customerID, date)
	if err != nil {
		return nil, none, "", "", err
	}

	pctx := pricing.Context{
		Format:          format,
		PaymentMethod:   method,
		PricingMode:     acct.PricingMode,
		PersonalPercent: acct.PersonalDiscountPercent,
		WeeklyHours:     weekly,
		Extras:          req.Extras,
		Now:             time.Now().UTC(),
	}
	items, total := h.Engine.PriceCart(cands, pctx)
	return items, total, format, method, nil
}

// confirmRequest shares the quote pipeline and wraps the result for
// the ledger.
func (h *BookingHandler) confirmRequest(ctx context.Context, customerID uint64, req cartReq) (ledger.ConfirmRequest, pricing.CartTotal, error) {
	items, total, format, method, err := h.priceCart(ctx, customerID, req)
	if err != nil {
		return ledger.ConfirmRequest{}, pricing.CartTotal{}, err
	}
	return ledger.ConfirmRequest{
		CustomerID:    customerID,
		PaymentMethod: method,
		Format:        format,
		Extras:        req.Extras,
		Items:         items,
	}, total, nil
}

// Quote prices a slot selection without booking anything.
// POST /v1/bookings/quote
func (h *BookingHandler) Quote(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, format, method, err := h.priceCart(ctx, uid, req)
	if err != nil {
		return ledgerError(c, err)
	}

	out := quoteResp{
		Date:          req.Date,
		Format:        string(format),
		PaymentMethod: string(method),
		Items:         make([]quoteItem, 0, len(items)),
		Total: cartPart{
			BaseCents:     total.BaseCents,
			ExtrasCents:   total.ExtrasCents,
			DiscountCents: total.DiscountCents,
			FinalCents:    total.FinalCents,
		},
	}
	for _, it := range items {
		out.Items = append(out.Items, quoteItem{
			ResourceID:    it.Candidate.ResourceID,
			Category:      string(it.Candidate.Category),
			Start:         minuteClock(it.Candidate.StartMinute),
			End:           minuteClock(it.Candidate.EndMinute()),
			DurationMin:   it.Candidate.DurationMin,
			BaseCents:     it.BaseCents,
			ExtrasCents:   it.ExtrasCents,
			DiscountCents: it.DiscountCents,
			DiscountPct:   it.DiscountPct,
			DiscountKind:  string(it.DiscountKind),
			FinalCents:    it.FinalCents,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Confirm books a priced cart atomically.
// POST /v1/bookings
func (h *BookingHandler) Confirm(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	confirm, total, err := h.confirmRequest(ctx, uid, req)
	if err != nil {
		return ledgerError(c, err)
	}
	created, err := h.Ledger.Confirm(ctx, confirm)
	if err != nil {
		return ledgerError(c, err)
	}

	views := make([]bookingView, 0, len(created))
	for _, b := range created {
		views = append(views, toBookingView(b))
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"bookings": views,
		"total": cartPart{
			BaseCents:     total.BaseCents,
			ExtrasCents:   total.ExtrasCents,
			DiscountCents: total.DiscountCents,
			FinalCents:    total.FinalCents,
		},
	})
}

// MyBookings lists every booking of the caller, newest first.
// GET /v1/bookings
func (h *BookingHandler) MyBookings(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Store.Repos().Bookings.ListByCustomer(ctx, uid)
	if err != nil {
		return ledgerError(c, err)
	}
	views := make([]bookingView, 0, len(list))
	for _, b := range list {
		views = append(views, toBookingView(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": views})
}

// Cancel cancels one of the caller's own confirmed bookings.  Late
// cancellations (less than 24h before start) require a reason; the
// ledger enforces the full rule matrix.
// POST /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.Bind(&body)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Store.Repos().Bookings.GetByID(ctx, id)
	if err != nil {
		return ledgerError(c, err)
	}
	if b.CustomerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	if err := h.Ledger.Cancel(ctx, id, strings.TrimSpace(body.Reason), getRole(c)); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForReRent re-offers one of the caller's confirmed bookings for
// rental.  The slot stops blocking other customers; if somebody books
// it, the original owner gets the payout share credited.
// POST /v1/bookings/:id/re-rent
func (h *BookingHandler) ListForReRent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Ledger.ListForReRent(ctx, id, uid); err != nil {
		return ledgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
