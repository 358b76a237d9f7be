package router

import (
	"github.com/iliyamo/coworking-booking/internal/handler"
	"github.com/iliyamo/coworking-booking/internal/middleware"
	"github.com/iliyamo/coworking-booking/internal/model"
	"github.com/labstack/echo/v4"
)

// RegisterBooking registers the customer checkout and account
// endpoints under /v1.  All routes require a valid JWT; any role may
// book.  Prices are always recomputed server-side, so these routes
// never trust amounts from the client.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, a *handler.AccountHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
	)

	// ---- Checkout ----
	g.POST("/bookings/quote", b.Quote)
	g.POST("/bookings", b.Confirm)
	g.GET("/bookings", b.MyBookings)
	g.POST("/bookings/:id/cancel", b.Cancel)
	g.POST("/bookings/:id/re-rent", b.ListForReRent)

	// ---- Account ----
	g.GET("/account", a.Account)
	g.GET("/account/transactions", a.Transactions)
}

// RegisterAdmin registers the administrative surface under /v1/admin.
// All routes require an admin-tier role; manual price overrides are
// restricted further to senior_admin and owner.  The ledger applies
// its own cancellation rule matrix on top of this gate.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(
			string(model.RoleAdmin),
			string(model.RoleSeniorAdmin),
			string(model.RoleOwner),
		),
	)

	g.POST("/bookings/:id/cancel", h.Cancel)
	g.POST("/bookings/:id/reschedule", h.Reschedule)
	g.POST("/bookings/:id/re-rent", h.ListForReRent)
	g.POST("/bookings/:id/no-show", h.MarkNoShow)
	g.POST("/customers/:id/reconcile", h.Reconcile)
	g.POST("/sweep", h.Sweep)

	// Price overrides bypass the pricing engine entirely, so only the
	// senior tier gets them.
	senior := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(
			string(model.RoleSeniorAdmin),
			string(model.RoleOwner),
		),
	)
	senior.POST("/bookings/:id/price", h.SetManualPrice)
}
