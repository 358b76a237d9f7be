package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/coworking-booking/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/coworking-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Session-less operations: register, login, refresh, logout.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts either a refresh token in the body or a bearer
	// access token; it does not require the JWT middleware.
	g.POST("/logout", a.Logout)

	// Protected endpoints under /v1 require a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)

	// Clients can call either /v1/auth/logout or /v1/logout.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// inspect locations, their resources and per-day slot availability
// before registering.
func RegisterPublic(e *echo.Echo, p *handler.BrowseHandler) {
	e.GET("/v1/locations", p.Locations)
	e.GET("/v1/locations/:id/resources", p.LocationResources)
	// Day availability as 48 half-hour slots (free / booked / re_rent).
	e.GET("/v1/resources/:id/availability", p.Availability)
}
