package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rental-booking/internal/handler"
	"github.com/iliyamo/rental-booking/internal/middleware"
	"github.com/iliyamo/rental-booking/internal/model"
)

// Handlers bundles everything the route table needs.  Cache and
// RateLimit may be pass-through middleware when Redis is unavailable.
type Handlers struct {
	Auth      *handler.AuthHandler
	Listings  *handler.ListingHandler
	Payments  *handler.PaymentHandler
	Bookings  *handler.BookingHandler
	Health    echo.HandlerFunc
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
	// Webhook registers POST /api/payments/webhook.  Off when no signing
	// secret is configured.
	Webhook bool
}

// Register wires every route under /api plus the health check.
func Register(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	auth := middleware.JWTAuth(jwtSecret)
	hostOnly := middleware.RequireRole(model.RoleHost, model.RoleAdmin)

	users := api.Group("/users")
	users.POST("/signup", h.Auth.Signup)
	users.POST("/login", h.Auth.Login)
	users.POST("/logout", h.Auth.Logout)
	users.GET("/check", h.Auth.Check, auth)

	// Reads are public and cached; writes are for hosts and admins.
	listings := api.Group("/listings")
	listings.GET("", h.Listings.List, h.Cache)
	listings.GET("/:id", h.Listings.Get, h.Cache)
	listings.POST("", h.Listings.Create, auth, hostOnly)
	listings.PUT("/:id", h.Listings.Update, auth, hostOnly)
	listings.DELETE("/:id", h.Listings.Delete, auth, hostOnly)

	payments := api.Group("/payments")
	payments.POST("/create-checkout-session", h.Payments.CreateCheckoutSession, auth, h.RateLimit)
	payments.POST("/checkout-success", h.Payments.CheckoutSuccess, auth, h.RateLimit)
	if h.Webhook {
		// Authenticated by the provider signature, not the session.
		payments.POST("/webhook", h.Payments.Webhook)
	}

	bookings := api.Group("/bookings", auth)
	bookings.GET("/me", h.Bookings.Mine)
	bookings.GET("/host", h.Bookings.Host, hostOnly)
	bookings.DELETE("/:id", h.Bookings.Cancel)
}
