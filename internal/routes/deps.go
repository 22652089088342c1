package routes

import (
	"net/http"

	"github.com/dukerupert/onlinepayments-demo/internal/handler/checkout"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/router"
)

// CheckoutDeps contains dependencies for the checkout routes
type CheckoutDeps struct {
	// Screens
	StartHandler    *checkout.StartHandler
	ProductsHandler *checkout.ProductsHandler
	CardHandler     *checkout.CardHandler
	EndHandler      *checkout.EndHandler

	// RequireFlow loads the browser's checkout flow for every screen after
	// the start screen.
	RequireFlow router.Middleware

	// Rate limiting (nil disables)
	SessionRateLimiter *middleware.RateLimiter
	FieldRateLimiter   *middleware.RateLimiter
}

// OpsDeps contains dependencies for operational endpoints
type OpsDeps struct {
	Health  http.HandlerFunc
	Metrics http.Handler
}
