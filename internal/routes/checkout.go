package routes

import (
	"io/fs"

	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/router"
)

// RegisterCheckoutRoutes registers the checkout screens.
//
// The start screen is public. Every later screen runs behind RequireFlow,
// which sends browsers without a live flow back to the start screen.
func RegisterCheckoutRoutes(r *router.Router, deps CheckoutDeps) {
	// Start screen
	r.Get("/{$}", deps.StartHandler.Show)
	r.Post("/session", deps.StartHandler.Submit, limit(deps.SessionRateLimiter)...)
	r.Post("/session/paste", deps.StartHandler.Paste)

	flow := r.Group(deps.RequireFlow)

	// Payment items
	flow.Get("/products", deps.ProductsHandler.List)
	flow.Post("/products/select", deps.ProductsHandler.Select, limit(deps.SessionRateLimiter)...)

	// Card form
	flow.Get("/card", deps.CardHandler.Show)
	flow.Post("/card/fields/{field}", deps.CardHandler.Field, limit(deps.FieldRateLimiter)...)
	flow.Post("/card/alert/dismiss", deps.CardHandler.DismissAlert)
	flow.Post("/card/pay", deps.CardHandler.Pay, limit(deps.SessionRateLimiter)...)

	// End screen
	flow.Get("/end", deps.EndHandler.Show)
	flow.Post("/end", deps.EndHandler.Restart)
}

// RegisterOpsRoutes registers health, metrics and static assets.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps, static fs.FS) {
	r.Get("/healthz", deps.Health)
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.ServeHTTP)
	}
	r.Static("/static/", static)
}

// limit returns rl as route middleware, or nothing when rl is nil.
func limit(rl *middleware.RateLimiter) []router.Middleware {
	if rl == nil {
		return nil
	}
	return []router.Middleware{rl.Middleware}
}
