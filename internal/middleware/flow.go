package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
)

// FlowContextKey is the context key for the resolved checkout flow
const FlowContextKey contextKey = "flow"

// FlowResolver looks up a checkout flow by id.
type FlowResolver interface {
	Flow(id string) (*service.Flow, error)
}

// FlowConfig configures ResolveFlow.
type FlowConfig struct {
	Resolver FlowResolver
	Cookies  *cookie.Config

	// StartPath is where browsers without a usable flow are sent.
	// Default: "/"
	StartPath string
}

// ResolveFlow loads the checkout flow named by the flow cookie. Page
// requests without a live flow are redirected to the start screen with
// ?expired=1 when the flow timed out. JSON requests get an error body.
func ResolveFlow(cfg FlowConfig) func(http.Handler) http.Handler {
	if cfg.StartPath == "" {
		cfg.StartPath = "/"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			flow, err := cfg.Resolver.Flow(cookie.Get(r, cookie.FlowCookieName))
			if err != nil {
				if cfg.Cookies != nil {
					cfg.Cookies.ClearSession(w, cookie.FlowCookieName)
				}
				if acceptsJSON(r) {
					respondWithError(w, r, err)
					return
				}
				target := cfg.StartPath
				if errors.Is(err, service.ErrFlowExpired) {
					target += "?expired=1"
				}
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), FlowContextKey, flow)
			ctx = domain.NewContextWithFlowID(ctx, flow.ID)
			ctx = withLogger(ctx, GetLogger(ctx).With(slog.String("flow_id", flow.ID)))
			telemetry.SetFlow(ctx, flow.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetFlow returns the flow resolved by ResolveFlow, or nil.
func GetFlow(ctx context.Context) *service.Flow {
	flow, _ := ctx.Value(FlowContextKey).(*service.Flow)
	return flow
}
