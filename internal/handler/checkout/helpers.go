// Package checkout serves the four checkout screens: start, payment items,
// card form and end.
package checkout

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
)

// BaseTemplateData returns common data for all templates
func BaseTemplateData(r *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"Year":      time.Now().Year(),
		"CSRFToken": middleware.GetCSRFToken(r.Context()),
		"RequestID": middleware.GetRequestID(r.Context()),
	}
}

// flowFromRequest returns the flow resolved by middleware.ResolveFlow.
func flowFromRequest(ctx context.Context) (*service.Flow, error) {
	flow := middleware.GetFlow(ctx)
	if flow == nil {
		return nil, service.ErrFlowNotFound
	}
	return flow, nil
}

// alertStatus picks the status for a page re-rendered with an alert.
func alertStatus(err error) int {
	switch domain.ErrorCode(err) {
	case domain.EINVALID:
		return http.StatusUnprocessableEntity
	case domain.EUNAVAILABLE:
		return http.StatusBadGateway
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
