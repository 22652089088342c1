package checkout

import (
	"net/http"

	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
	"github.com/dukerupert/onlinepayments-demo/internal/handler"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
)

// EndHandler shows the encrypted payment request.
type EndHandler struct {
	checkout service.CheckoutService
	renderer *handler.Renderer
	cookies  *cookie.Config
}

// NewEndHandler creates an end screen handler.
func NewEndHandler(checkout service.CheckoutService, renderer *handler.Renderer, cookies *cookie.Config) *EndHandler {
	return &EndHandler{checkout: checkout, renderer: renderer, cookies: cookies}
}

// Show handles GET /end
func (h *EndHandler) Show(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	prepared, err := h.checkout.Prepared(flow)
	if err != nil {
		redirect(w, r, "/card")
		return
	}

	data := BaseTemplateData(r)
	data["Prepared"] = prepared
	h.renderer.RenderHTTP(w, "end", data)
}

// Restart handles POST /end. The flow is discarded and the browser returns
// to the start screen.
func (h *EndHandler) Restart(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.checkout.End(flow.ID)
	h.cookies.ClearSession(w, cookie.FlowCookieName)
	redirect(w, r, "/")
}
