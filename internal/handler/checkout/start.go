package checkout

import (
	"net/http"

	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/handler"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
)

// StartHandler serves the start screen where the client session and
// payment context are entered.
type StartHandler struct {
	checkout    service.CheckoutService
	renderer    *handler.Renderer
	cookies     *cookie.Config
	preferences *cookie.PreferenceStore
	flowMaxAge  int
}

// NewStartHandler creates a start screen handler. flowMaxAge is the flow
// cookie lifetime in seconds; zero makes it a browser session cookie.
func NewStartHandler(checkout service.CheckoutService, renderer *handler.Renderer, cookies *cookie.Config, preferences *cookie.PreferenceStore, flowMaxAge int) *StartHandler {
	return &StartHandler{
		checkout:    checkout,
		renderer:    renderer,
		cookies:     cookies,
		preferences: preferences,
		flowMaxAge:  flowMaxAge,
	}
}

// Show handles GET /
func (h *StartHandler) Show(w http.ResponseWriter, r *http.Request) {
	input := service.InputFromPreferences(h.preferences.Load(r))

	data := BaseTemplateData(r)
	data["Input"] = input
	data["Errors"] = map[string]string{}
	data["Expired"] = r.URL.Query().Get("expired") == "1"
	h.renderer.RenderHTTP(w, "start", data)
}

// Submit handles POST /session
func (h *StartHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	input := inputFromForm(r)

	flow, err := h.checkout.Start(r.Context(), input)
	if err != nil {
		h.renderError(w, r, input, err)
		return
	}

	h.cookies.SetSession(w, cookie.FlowCookieName, flow.ID, h.flowMaxAge)
	if err := h.preferences.Save(w, r, input.Preferences()); err != nil {
		middleware.GetLogger(r.Context()).Warn("failed to save preferences", "error", err)
	}
	redirect(w, r, "/products")
}

// Paste handles POST /session/paste. The pasted identifiers replace the
// session fields and the start screen is shown again for review.
func (h *StartHandler) Paste(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	input := service.InputFromPreferences(h.preferences.Load(r))
	text := r.FormValue("json")

	data := BaseTemplateData(r)
	data["Errors"] = map[string]string{}

	creds, err := service.ParsePastedJSON(text)
	if err != nil {
		data["Input"] = input
		data["Pasted"] = text
		data["PasteError"] = domain.ErrorMessage(err)
		h.renderer.RenderHTTPStatus(w, http.StatusUnprocessableEntity, "start", data)
		return
	}

	input.ApplyPasted(creds)
	input.Normalize()
	data["Input"] = input
	data["Info"] = "Session details pasted. Check the payment details and proceed."
	h.renderer.RenderHTTP(w, "start", data)
}

func (h *StartHandler) renderError(w http.ResponseWriter, r *http.Request, input service.SessionInput, err error) {
	data := BaseTemplateData(r)
	data["Input"] = input

	if fields := domain.FieldMessages(err); fields != nil {
		data["Errors"] = fields
		h.renderer.RenderHTTPStatus(w, http.StatusUnprocessableEntity, "start", data)
		return
	}

	middleware.GetLogger(r.Context()).Warn("checkout start failed", "error", err, "code", domain.ErrorCode(err))
	data["Errors"] = map[string]string{}
	data["Alert"] = domain.ErrorMessage(err)
	h.renderer.RenderHTTPStatus(w, alertStatus(err), "start", data)
}

func inputFromForm(r *http.Request) service.SessionInput {
	return service.SessionInput{
		ClientSessionID: r.FormValue("clientSessionId"),
		CustomerID:      r.FormValue("customerId"),
		ClientAPIURL:    r.FormValue("clientApiUrl"),
		AssetURL:        r.FormValue("assetUrl"),
		Amount:          r.FormValue("amount"),
		CountryCode:     r.FormValue("countryCode"),
		CurrencyCode:    r.FormValue("currencyCode"),
		Recurring:       r.FormValue("recurring") == "true",
		Source:          r.FormValue("source"),
	}
}
