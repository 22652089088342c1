package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/onlinepayments-demo/internal/cardform"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/handler"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
)

// CardHandler serves the card form.
type CardHandler struct {
	checkout service.CheckoutService
	renderer *handler.Renderer
}

// NewCardHandler creates a card form handler.
func NewCardHandler(checkout service.CheckoutService, renderer *handler.Renderer) *CardHandler {
	return &CardHandler{checkout: checkout, renderer: renderer}
}

// FieldEdit is the body of a live field edit.
type FieldEdit struct {
	Value string `json:"value"`

	// Validate runs field validation, as when the input loses focus.
	Validate bool `json:"validate"`
}

// Show handles GET /card
func (h *CardHandler) Show(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	card := flow.CardForm()
	if card == nil {
		redirect(w, r, "/products")
		return
	}
	h.render(w, r, flow, card.State(), http.StatusOK)
}

// Field handles POST /card/fields/{field}. It applies one edit and returns
// the new form state as JSON.
func (h *CardHandler) Field(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	var edit FieldEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		handler.ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "card.field", "Invalid request body."))
		return
	}

	state, err := h.checkout.EditField(r.Context(), flow, r.PathValue("field"), edit.Value, edit.Validate)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, state)
}

// DismissAlert handles POST /card/alert/dismiss. Script clients get the new
// form state; others are sent back to the card form.
func (h *CardHandler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	state, err := h.checkout.DismissAlert(flow)
	if err != nil {
		if errors.Is(err, service.ErrNoCardForm) && !handler.AcceptsJSON(r) {
			redirect(w, r, "/products")
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, state)
		return
	}
	redirect(w, r, "/card")
}

// Pay handles POST /card/pay. Posted values are applied first so the form
// also works without script.
func (h *CardHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, err := flowFromRequest(ctx)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	card := flow.CardForm()
	if card == nil {
		redirect(w, r, "/products")
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	logger := middleware.GetLogger(ctx)
	for _, f := range card.State().Fields {
		if !f.Present || !f.Enabled {
			continue
		}
		value, ok := r.PostForm[f.Name]
		if !ok || len(value) == 0 || value[0] == f.Value {
			continue
		}
		if _, err := h.checkout.EditField(ctx, flow, f.Name, value[0], false); err != nil {
			logger.Warn("failed to apply posted field", "field", f.Name, "error", err)
		}
	}

	if _, err := h.checkout.Pay(ctx, flow, r.PostFormValue("tokenize") == "true"); err != nil {
		state := card.State()
		if errors.Is(err, cardform.ErrValidation) {
			h.render(w, r, flow, state, http.StatusUnprocessableEntity)
			return
		}
		if state.Alert == "" {
			state.Alert = domain.ErrorMessage(err)
		}
		h.render(w, r, flow, state, alertStatus(err))
		return
	}

	redirect(w, r, "/end")
}

func (h *CardHandler) render(w http.ResponseWriter, r *http.Request, flow *service.Flow, state cardform.State, status int) {
	data := BaseTemplateData(r)
	data["State"] = state
	data["Alert"] = state.Alert
	data["Amount"] = flow.Context.AmountOfMoney.TotalAmount
	data["Currency"] = flow.Context.AmountOfMoney.CurrencyCode
	h.renderer.RenderHTTPStatus(w, status, "card", data)
}
