package checkout

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/handler"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
)

// ProductsHandler serves the payment item overview.
type ProductsHandler struct {
	checkout service.CheckoutService
	renderer *handler.Renderer
}

// NewProductsHandler creates a payment item overview handler.
func NewProductsHandler(checkout service.CheckoutService, renderer *handler.Renderer) *ProductsHandler {
	return &ProductsHandler{checkout: checkout, renderer: renderer}
}

// List handles GET /products
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.render(w, r, flow, http.StatusOK, nil)
}

// Select handles POST /products/select
func (h *ProductsHandler) Select(w http.ResponseWriter, r *http.Request) {
	flow, err := flowFromRequest(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	productID, err := strconv.Atoi(r.FormValue("productId"))
	if err != nil || productID <= 0 {
		http.Error(w, "Invalid payment product", http.StatusBadRequest)
		return
	}
	var aofID int
	if v := r.FormValue("accountOnFileId"); v != "" {
		aofID, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid account on file", http.StatusBadRequest)
			return
		}
	}

	if _, err := h.checkout.Select(r.Context(), flow, productID, aofID); err != nil {
		if errors.Is(err, service.ErrProductNotAvailable) {
			h.render(w, r, flow, http.StatusOK, func(data map[string]interface{}) {
				data["Info"] = domain.ErrorMessage(err)
			})
			return
		}
		middleware.GetLogger(r.Context()).Warn("payment item selection failed", "product_id", productID, "error", err)
		status := alertStatus(err)
		if domain.ErrorCode(err) == domain.ENOTFOUND {
			status = http.StatusNotFound
		}
		h.render(w, r, flow, status, func(data map[string]interface{}) {
			data["Alert"] = domain.ErrorMessage(err)
		})
		return
	}

	redirect(w, r, "/card")
}

func (h *ProductsHandler) render(w http.ResponseWriter, r *http.Request, flow *service.Flow, status int, extra func(map[string]interface{})) {
	data := BaseTemplateData(r)
	data["Rows"] = h.checkout.Rows(flow)
	data["Amount"] = flow.Context.AmountOfMoney.TotalAmount
	data["Currency"] = flow.Context.AmountOfMoney.CurrencyCode
	if extra != nil {
		extra(data)
	}
	h.renderer.RenderHTTPStatus(w, status, "products", data)
}
