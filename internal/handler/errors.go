package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EGONE:
		return http.StatusGone
	case domain.ETOOLARGE:
		return http.StatusRequestEntityTooLarge
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests
	case domain.EUNAVAILABLE:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse logs err and writes it as JSON or plain text depending on
// what the client accepts. Server errors are reported to Sentry.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	logger := middleware.GetLogger(r.Context())

	if status >= 500 {
		logger.Error("request failed", "error", err, "code", code, "op", domain.ErrorOp(err), "status", status)
		if code == domain.EINTERNAL {
			telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{"op": domain.ErrorOp(err)})
		}
	} else {
		logger.Info("request rejected", "error", err, "code", code, "status", status)
	}

	writeError(w, r, status, errorBody{Code: code, Message: domain.ErrorMessage(err)})
}

// ValidationErrorResponse writes a 400 listing every failing field. Errors
// that are not validation errors fall back to ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fields := domain.FieldMessages(err)
	if fields == nil {
		ErrorResponse(w, r, err)
		return
	}
	writeError(w, r, http.StatusBadRequest, errorBody{
		Code:    domain.EINVALID,
		Message: "Please correct the highlighted fields.",
		Fields:  fields,
	})
}

// NotFoundResponse writes a 404.
func NotFoundResponse(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, r, domain.Errorf(domain.ENOTFOUND, "", "The requested page was not found."))
}

// InternalErrorResponse writes a 500 without exposing err.
func InternalErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	ErrorResponse(w, r, domain.Internal(err, "", "unexpected failure"))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, body errorBody) {
	if acceptsJSON(r) {
		WriteJSON(w, status, map[string]errorBody{"error": body})
		return
	}
	http.Error(w, body.Message, status)
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// acceptsJSON checks if the client prefers JSON responses.
func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// AcceptsJSON reports whether r asked for a JSON response.
func AcceptsJSON(r *http.Request) bool {
	return acceptsJSON(r)
}
