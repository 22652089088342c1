package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
)

const (
	// CSRFTokenLength is the length of the CSRF token in bytes
	CSRFTokenLength = 32

	// CSRFCookieName is the name of the CSRF cookie
	CSRFCookieName = "op_csrf"

	// CSRFHeaderName carries the token on card field edits sent by script.
	CSRFHeaderName = "X-CSRF-Token"

	// CSRFFormFieldName is the form field name for CSRF token
	CSRFFormFieldName = "csrf_token"

	// CSRFContextKey is the context key for the CSRF token
	CSRFContextKey contextKey = "csrf_token"
)

// CSRFConfig configures CSRF protection
type CSRFConfig struct {
	// CookieConfig sets the Secure attribute of the token cookie
	CookieConfig *cookie.Config

	// CookieMaxAge is the max age of the CSRF cookie in seconds.
	// Default: 86400 (24 hours)
	CookieMaxAge int

	// SkipPaths are paths that should skip CSRF validation
	SkipPaths []string
}

// CSRF provides double-submit CSRF protection. Templates embed the token
// from GetCSRFToken; unsafe requests must send it back in the form or the
// X-CSRF-Token header.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	if cfg.CookieConfig == nil {
		panic("csrf: CookieConfig is required")
	}
	if cfg.CookieMaxAge == 0 {
		cfg.CookieMaxAge = 86400
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skipPath := range cfg.SkipPaths {
				if matchesPathPrefix(r.URL.Path, skipPath) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token := cookie.Get(r, CSRFCookieName)
			if token == "" {
				var err error
				token, err = generateCSRFToken()
				if err != nil {
					// Fail closed rather than issue a predictable token.
					respondInternalError(w, r, err)
					return
				}
				cfg.CookieConfig.SetSession(w, CSRFCookieName, token, cfg.CookieMaxAge)
			}

			r = r.WithContext(context.WithValue(r.Context(), CSRFContextKey, token))

			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !validateCSRFToken(token, getSubmittedCSRFToken(r)) {
				respondForbidden(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetCSRFToken retrieves the CSRF token from the request context
func GetCSRFToken(ctx context.Context) string {
	if token, ok := ctx.Value(CSRFContextKey).(string); ok {
		return token
	}
	return ""
}

func generateCSRFToken() (string, error) {
	b := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// getSubmittedCSRFToken reads the token from the header, then the form.
func getSubmittedCSRFToken(r *http.Request) string {
	if token := r.Header.Get(CSRFHeaderName); token != "" {
		return token
	}
	if err := r.ParseForm(); err == nil {
		return r.PostFormValue(CSRFFormFieldName)
	}
	return ""
}

func validateCSRFToken(cookieToken, submittedToken string) bool {
	if cookieToken == "" || submittedToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submittedToken)) == 1
}

// isSafeMethod returns true for HTTP methods that don't change state
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions ||
		method == http.MethodTrace
}

// matchesPathPrefix reports whether requestPath is skipPath or lies below it.
// "/metrics" matches "/metrics" and "/metrics/x" but not "/metrics-evil".
func matchesPathPrefix(requestPath, skipPath string) bool {
	if !strings.HasPrefix(requestPath, skipPath) {
		return false
	}
	if strings.HasSuffix(skipPath, "/") || len(requestPath) == len(skipPath) {
		return true
	}
	return requestPath[len(skipPath)] == '/'
}
