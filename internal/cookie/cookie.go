// Package cookie provides the checkout's cookie helpers: the flow id cookie
// that ties a browser to its checkout, and signed preference cookies that
// remember the start screen input between visits.
package cookie

import (
	"net/http"
)

// Config holds cookie configuration.
type Config struct {
	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
func NewConfig(secure bool) *Config {
	return &Config{Secure: secure}
}

// SetSession sets a session cookie with:
//   - Path: "/" (available on all paths)
//   - HttpOnly: true (not accessible via JavaScript)
//   - SameSite: Lax
//   - Secure: based on config
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes a session cookie by setting MaxAge to -1.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Cookie names used throughout the application.
const (
	// FlowCookieName stores the id of the browser's checkout flow.
	FlowCookieName = "op_checkout_flow"

	// PreferencesCookieName stores the signed start screen preferences.
	PreferencesCookieName = "op_preferences"
)
