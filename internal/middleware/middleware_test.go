package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "upstream-id")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "upstream-id", seen)
		assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, want: "203.0.113.7"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.2"}, want: "198.51.100.2"},
		{name: "remote addr", remote: "192.0.2.10:5555", want: "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.remote != "" {
				req.RemoteAddr = tt.remote
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/":                    "/",
		"/card":                "/card",
		"/card/fields/cvv":     "/card/fields/:field",
		"/card/fields/PinCode": "/card/fields/:field",
		"/card/fields/a/b":     "unmatched",
		"/static/card.js":      "/static/*",
		"/wp-login.php":        "unmatched",
		"/products/select":     "/products/select",
		"/card/alert/dismiss":  "/card/alert/dismiss",
	}
	for path, want := range tests {
		assert.Equal(t, want, normalizePath(path), path)
	}
}

func TestMetrics_Middleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/card/fields/cvv", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/card/fields/:field", "418")))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(DefaultSecurityHeadersConfig(true))(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")

	rec = httptest.NewRecorder()
	SecurityHeaders(DefaultSecurityHeadersConfig(false))(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestMaxBodySize(t *testing.T) {
	h := MaxBodySize(8)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("0123456789"))
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	rec := httptest.NewRecorder()
	Timeout(10*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/card/pay", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	fast := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Done", "yes")
		w.WriteHeader(http.StatusCreated)
	})
	rec = httptest.NewRecorder()
	Timeout(time.Second)(fast).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/card/pay", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Done"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, BurstSize: 2})
	defer rl.Stop()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst used up")
	assert.True(t, rl.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "refilled")

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	h := rl.Middleware(okHandler)
	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
	rl.Stop()
}

func TestCSRF(t *testing.T) {
	h := CSRF(CSRFConfig{CookieConfig: cookie.NewConfig(false), SkipPaths: []string{"/metrics"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(GetCSRFToken(r.Context())))
		}))

	// A safe request issues the token.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Body.String()
	require.NotEmpty(t, token)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CSRFCookieName, cookies[0].Name)

	post := func(form url.Values, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(CSRFHeaderName, header)
		}
		req.AddCookie(cookies[0])
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, post(url.Values{CSRFFormFieldName: {token}}, "").Code)
	assert.Equal(t, http.StatusOK, post(nil, token).Code)
	assert.Equal(t, http.StatusForbidden, post(url.Values{CSRFFormFieldName: {"forged"}}, "").Code)
	assert.Equal(t, http.StatusForbidden, post(nil, "").Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "skipped path")
}

func TestMatchesPathPrefix(t *testing.T) {
	assert.True(t, matchesPathPrefix("/metrics", "/metrics"))
	assert.True(t, matchesPathPrefix("/metrics/x", "/metrics"))
	assert.False(t, matchesPathPrefix("/metrics-evil", "/metrics"))
	assert.True(t, matchesPathPrefix("/static/a.js", "/static/"))
}

type stubResolver struct {
	flow *service.Flow
	err  error
}

func (s stubResolver) Flow(id string) (*service.Flow, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id != s.flow.ID {
		return nil, service.ErrFlowNotFound
	}
	return s.flow, nil
}

func TestResolveFlow(t *testing.T) {
	flow := &service.Flow{ID: "flow-1"}
	var got *service.Flow
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetFlow(r.Context())
		assert.Equal(t, "flow-1", domain.FlowIDFromContext(r.Context()))
	})

	t.Run("resolved", func(t *testing.T) {
		h := ResolveFlow(FlowConfig{Resolver: stubResolver{flow: flow}, Cookies: cookie.NewConfig(false)})(next)
		req := httptest.NewRequest(http.MethodGet, "/card", nil)
		req.AddCookie(&http.Cookie{Name: cookie.FlowCookieName, Value: "flow-1"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Same(t, flow, got)
	})

	t.Run("missing cookie redirects", func(t *testing.T) {
		h := ResolveFlow(FlowConfig{Resolver: stubResolver{flow: flow}})(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/card", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("expired redirects with notice", func(t *testing.T) {
		h := ResolveFlow(FlowConfig{Resolver: stubResolver{err: service.ErrFlowExpired}, Cookies: cookie.NewConfig(false)})(next)
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.AddCookie(&http.Cookie{Name: cookie.FlowCookieName, Value: "flow-1"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/?expired=1", rec.Header().Get("Location"))
		require.NotEmpty(t, rec.Result().Cookies())
		assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
	})

	t.Run("json gets error body", func(t *testing.T) {
		h := ResolveFlow(FlowConfig{Resolver: stubResolver{err: service.ErrFlowExpired}})(next)
		req := httptest.NewRequest(http.MethodPost, "/card/fields/cvv", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, domain.EGONE, body.Error.Code)
	})
}
