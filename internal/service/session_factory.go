package service

import (
	"net/http"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
)

// SessionFactory creates the client session for a checkout.
type SessionFactory interface {
	NewSession(cfg onlinepayments.SessionConfig) (onlinepayments.Session, error)
}

// SessionFactoryFunc adapts a function to SessionFactory.
type SessionFactoryFunc func(cfg onlinepayments.SessionConfig) (onlinepayments.Session, error)

func (f SessionFactoryFunc) NewSession(cfg onlinepayments.SessionConfig) (onlinepayments.Session, error) {
	return f(cfg)
}

// HTTPSessionFactory creates sessions that call the client API.
type HTTPSessionFactory struct {
	Timeout time.Duration
	Locale  string
}

func (f *HTTPSessionFactory) NewSession(cfg onlinepayments.SessionConfig) (onlinepayments.Session, error) {
	hc := &http.Client{
		Timeout:   f.Timeout,
		Transport: &telemetry.HTTPTransport{},
	}
	client, err := onlinepayments.NewClient(cfg,
		onlinepayments.WithHTTPClient(hc),
		onlinepayments.WithLocale(f.Locale),
		onlinepayments.WithObserver(func(op string, elapsed time.Duration, err error) {
			telemetry.ObserveClientAPI(op, elapsed.Seconds(), err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// MockSessionFactory creates in-memory sessions over the sample catalog.
type MockSessionFactory struct{}

func (MockSessionFactory) NewSession(cfg onlinepayments.SessionConfig) (onlinepayments.Session, error) {
	session, err := onlinepayments.NewMockSession(cfg)
	if err != nil {
		return nil, err
	}
	return session, nil
}
