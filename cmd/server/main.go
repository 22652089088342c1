package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/onlinepayments-demo/internal"
	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
	"github.com/dukerupert/onlinepayments-demo/internal/handler"
	"github.com/dukerupert/onlinepayments-demo/internal/handler/checkout"
	"github.com/dukerupert/onlinepayments-demo/internal/middleware"
	"github.com/dukerupert/onlinepayments-demo/internal/router"
	"github.com/dukerupert/onlinepayments-demo/internal/routes"
	"github.com/dukerupert/onlinepayments-demo/internal/service"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
	"github.com/dukerupert/onlinepayments-demo/internal/validation"
	"github.com/dukerupert/onlinepayments-demo/internal/worker"
	"github.com/dukerupert/onlinepayments-demo/web"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, internal.LogConfig{
		Env:   cfg.Env,
		Level: cfg.LogLevel,
		App:   cfg.AppIdentifier,
	})

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Initialize Prometheus metrics
	telemetry.InitCheckoutMetrics(cfg.Metrics.Namespace)
	metrics := middleware.NewMetrics(cfg.Metrics.Namespace, nil)

	// Validation messages
	var overrides map[string]string
	if cfg.Checkout.MessagesFile != "" {
		overrides, err = validation.LoadMessages(cfg.Checkout.MessagesFile)
		if err != nil {
			return fmt.Errorf("failed to load validation messages: %w", err)
		}
		logger.Info("Validation messages loaded", "file", cfg.Checkout.MessagesFile, "overrides", len(overrides))
	}

	// Client sessions
	var sessions service.SessionFactory
	if cfg.ClientAPI.Mock {
		logger.Info("Using built-in sample catalog (CLIENT_API_MOCK=true)")
		sessions = service.MockSessionFactory{}
	} else {
		sessions = &service.HTTPSessionFactory{Timeout: cfg.ClientAPI.Timeout, Locale: cfg.ClientAPI.Locale}
	}

	// Initialize checkout service
	flows := service.NewFlowStore(cfg.Checkout.FlowTTL)
	checkoutService, err := service.NewCheckoutService(service.CheckoutConfig{
		Sessions:         sessions,
		Flows:            flows,
		AppIdentifier:    cfg.AppIdentifier,
		Locale:           cfg.ClientAPI.Locale,
		CardPrefixLength: cfg.Checkout.CardPrefixLength,
		Renderer:         validation.NewRenderer(overrides),
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize checkout service: %w", err)
	}

	// Expired flow sweeper
	sweeper := worker.NewWorker(flows, worker.Config{Interval: cfg.Checkout.SweepInterval}, logger)
	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("flow sweeper stopped", "error", err)
		}
	}()

	// Load templates with renderer
	renderer, err := handler.NewRenderer(web.Templates(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	cookies := cookie.NewConfig(cfg.CookieSecure)
	preferences := cookie.NewPreferenceStore([]byte(cfg.SessionSecret), cookies)
	flowMaxAge := int(cfg.Checkout.FlowTTL.Seconds())

	sessionLimiter := middleware.NewRateLimiter(middleware.SessionRateLimiterConfig())
	defer sessionLimiter.Stop()
	fieldLimiter := middleware.NewRateLimiter(middleware.FieldRateLimiterConfig())
	defer fieldLimiter.Stop()

	checkoutDeps := routes.CheckoutDeps{
		StartHandler:    checkout.NewStartHandler(checkoutService, renderer, cookies, preferences, flowMaxAge),
		ProductsHandler: checkout.NewProductsHandler(checkoutService, renderer),
		CardHandler:     checkout.NewCardHandler(checkoutService, renderer),
		EndHandler:      checkout.NewEndHandler(checkoutService, renderer, cookies),
		RequireFlow: middleware.ResolveFlow(middleware.FlowConfig{
			Resolver: checkoutService,
			Cookies:  cookies,
		}),
		SessionRateLimiter: sessionLimiter,
		FieldRateLimiter:   fieldLimiter,
	}

	opsDeps := routes.OpsDeps{
		Health: func(w http.ResponseWriter, r *http.Request) {
			handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"status":       "ok",
				"active_flows": flows.Len(),
			})
		},
		Metrics: middleware.Handler(prometheus.DefaultGatherer),
	}

	// ==========================================================================
	// Router
	// ==========================================================================

	r := router.New(
		middleware.WithClientIP(),
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		router.Recovery(logger),
		router.Logger(logger),
		metrics.Middleware,
		middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.CookieSecure)),
		middleware.MaxBodySize(middleware.FormMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		middleware.CSRF(middleware.CSRFConfig{
			CookieConfig: cookies,
			SkipPaths:    []string{"/healthz", "/metrics"},
		}),
	)

	routes.RegisterCheckoutRoutes(r, checkoutDeps)
	routes.RegisterOpsRoutes(r, opsDeps, web.Static())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting checkout server", "addr", srv.Addr, "base_url", cfg.BaseURL, "mock", cfg.ClientAPI.Mock)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
