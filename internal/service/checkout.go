package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/cardform"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
	"github.com/dukerupert/onlinepayments-demo/internal/validation"
)

// CheckoutService drives the four checkout screens: start, payment items,
// card form and end.
type CheckoutService interface {
	// Start validates the start screen input, creates the client session and
	// retrieves the payment items.
	Start(ctx context.Context, input SessionInput) (*Flow, error)

	// Flow returns a stored flow.
	Flow(id string) (*Flow, error)

	// Rows lists the flow's payment items for the overview screen.
	Rows(flow *Flow) ItemRows

	// Select opens the card form for a product or account on file.
	Select(ctx context.Context, flow *Flow, productID, accountOnFileID int) (*cardform.Controller, error)

	// EditField applies one live edit to the card form. validate runs field
	// validation as when the input loses focus.
	EditField(ctx context.Context, flow *Flow, name, value string, validate bool) (cardform.State, error)

	// DismissAlert clears the card form's alert once the shopper has seen it.
	DismissAlert(flow *Flow) (cardform.State, error)

	// Pay submits the card form.
	Pay(ctx context.Context, flow *Flow, tokenize bool) (*onlinepayments.PreparedPaymentRequest, error)

	// Prepared returns the result shown on the end screen.
	Prepared(flow *Flow) (*onlinepayments.PreparedPaymentRequest, error)

	// End discards the flow.
	End(flowID string)
}

// CheckoutConfig configures a CheckoutService.
type CheckoutConfig struct {
	Sessions         SessionFactory
	Flows            *FlowStore
	AppIdentifier    string
	Locale           string
	CardPrefixLength int
	Renderer         *validation.Renderer
	Logger           *slog.Logger

	// Clock overrides time.Now for card expiry validation.
	Clock func() time.Time
}

type checkoutService struct {
	cfg CheckoutConfig
}

// NewCheckoutService creates a CheckoutService.
func NewCheckoutService(cfg CheckoutConfig) (CheckoutService, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("service: session factory is required")
	}
	if cfg.Flows == nil {
		return nil, errors.New("service: flow store is required")
	}
	if cfg.Renderer == nil {
		cfg.Renderer = validation.NewRenderer(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.CardPrefixLength <= 0 {
		cfg.CardPrefixLength = cardform.DefaultPrefixLength
	}
	return &checkoutService{cfg: cfg}, nil
}

func (s *checkoutService) Start(ctx context.Context, input SessionInput) (*Flow, error) {
	const op = "checkout.start"

	input.Normalize()
	if err := input.Validate(); err != nil {
		s.setupFailed("validation")
		return nil, err
	}
	pc, err := input.PaymentContext(s.cfg.Locale)
	if err != nil {
		s.setupFailed("validation")
		return nil, err
	}

	session, err := s.cfg.Sessions.NewSession(input.SessionConfig(s.cfg.AppIdentifier))
	if err != nil {
		s.setupFailed("config")
		return nil, domain.WrapError(err, domain.EINVALID, op, "Could not create a session with these details. Please check the client API URL.")
	}

	items, err := session.PaymentItems(ctx, pc)
	if err != nil {
		s.setupFailed(setupFailureReason(err))
		s.cfg.Logger.Warn("failed to retrieve payment items",
			"customer_id", input.CustomerID,
			"country", pc.CountryCode,
			"currency", pc.AmountOfMoney.CurrencyCode,
			"error", err,
		)
		return nil, clientError(err, op)
	}

	flow := s.cfg.Flows.Create(session, pc, items)
	flow.AssetURL = input.AssetURL

	telemetry.SetFlow(ctx, flow.ID)
	telemetry.AddBreadcrumb(ctx, "checkout", "session started", map[string]interface{}{
		"products":         len(items.Products),
		"accounts_on_file": len(items.AccountsOnFile),
	})
	if telemetry.Checkout != nil {
		telemetry.Checkout.SessionsStarted.WithLabelValues(input.Source).Inc()
	}

	s.cfg.Logger.Info("checkout started",
		"flow_id", flow.ID,
		"source", input.Source,
		"products", len(items.Products),
		"accounts_on_file", len(items.AccountsOnFile),
	)
	return flow, nil
}

func (s *checkoutService) setupFailed(reason string) {
	if telemetry.Checkout != nil {
		telemetry.Checkout.SessionSetupFailed.WithLabelValues(reason).Inc()
	}
}

func setupFailureReason(err error) string {
	var apiErr *onlinepayments.APIError
	var transportErr *onlinepayments.TransportError
	switch {
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &transportErr):
		return "transport"
	default:
		return "other"
	}
}

func (s *checkoutService) Flow(id string) (*Flow, error) {
	return s.cfg.Flows.Get(id)
}

func (s *checkoutService) Rows(flow *Flow) ItemRows {
	return BuildItemRows(flow.Items, flow.AssetURL)
}

func (s *checkoutService) Select(ctx context.Context, flow *Flow, productID, accountOnFileID int) (*cardform.Controller, error) {
	const op = "checkout.select"
	label := strconv.Itoa(productID)

	product, err := flow.Session.PaymentProduct(ctx, productID, flow.Context)
	if err != nil {
		s.cfg.Logger.Warn("failed to retrieve payment product", "flow_id", flow.ID, "product_id", productID, "error", err)
		return nil, clientError(err, op)
	}

	if !collectsCard(product) {
		s.cfg.Logger.Info("payment product not available", "flow_id", flow.ID, "product_id", productID, "payment_method", product.PaymentMethod)
		if telemetry.Checkout != nil {
			telemetry.Checkout.ProductUnavailable.WithLabelValues(label).Inc()
		}
		return nil, ErrProductNotAvailable
	}

	var aof *onlinepayments.AccountOnFile
	kind := "product"
	if accountOnFileID != 0 {
		aof = product.AccountOnFile(accountOnFileID)
		if aof == nil {
			return nil, ErrUnknownPaymentItem
		}
		kind = "account_on_file"
	}

	opts := []cardform.Option{
		cardform.WithPrefixLength(s.cfg.CardPrefixLength),
		cardform.WithRenderer(s.cfg.Renderer),
		cardform.WithLogger(s.cfg.Logger.With("flow_id", flow.ID)),
	}
	if s.cfg.Clock != nil {
		opts = append(opts, cardform.WithClock(s.cfg.Clock))
	}
	card := cardform.New(flow.Session, flow.Context, opts...)
	card.ConfigureFields(product, aof)
	flow.setCardForm(card)

	if telemetry.Checkout != nil {
		telemetry.Checkout.ProductSelected.WithLabelValues(label, kind).Inc()
	}
	telemetry.AddBreadcrumb(ctx, "checkout", "product selected", map[string]interface{}{
		"product_id": productID,
		"kind":       kind,
	})
	s.cfg.Logger.Info("payment product selected", "flow_id", flow.ID, "product_id", productID, "kind", kind)
	return card, nil
}

// collectsCard reports whether the card form can collect product's details.
func collectsCard(product *onlinepayments.PaymentProduct) bool {
	switch {
	case product.ID == onlinepayments.ApplePayProductID:
		return false
	case len(product.Fields) == 0:
		return false
	default:
		return product.PaymentMethod == onlinepayments.PaymentMethodCard
	}
}

func (s *checkoutService) EditField(ctx context.Context, flow *Flow, name, value string, validate bool) (cardform.State, error) {
	const op = "checkout.edit"

	card := flow.CardForm()
	if card == nil {
		return cardform.State{}, ErrNoCardForm
	}

	err := card.OnFieldChanged(ctx, name, value)
	if errors.Is(err, cardform.ErrUnknownField) || errors.Is(err, cardform.ErrFieldDisabled) {
		return card.State(), clientError(err, op)
	}
	if err != nil {
		// Lookup failures are already shown as the form's alert.
		s.cfg.Logger.Warn("card lookup failed", "flow_id", flow.ID, "error", err)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": op})
	}

	if validate {
		card.ValidateField(name)
	}
	return card.State(), nil
}

func (s *checkoutService) DismissAlert(flow *Flow) (cardform.State, error) {
	card := flow.CardForm()
	if card == nil {
		return cardform.State{}, ErrNoCardForm
	}
	card.DismissAlert()
	return card.State(), nil
}

func (s *checkoutService) Pay(ctx context.Context, flow *Flow, tokenize bool) (*onlinepayments.PreparedPaymentRequest, error) {
	const op = "checkout.pay"

	card := flow.CardForm()
	if card == nil {
		return nil, ErrNoCardForm
	}

	card.SetTokenize(tokenize)
	prepared, err := card.Submit(ctx)
	if err != nil {
		if !errors.Is(err, cardform.ErrValidation) && !errors.Is(err, cardform.ErrBusy) {
			telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"op": op, "flow_id": flow.ID})
		}
		return nil, clientError(err, op)
	}

	telemetry.AddBreadcrumb(ctx, "checkout", "payment prepared", nil)
	return prepared, nil
}

func (s *checkoutService) Prepared(flow *Flow) (*onlinepayments.PreparedPaymentRequest, error) {
	card := flow.CardForm()
	if card == nil {
		return nil, ErrNotPrepared
	}
	prepared := card.Prepared()
	if prepared == nil {
		return nil, ErrNotPrepared
	}
	return prepared, nil
}

func (s *checkoutService) End(flowID string) {
	s.cfg.Flows.Delete(flowID)
	s.cfg.Logger.Info("checkout ended", "flow_id", flowID)
}
