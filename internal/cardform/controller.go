package cardform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
	"github.com/dukerupert/onlinepayments-demo/internal/telemetry"
	"github.com/dukerupert/onlinepayments-demo/internal/validation"
)

// DefaultPrefixLength is the number of card digits that triggers a product
// lookup.
const DefaultPrefixLength = 6

const unknownCardMessage = "The card number is not recognised. Please check it or select another payment method."

type field struct {
	descriptor *onlinepayments.PaymentProductField
	displayed  string
	err        *validation.Error
	message    string
	enabled    bool
	bypassed   bool
}

func (f *field) present() bool {
	return f.descriptor != nil
}

func (f *field) unmasked() string {
	if f.descriptor == nil {
		return f.displayed
	}
	return f.descriptor.RemoveMask(f.displayed)
}

// Option configures a Controller.
type Option func(*Controller)

// WithPrefixLength sets how many card digits trigger a product lookup.
func WithPrefixLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.prefixLength = n
		}
	}
}

// WithClock replaces time.Now for expiry date validation.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithRenderer sets the validation message renderer.
func WithRenderer(r *validation.Renderer) Option {
	return func(c *Controller) { c.renderer = r }
}

// Controller owns the card form of one checkout. All methods are safe for
// concurrent use; at most one external call runs at a time.
type Controller struct {
	gateway      Gateway
	context      onlinepayments.PaymentContext
	renderer     *validation.Renderer
	logger       *slog.Logger
	prefixLength int
	now          func() time.Time

	mu             sync.Mutex
	product        *onlinepayments.PaymentProduct
	accountOnFile  *onlinepayments.AccountOnFile
	fields         map[string]*field
	values         map[string]string
	tokenize       bool
	liveValidation bool
	ready          bool
	busy           bool
	disallowed     bool
	lastPrefix     string
	alert          string
	prepared       *onlinepayments.PreparedPaymentRequest

	listeners    map[int]func(State)
	nextListener int
}

// New creates a controller that calls out to gateway within pc. Call
// ConfigureFields before use.
func New(gateway Gateway, pc onlinepayments.PaymentContext, opts ...Option) *Controller {
	c := &Controller{
		gateway:      gateway,
		context:      pc,
		renderer:     validation.NewRenderer(nil),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		prefixLength: DefaultPrefixLength,
		now:          time.Now,
		fields:       make(map[string]*field, len(Fields)),
		values:       make(map[string]string),
		listeners:    make(map[int]func(State)),
	}
	for _, name := range Fields {
		c.fields[name] = &field{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfigureFields sets up the form for product and an optional account on
// file. Values already entered for fields the product still has are kept.
func (c *Controller) ConfigureFields(product *onlinepayments.PaymentProduct, accountOnFile *onlinepayments.AccountOnFile) {
	c.mu.Lock()
	c.lastPrefix = ""
	c.configureLocked(product, accountOnFile)
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)
}

func (c *Controller) configureLocked(product *onlinepayments.PaymentProduct, accountOnFile *onlinepayments.AccountOnFile) {
	c.product = product
	c.accountOnFile = accountOnFile
	c.disallowed = false

	// Fields other than the card number that were flagged are checked again
	// against the new product's rules.
	recheck := make([]string, 0, len(Fields))
	for _, name := range Fields {
		f := c.fields[name]
		if f.err != nil && name != onlinepayments.FieldCardNumber {
			recheck = append(recheck, name)
		}
		raw := ""
		if !f.bypassed {
			raw = f.unmasked()
		}

		f.descriptor = product.Field(name)
		f.err = nil
		f.message = ""
		f.enabled = f.present()
		f.bypassed = false

		if !f.present() {
			f.displayed = ""
			delete(c.values, name)
			continue
		}

		// Kept values are reformatted with the new product's mask.
		f.displayed = f.descriptor.ApplyMask(raw)
		if _, ok := c.values[name]; ok {
			c.values[name] = raw
		}

		if accountOnFile.HasValue(name) {
			f.displayed = accountOnFile.MaskedValue(name)
			f.bypassed = true
			f.enabled = !accountOnFile.IsReadOnly(name)
			delete(c.values, name)
		}
	}

	if accountOnFile != nil {
		c.fields[onlinepayments.FieldCardNumber].enabled = false
	}

	if product != nil && !product.AllowsTokenization {
		c.tokenize = false
	}

	if c.liveValidation {
		for _, name := range Fields {
			if c.fields[name].present() {
				c.validateLocked(name)
			}
		}
	} else {
		for _, name := range recheck {
			c.validateLocked(name)
		}
	}
	c.evaluateLocked()
}

// OnFieldChanged records a new displayed value for name. Card number edits
// may trigger a product lookup; its failure is returned and also shown as
// the state's alert.
func (c *Controller) OnFieldChanged(ctx context.Context, name, value string) error {
	c.mu.Lock()
	f, ok := c.fields[name]
	if !ok || !f.present() {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if !f.enabled {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrFieldDisabled, name)
	}

	f.displayed = value
	if !f.bypassed {
		c.values[name] = f.unmasked()
	}
	if c.liveValidation {
		c.validateLocked(name)
	}
	c.evaluateLocked()

	raw := f.unmasked()
	detect := name == onlinepayments.FieldCardNumber && c.accountOnFile == nil
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)

	if detect {
		return c.DetectProductSwitch(ctx, raw)
	}
	return nil
}

// MaskedValue returns the displayed value of name formatted with its mask.
func (c *Controller) MaskedValue(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maskedLocked(name)
}

func (c *Controller) maskedLocked(name string) string {
	f, ok := c.fields[name]
	if !ok {
		return ""
	}
	if f.descriptor == nil {
		return f.displayed
	}
	return f.descriptor.ApplyMask(f.displayed)
}

// UnmaskedValue returns the displayed value of name with its mask removed.
// This is the value that is validated and submitted.
func (c *Controller) UnmaskedValue(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.fields[name]; ok {
		return f.unmasked()
	}
	return ""
}

// CardValue returns the card number for display: the stored value of the
// account on file while it is shown unchanged, the masked value otherwise.
func (c *Controller) CardValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cardValueLocked()
}

func (c *Controller) cardValueLocked() string {
	f := c.fields[onlinepayments.FieldCardNumber]
	if c.accountOnFile != nil {
		if stored := c.accountOnFile.MaskedValue(onlinepayments.FieldCardNumber); stored == f.displayed {
			return stored
		}
	}
	return c.maskedLocked(onlinepayments.FieldCardNumber)
}

// Placeholder returns the label of name on the configured product.
func (c *Controller) Placeholder(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.fields[name]; ok && f.descriptor != nil {
		return f.descriptor.DisplayHints.Label
	}
	return ""
}

// SetTokenize records the customer's choice to remember the card. It is
// ignored for products that cannot be tokenized.
func (c *Controller) SetTokenize(tokenize bool) {
	c.mu.Lock()
	c.tokenize = tokenize && c.product != nil && c.product.AllowsTokenization
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)
}

// ValidateField validates name and stores the first failure as the field's
// error. Read-only account on file values and the card number of an account
// on file are never validated; the cardholder name only when required.
func (c *Controller) ValidateField(name string) *validation.Error {
	c.mu.Lock()
	err := c.validateLocked(name)
	c.evaluateLocked()
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)
	return err
}

func (c *Controller) validateLocked(name string) *validation.Error {
	f, ok := c.fields[name]
	if !ok || !f.present() {
		return nil
	}
	if c.accountOnFile != nil {
		if name == onlinepayments.FieldCardNumber {
			return nil
		}
		if f.bypassed && c.accountOnFile.IsReadOnly(name) {
			return nil
		}
	}
	if name == onlinepayments.FieldCardholderName && !f.descriptor.IsRequired() {
		f.err, f.message = nil, ""
		return nil
	}

	f.err, f.message = nil, ""
	if errs := f.descriptor.ValidateAt(f.unmasked(), c.now()); len(errs) > 0 {
		first := errs[0]
		f.err = &first
	} else if name == onlinepayments.FieldCardNumber && c.disallowed {
		disallowed := validation.CategoryError(validation.CategoryAllowedInContext)
		f.err = &disallowed
	}
	if f.err != nil {
		f.message = c.renderer.Render(*f.err, false)
	}
	return f.err
}

// EvaluateReadiness reports whether every present field has a value and no
// error.
func (c *Controller) EvaluateReadiness() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evaluateLocked()
}

func (c *Controller) evaluateLocked() bool {
	ready := c.product != nil
	for _, name := range Fields {
		f := c.fields[name]
		if !f.present() {
			continue
		}
		if f.unmasked() == "" || f.err != nil {
			ready = false
		}
	}
	c.ready = ready
	return ready
}

// DetectProductSwitch looks up the product for the leading digits of
// rawCardValue once enough digits are entered and they differ from the last
// lookup. A different supported product reconfigures the form; a known but
// disallowed card sets the card field's error.
func (c *Controller) DetectProductSwitch(ctx context.Context, rawCardValue string) error {
	for {
		c.mu.Lock()
		if c.busy || c.product == nil || c.accountOnFile != nil || len(rawCardValue) < c.prefixLength {
			c.mu.Unlock()
			return nil
		}
		prefix := rawCardValue[:c.prefixLength]
		if prefix == c.lastPrefix {
			c.mu.Unlock()
			return nil
		}
		c.lastPrefix = prefix
		c.busy = true
		currentID := c.product.ID
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(state)

		err := c.lookup(ctx, prefix, currentID)

		c.mu.Lock()
		c.busy = false
		if err != nil {
			c.alert = onlinepayments.UserMessage(err)
			c.lastPrefix = ""
		}
		c.evaluateLocked()
		state = c.snapshotLocked()
		// Digits typed while the lookup ran are checked next.
		rawCardValue = c.fields[onlinepayments.FieldCardNumber].unmasked()
		c.mu.Unlock()
		c.notify(state)

		if err != nil {
			return err
		}
	}
}

// lookup runs outside the lock with busy set.
func (c *Controller) lookup(ctx context.Context, prefix string, currentID int) error {
	start := time.Now()
	resp, err := c.gateway.IINDetails(ctx, prefix, c.context)
	if err != nil {
		c.logger.Warn("iin lookup failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		if telemetry.Checkout != nil {
			telemetry.Checkout.IINLookups.WithLabelValues("error").Inc()
		}
		return err
	}

	c.logger.Debug("iin lookup",
		"status", resp.Status,
		"product_id", resp.PaymentProductID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if telemetry.Checkout != nil {
		telemetry.Checkout.IINLookups.WithLabelValues(string(resp.Status)).Inc()
	}

	switch resp.Status {
	case onlinepayments.IINStatusSupported:
		if resp.PaymentProductID == currentID {
			c.mu.Lock()
			c.clearDisallowedLocked()
			c.mu.Unlock()
			return nil
		}

		product, err := c.gateway.PaymentProduct(ctx, resp.PaymentProductID, c.context)
		if err != nil {
			c.logger.Warn("failed to fetch detected product", "product_id", resp.PaymentProductID, "error", err)
			return err
		}

		c.mu.Lock()
		c.configureLocked(product, nil)
		c.mu.Unlock()

		c.logger.Info("card product switched", "from", currentID, "to", product.ID)
		telemetry.AddBreadcrumb(ctx, "cardform", "product switched", map[string]interface{}{
			"from": currentID,
			"to":   product.ID,
		})
		if telemetry.Checkout != nil {
			telemetry.Checkout.ProductSwitched.WithLabelValues(strconv.Itoa(product.ID)).Inc()
		}

	case onlinepayments.IINStatusExistingButNotAllowed:
		c.mu.Lock()
		c.disallowed = true
		f := c.fields[onlinepayments.FieldCardNumber]
		disallowed := validation.CategoryError(validation.CategoryAllowedInContext)
		f.err = &disallowed
		f.message = c.renderer.Render(disallowed, false)
		c.mu.Unlock()

	case onlinepayments.IINStatusUnknown:
		c.mu.Lock()
		c.alert = unknownCardMessage
		c.clearDisallowedLocked()
		c.mu.Unlock()
	}
	return nil
}

func (c *Controller) clearDisallowedLocked() {
	if !c.disallowed {
		return
	}
	c.disallowed = false
	f := c.fields[onlinepayments.FieldCardNumber]
	if f.err != nil && f.err.Category == validation.CategoryAllowedInContext {
		f.err, f.message = nil, ""
	}
}

// Submit validates every field and, when all pass, encrypts the payment
// request. Failing validation turns on live validation and returns
// ErrValidation. A failed external call leaves the form unchanged and is
// shown as the state's alert.
func (c *Controller) Submit(ctx context.Context) (*onlinepayments.PreparedPaymentRequest, error) {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.product == nil {
		c.mu.Unlock()
		return nil, ErrNotConfigured
	}
	productLabel := strconv.Itoa(c.product.ID)
	if telemetry.Checkout != nil {
		telemetry.Checkout.PaymentAttempts.WithLabelValues(productLabel).Inc()
	}

	valid := true
	for _, name := range Fields {
		if c.fields[name].present() && c.validateLocked(name) != nil {
			valid = false
		}
	}
	c.evaluateLocked()

	if !valid {
		c.liveValidation = true
		state := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(state)

		if telemetry.Checkout != nil {
			telemetry.Checkout.PaymentValidationFailed.WithLabelValues(productLabel).Inc()
		}
		return nil, ErrValidation
	}

	req := c.paymentRequestLocked()
	c.busy = true
	c.alert = ""
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	start := time.Now()
	prepared, err := c.gateway.Prepare(ctx, req)

	c.mu.Lock()
	c.busy = false
	if err != nil {
		c.alert = onlinepayments.UserMessage(err)
	} else {
		c.prepared = prepared
	}
	state = c.snapshotLocked()
	raw := c.fields[onlinepayments.FieldCardNumber].unmasked()
	detect := c.accountOnFile == nil
	c.mu.Unlock()
	c.notify(state)

	if err != nil {
		c.logger.Warn("failed to prepare payment request", "product_id", req.Product.ID, "error", err)
		if telemetry.Checkout != nil {
			telemetry.Checkout.PaymentFailed.WithLabelValues(productLabel, failureReason(err)).Inc()
		}
		return nil, err
	}

	c.logger.Info("payment request prepared",
		"product_id", req.Product.ID,
		"tokenize", req.Tokenize,
		"fields", len(req.FieldValues),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if telemetry.Checkout != nil {
		telemetry.Checkout.PaymentPrepared.WithLabelValues(productLabel, strconv.FormatBool(req.Tokenize)).Inc()
	}

	if detect {
		// Card edits made during submission are looked up now; a failure
		// there is already shown as the alert.
		_ = c.DetectProductSwitch(ctx, raw)
	}
	return prepared, nil
}

// PaymentRequest returns the request Submit would send, without validating.
func (c *Controller) PaymentRequest() (*onlinepayments.PaymentRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.product == nil {
		return nil, ErrNotConfigured
	}
	return c.paymentRequestLocked(), nil
}

func (c *Controller) paymentRequestLocked() *onlinepayments.PaymentRequest {
	req := onlinepayments.NewPaymentRequest(c.product, c.accountOnFile, c.tokenize)
	for _, name := range Fields {
		f := c.fields[name]
		if !f.present() || f.bypassed {
			continue
		}
		if v := c.values[name]; v != "" {
			req.SetValue(name, v)
		}
	}
	return req
}

func failureReason(err error) string {
	var apiErr *onlinepayments.APIError
	var transportErr *onlinepayments.TransportError
	switch {
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, onlinepayments.ErrNoPublicKey):
		return "encryption"
	default:
		return "other"
	}
}

// Prepared returns the result of the last successful submission.
func (c *Controller) Prepared() *onlinepayments.PreparedPaymentRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepared
}

// Product returns the configured product.
func (c *Controller) Product() *onlinepayments.PaymentProduct {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.product
}

// DismissAlert clears the alert message.
func (c *Controller) DismissAlert() {
	c.mu.Lock()
	c.alert = ""
	state := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(state)
}

// State returns a snapshot of the form.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := State{
		Fields:         make([]FieldState, 0, len(Fields)),
		Ready:          c.ready,
		LiveValidation: c.liveValidation,
		Busy:           c.busy,
		Tokenize:       c.tokenize,
		Alert:          c.alert,
		Prepared:       c.prepared != nil,
	}
	if c.product != nil {
		hints := c.product.Hints()
		s.ProductID = c.product.ID
		s.ProductLabel = hints.Label
		s.ProductLogo = hints.Logo
		s.AllowsTokenization = c.product.AllowsTokenization
	}
	if c.accountOnFile != nil {
		s.AccountOnFileID = c.accountOnFile.ID
	}

	for _, name := range Fields {
		f := c.fields[name]
		fs := FieldState{Name: name, Present: f.present(), Enabled: f.enabled, Error: f.message}
		if f.present() {
			fs.Placeholder = f.descriptor.DisplayHints.Label
			fs.Obfuscate = f.descriptor.DisplayHints.Obfuscate
			if name == onlinepayments.FieldCardNumber {
				fs.Value = c.cardValueLocked()
			} else {
				fs.Value = c.maskedLocked(name)
			}
		}
		s.Fields = append(s.Fields, fs)
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every change. fn is
// called without the controller's lock held. The returned func removes it.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) notify(state State) {
	c.mu.Lock()
	listeners := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
