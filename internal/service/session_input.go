package service

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/onlinepayments-demo/internal/cookie"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
)

// SessionInput is the start screen form.
type SessionInput struct {
	ClientSessionID string `form:"clientSessionId" validate:"required"`
	CustomerID      string `form:"customerId" validate:"required"`
	ClientAPIURL    string `form:"clientApiUrl" validate:"required,url"`
	AssetURL        string `form:"assetUrl" validate:"required,url"`
	Amount          string `form:"amount" validate:"required,number,minor_units"`
	CountryCode     string `form:"countryCode" validate:"required,iso3166_1_alpha2"`
	CurrencyCode    string `form:"currencyCode" validate:"required,iso4217"`
	Recurring       bool   `form:"recurring"`

	// Source records how the identifiers were entered: "form" or "paste".
	Source string `form:"source"`
}

// Input sources.
const (
	SourceForm  = "form"
	SourcePaste = "paste"
)

// EmptyFieldMessage is shown for every start screen field left blank.
const EmptyFieldMessage = "Field is empty"

var tagMessages = map[string]string{
	"required":         EmptyFieldMessage,
	"url":              "Please enter a valid URL",
	"number":           "Please enter the amount in minor units, e.g. 1500",
	"minor_units":      "The amount is too large",
	"iso3166_1_alpha2": "Please enter a two-letter country code, e.g. NL",
	"iso4217":          "Please enter a three-letter currency code, e.g. EUR",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report form names so errors can be shown next to their inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	// Amounts are sent to the platform as int64 minor units.
	if err := v.RegisterValidation("minor_units", func(fl validator.FieldLevel) bool {
		_, err := parseMinorUnits(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	return v
}

func parseMinorUnits(amount string) (int64, error) {
	return strconv.ParseInt(amount, 10, 64)
}

// Normalize trims whitespace and upper-cases the ISO codes.
func (in *SessionInput) Normalize() {
	in.ClientSessionID = strings.TrimSpace(in.ClientSessionID)
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.ClientAPIURL = strings.TrimSpace(in.ClientAPIURL)
	in.AssetURL = strings.TrimSpace(in.AssetURL)
	in.Amount = strings.TrimSpace(in.Amount)
	in.CountryCode = strings.ToUpper(strings.TrimSpace(in.CountryCode))
	in.CurrencyCode = strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if in.Source != SourcePaste {
		in.Source = SourceForm
	}
}

// Validate checks every field and returns a *domain.FieldErrors keyed by
// form name listing each failing field.
func (in SessionInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, "session.validate", "failed to validate session input")
	}

	fields := domain.NewFieldErrors("session.validate")
	for _, fe := range fieldErrs {
		msg, ok := tagMessages[fe.Tag()]
		if !ok {
			msg = "Please enter a valid value"
		}
		fields.Add(fe.Field(), msg)
	}
	return fields.Err()
}

// PaymentContext builds the payment context from validated input.
func (in SessionInput) PaymentContext(locale string) (onlinepayments.PaymentContext, error) {
	amount, err := parseMinorUnits(in.Amount)
	if err != nil {
		fields := domain.NewFieldErrors("session.context")
		fields.Add("amount", tagMessages["number"])
		return onlinepayments.PaymentContext{}, fields
	}
	return onlinepayments.PaymentContext{
		AmountOfMoney: onlinepayments.AmountOfMoney{TotalAmount: amount, CurrencyCode: in.CurrencyCode},
		CountryCode:   in.CountryCode,
		IsRecurring:   in.Recurring,
		Locale:        locale,
	}, nil
}

// SessionConfig builds the client session configuration.
func (in SessionInput) SessionConfig(appIdentifier string) onlinepayments.SessionConfig {
	return onlinepayments.SessionConfig{
		ClientSessionID: in.ClientSessionID,
		CustomerID:      in.CustomerID,
		ClientAPIURL:    in.ClientAPIURL,
		AssetURL:        in.AssetURL,
		AppIdentifier:   appIdentifier,
	}
}

// Preferences returns the values remembered between visits.
func (in SessionInput) Preferences() cookie.Preferences {
	return cookie.Preferences{
		ClientSessionID: in.ClientSessionID,
		CustomerID:      in.CustomerID,
		ClientAPIURL:    in.ClientAPIURL,
		AssetURL:        in.AssetURL,
		Amount:          in.Amount,
		CountryCode:     in.CountryCode,
		CurrencyCode:    in.CurrencyCode,
	}
}

// InputFromPreferences prefills the start screen.
func InputFromPreferences(p cookie.Preferences) SessionInput {
	return SessionInput{
		ClientSessionID: p.ClientSessionID,
		CustomerID:      p.CustomerID,
		ClientAPIURL:    p.ClientAPIURL,
		AssetURL:        p.AssetURL,
		Amount:          p.Amount,
		CountryCode:     p.CountryCode,
		CurrencyCode:    p.CurrencyCode,
	}
}

// PastedCredentials is the JSON produced when a client session is created
// server side.
type PastedCredentials struct {
	ClientSessionID string `json:"clientSessionId"`
	CustomerID      string `json:"customerId"`
	ClientAPIURL    string `json:"clientApiUrl"`
	AssetURL        string `json:"assetUrl"`
}

// ParsePastedJSON decodes pasted session credentials.
func ParsePastedJSON(text string) (*PastedCredentials, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyPaste
	}

	var creds PastedCredentials
	if err := json.Unmarshal([]byte(text), &creds); err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, "session.paste", domain.ErrorMessage(ErrInvalidPaste))
	}
	return &creds, nil
}

// ApplyPasted replaces the session identifiers with pasted ones. Keys absent
// from the paste clear the field.
func (in *SessionInput) ApplyPasted(p *PastedCredentials) {
	in.ClientSessionID = p.ClientSessionID
	in.CustomerID = p.CustomerID
	in.ClientAPIURL = p.ClientAPIURL
	in.AssetURL = p.AssetURL
	in.Source = SourcePaste
}
