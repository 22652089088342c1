package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const messageKeyFormat = "gc.general.paymentProductFields.validationErrors.%s.label"

// MessageKey returns the catalog key for a template name such as
// "length.exact" or "luhn".
func MessageKey(name string) string {
	return fmt.Sprintf(messageKeyFormat, name)
}

// DefaultMessages is the English message catalog.
var DefaultMessages = map[string]string{
	MessageKey("length.exact"):             "Please enter a value of exactly {maxLength} characters.",
	MessageKey("length.max"):               "Please enter no more than {maxLength} characters.",
	MessageKey("length.min"):               "Please enter at least {minLength} characters.",
	MessageKey("length.between"):           "Please enter between {minLength} and {maxLength} characters.",
	MessageKey("range.between"):            "Please enter a value between {minValue} and {maxValue}.",
	MessageKey(CategoryLuhn):               "Please enter a valid card number.",
	MessageKey(CategoryExpirationDate):     "Please enter a valid expiry date.",
	MessageKey(CategoryRegularExpression):  "Please enter a valid value.",
	MessageKey(CategoryEmailAddress):       "Please enter a valid email address.",
	MessageKey(CategoryRequired):           "This field is required.",
	MessageKey(CategoryFixedList):          "Please select a valid option.",
	MessageKey(CategoryTermsAndConditions): "Please accept the terms and conditions.",
	MessageKey(CategoryAllowedInContext):   "The card you entered is not supported. Please enter another card or try another payment method.",
}

// Renderer turns validation errors into user-facing strings using a fixed
// template per error category.
type Renderer struct {
	messages map[string]string
}

// NewRenderer creates a renderer over DefaultMessages with the given
// overrides applied on top.
func NewRenderer(overrides map[string]string) *Renderer {
	messages := make(map[string]string, len(DefaultMessages)+len(overrides))
	for k, v := range DefaultMessages {
		messages[k] = v
	}
	for k, v := range overrides {
		messages[k] = v
	}
	return &Renderer{messages: messages}
}

// LoadMessages reads a JSON object of message key to template.
func LoadMessages(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages file: %w", err)
	}

	var messages map[string]string
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse messages file: %w", err)
	}
	return messages, nil
}

// Render returns the message for err. Amount bounds of range errors are
// shown in major currency units when withCurrency is set.
//
// Render panics when err carries no category key. A length error with no
// maximum (MaxLength 0) uses the length.min template.
func (r *Renderer) Render(err Error, withCurrency bool) string {
	switch err.Kind {
	case KindLength:
		return r.renderLength(err)
	case KindRange:
		return r.renderRange(err, withCurrency)
	default:
		if err.Category == "" {
			panic(fmt.Sprintf("validation: error %+v has no category", err))
		}
		return r.lookup(MessageKey(err.Category))
	}
}

func (r *Renderer) renderLength(err Error) string {
	var name string
	switch {
	case err.MinLength == err.MaxLength:
		name = "length.exact"
	case err.MinLength <= 0:
		name = "length.max"
	case err.MaxLength <= 0:
		name = "length.min"
	default:
		name = "length.between"
	}

	return strings.NewReplacer(
		"{minLength}", strconv.Itoa(err.MinLength),
		"{maxLength}", strconv.Itoa(err.MaxLength),
	).Replace(r.lookup(MessageKey(name)))
}

func (r *Renderer) renderRange(err Error, withCurrency bool) string {
	var minValue, maxValue string
	if withCurrency {
		hundred := decimal.NewFromInt(100)
		minValue = decimal.NewFromInt(int64(err.MinValue)).Div(hundred).StringFixed(2)
		maxValue = decimal.NewFromInt(int64(err.MaxValue)).Div(hundred).StringFixed(2)
	} else {
		minValue = strconv.Itoa(err.MinValue)
		maxValue = strconv.Itoa(err.MaxValue)
	}

	return strings.NewReplacer(
		"{minValue}", minValue,
		"{maxValue}", maxValue,
	).Replace(r.lookup(MessageKey("range.between")))
}

// lookup falls back to the key itself so a missing translation is never
// rendered as a blank error.
func (r *Renderer) lookup(key string) string {
	if msg, ok := r.messages[key]; ok && msg != "" {
		return msg
	}
	return key
}
