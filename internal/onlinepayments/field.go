package onlinepayments

import (
	"regexp"
	"strconv"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/validation"
)

// Field ids the card form knows about.
const (
	FieldCardNumber     = "cardNumber"
	FieldExpiryDate     = "expiryDate"
	FieldCVV            = "cvv"
	FieldSecurityCode   = "PinCode"
	FieldCardholderName = "cardholderName"
)

// maxExpiryYears bounds how far in the future an expiry date may lie.
const maxExpiryYears = 25

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// PaymentProductField describes one input of a payment product.
type PaymentProductField struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	DataRestrictions DataRestrictions  `json:"dataRestrictions"`
	DisplayHints     FieldDisplayHints `json:"displayHints"`
}

// DataRestrictions are the validation rules of a field.
type DataRestrictions struct {
	IsRequired bool       `json:"isRequired"`
	Validators Validators `json:"validators"`
}

// Validators lists the rules a field value must satisfy. A nil entry means
// the rule does not apply.
type Validators struct {
	Length             *LengthRule            `json:"length,omitempty"`
	Range              *RangeRule             `json:"range,omitempty"`
	Luhn               *struct{}              `json:"luhn,omitempty"`
	ExpirationDate     *struct{}              `json:"expirationDate,omitempty"`
	RegularExpression  *RegularExpressionRule `json:"regularExpression,omitempty"`
	EmailAddress       *struct{}              `json:"emailAddress,omitempty"`
	FixedList          *FixedListRule         `json:"fixedList,omitempty"`
	TermsAndConditions *struct{}              `json:"termsAndConditions,omitempty"`
}

type LengthRule struct {
	MinLength int `json:"minLength"`
	MaxLength int `json:"maxLength"`
}

type RangeRule struct {
	MinValue int `json:"minValue"`
	MaxValue int `json:"maxValue"`
}

type RegularExpressionRule struct {
	RegularExpression string `json:"regularExpression"`
}

type FixedListRule struct {
	AllowedValues []string `json:"allowedValues"`
}

// FieldDisplayHints controls how a field is rendered.
type FieldDisplayHints struct {
	DisplayOrder       int    `json:"displayOrder"`
	Label              string `json:"label,omitempty"`
	PlaceholderLabel   string `json:"placeholderLabel,omitempty"`
	Mask               string `json:"mask,omitempty"`
	Obfuscate          bool   `json:"obfuscate"`
	AlwaysShow         bool   `json:"alwaysShow"`
	PreferredInputType string `json:"preferredInputType,omitempty"`
}

// IsRequired reports whether the field must be filled in.
func (f *PaymentProductField) IsRequired() bool {
	return f.DataRestrictions.IsRequired
}

// ApplyMask formats value with the field's mask.
func (f *PaymentProductField) ApplyMask(value string) string {
	return ApplyMask(value, f.DisplayHints.Mask)
}

// RemoveMask strips the field's mask from value.
func (f *PaymentProductField) RemoveMask(value string) string {
	return RemoveMask(value, f.DisplayHints.Mask)
}

// Validate checks an unmasked value against the field's rules.
func (f *PaymentProductField) Validate(value string) []validation.Error {
	return f.ValidateAt(value, time.Now())
}

// ValidateAt is Validate with an explicit current time for expiry checks.
// An empty value only fails the required rule.
func (f *PaymentProductField) ValidateAt(value string, now time.Time) []validation.Error {
	if value == "" {
		if f.IsRequired() {
			return []validation.Error{validation.CategoryError(validation.CategoryRequired)}
		}
		return nil
	}

	var errs []validation.Error
	v := f.DataRestrictions.Validators

	if r := v.Length; r != nil {
		n := len([]rune(value))
		if n < r.MinLength || (r.MaxLength > 0 && n > r.MaxLength) {
			errs = append(errs, validation.LengthError(r.MinLength, r.MaxLength))
		}
	}
	if r := v.Range; r != nil {
		n, err := strconv.Atoi(value)
		if err != nil || n < r.MinValue || n > r.MaxValue {
			errs = append(errs, validation.RangeError(r.MinValue, r.MaxValue))
		}
	}
	if v.Luhn != nil && !luhnValid(value) {
		errs = append(errs, validation.CategoryError(validation.CategoryLuhn))
	}
	if v.ExpirationDate != nil && !expiryValid(value, now) {
		errs = append(errs, validation.CategoryError(validation.CategoryExpirationDate))
	}
	if r := v.RegularExpression; r != nil && !patternMatches(r.RegularExpression, value) {
		errs = append(errs, validation.CategoryError(validation.CategoryRegularExpression))
	}
	if v.EmailAddress != nil && !emailPattern.MatchString(value) {
		errs = append(errs, validation.CategoryError(validation.CategoryEmailAddress))
	}
	if r := v.FixedList; r != nil && !contains(r.AllowedValues, value) {
		errs = append(errs, validation.CategoryError(validation.CategoryFixedList))
	}
	if v.TermsAndConditions != nil && value != "true" {
		errs = append(errs, validation.CategoryError(validation.CategoryTermsAndConditions))
	}
	return errs
}

func luhnValid(number string) bool {
	if len(number) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// expiryValid accepts MMYY or MMYYYY. The card is valid through the last day
// of its expiry month.
func expiryValid(value string, now time.Time) bool {
	if len(value) != 4 && len(value) != 6 {
		return false
	}
	month, err := strconv.Atoi(value[:2])
	if err != nil || month < 1 || month > 12 {
		return false
	}
	year, err := strconv.Atoi(value[2:])
	if err != nil {
		return false
	}
	if len(value) == 4 {
		year += now.Year() / 100 * 100
	}

	expiry := year*12 + month
	current := now.Year()*12 + int(now.Month())
	return expiry >= current && expiry <= current+maxExpiryYears*12
}

func patternMatches(pattern, value string) bool {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
