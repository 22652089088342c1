// Package validation describes field validation failures and renders them
// into user-facing messages.
package validation

import "fmt"

// Kind identifies which payload a validation Error carries.
type Kind int

const (
	// KindOther errors carry only a category key.
	KindOther Kind = iota
	// KindLength errors carry MinLength and MaxLength.
	KindLength
	// KindRange errors carry MinValue and MaxValue.
	KindRange
)

// Category keys produced by field validators.
const (
	CategoryLength             = "length"
	CategoryRange              = "range"
	CategoryLuhn               = "luhn"
	CategoryExpirationDate     = "expirationDate"
	CategoryRegularExpression  = "regularExpression"
	CategoryEmailAddress       = "emailAddress"
	CategoryRequired           = "required"
	CategoryFixedList          = "fixedList"
	CategoryTermsAndConditions = "termsAndConditions"
	CategoryAllowedInContext   = "allowedInContext"
)

// Error is a single validation failure for one field value.
// Only the bounds matching Kind are meaningful.
type Error struct {
	Kind     Kind
	Category string

	MinLength int
	MaxLength int

	MinValue int
	MaxValue int
}

// Error implements the error interface.
func (e Error) Error() string {
	switch e.Kind {
	case KindLength:
		return fmt.Sprintf("length must be between %d and %d", e.MinLength, e.MaxLength)
	case KindRange:
		return fmt.Sprintf("value must be between %d and %d", e.MinValue, e.MaxValue)
	default:
		return fmt.Sprintf("%s validation failed", e.Category)
	}
}

// LengthError creates a length-constrained error.
func LengthError(minLength, maxLength int) Error {
	return Error{Kind: KindLength, Category: CategoryLength, MinLength: minLength, MaxLength: maxLength}
}

// RangeError creates a range-constrained error.
func RangeError(minValue, maxValue int) Error {
	return Error{Kind: KindRange, Category: CategoryRange, MinValue: minValue, MaxValue: maxValue}
}

// CategoryError creates an error identified only by its category key.
func CategoryError(category string) Error {
	return Error{Kind: KindOther, Category: category}
}
