package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error codes. Handlers map each to an HTTP status; only EINTERNAL hides its
// message from the shopper.
const (
	EINVALID     = "invalid"          // 400
	EPAYMENT     = "payment_required" // 402, customer input could not be encrypted
	EFORBIDDEN   = "forbidden"        // 403, CSRF check failed
	ENOTFOUND    = "not_found"        // 404
	ECONFLICT    = "conflict"         // 409, the card form is waiting on the platform
	EGONE        = "gone"             // 410, checkout flow expired
	ETOOLARGE    = "too_large"        // 413
	ERATELIMIT   = "rate_limited"     // 429
	EINTERNAL    = "internal"         // 500
	EUNAVAILABLE = "unavailable"      // 502, payment platform unreachable or refused the call
)

const internalMessage = "An internal error occurred. Please try again later."

// Error is a checkout failure with a code and a message safe to show.
type Error struct {
	Code    string
	Message string

	// Op names the checkout step that failed, e.g. "checkout.select". It is
	// logged, never shown.
	Op string

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func asError(err error) (*Error, bool) {
	var e *Error
	if err == nil || !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

// ErrorCode returns the code of err, EINTERNAL for foreign errors and "" for
// nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the message to show for err. Internal and foreign
// errors get a generic text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := asError(err); ok && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// ErrorOp returns the operation recorded on err, if any.
func ErrorOp(err error) string {
	if e, ok := asError(err); ok {
		return e.Op
	}
	return ""
}

// Errorf creates an error with a formatted message.
func Errorf(code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches code, op and message to err. A nil err stays nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// Unavailable wraps a failed call to the payment platform. message is shown
// as is.
func Unavailable(err error, op, message string) error {
	return &Error{Code: EUNAVAILABLE, Op: op, Message: message, Err: err}
}

// Internal wraps an unexpected failure. message is logged but the shopper
// sees the generic text.
func Internal(err error, op, message string) error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// FieldErrors lists start screen inputs that failed validation, keyed by
// form name.
type FieldErrors struct {
	Op     string
	Fields map[string]string
}

// NewFieldErrors returns an empty set for op.
func NewFieldErrors(op string) *FieldErrors {
	return &FieldErrors{Op: op, Fields: make(map[string]string)}
}

// Add records message for field. The first message for a field wins.
func (e *FieldErrors) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Err returns e, or nil when no field failed.
func (e *FieldErrors) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *FieldErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msg := "invalid " + strings.Join(names, ", ")
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// FieldMessages returns the per-field messages carried by err, or nil.
func FieldMessages(err error) map[string]string {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}
