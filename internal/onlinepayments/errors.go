package onlinepayments

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPublicKey is returned when the session has no usable encryption key.
	ErrNoPublicKey = errors.New("onlinepayments: no public key available")

	// ErrProductNotFound is returned when a product id is unknown to the session.
	ErrProductNotFound = errors.New("onlinepayments: payment product not found")

	// ErrNotEnoughDigits is returned when an IIN lookup gets too short a prefix.
	ErrNotEnoughDigits = errors.New("onlinepayments: not enough digits for IIN lookup")
)

// TransportError means the request never produced a usable response: the
// connection failed, timed out, or the body could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("onlinepayments: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIErrorItem is one entry of an API error response.
type APIErrorItem struct {
	Code           string `json:"code"`
	Category       string `json:"category,omitempty"`
	ID             string `json:"id,omitempty"`
	Message        string `json:"message"`
	PropertyName   string `json:"propertyName,omitempty"`
	HTTPStatusCode int    `json:"httpStatusCode,omitempty"`
}

// APIError is a non-2xx response from the client API.
type APIError struct {
	Op         string         `json:"-"`
	StatusCode int            `json:"-"`
	ErrorID    string         `json:"errorId"`
	Errors     []APIErrorItem `json:"errors"`
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("onlinepayments: %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("onlinepayments: %s: status %d: %s", e.Op, e.StatusCode, e.Message())
}

// Message joins the messages of all error items.
func (e *APIError) Message() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Message != "" {
			msgs = append(msgs, item.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// UserMessage returns the message to show a customer for an external call
// failure.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := apiErr.Message(); msg != "" {
			return msg
		}
		return fmt.Sprintf("The payment platform rejected the request (status %d).", apiErr.StatusCode)
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "Could not reach the payment platform. Please check your connection and try again."
	}

	switch {
	case errors.Is(err, ErrNoPublicKey):
		return "Payment details could not be encrypted. Please try again later."
	case errors.Is(err, ErrProductNotFound):
		return "The selected payment product is not available."
	}
	return "Something went wrong. Please try again later."
}
