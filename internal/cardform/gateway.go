// Package cardform holds the state of the card entry screen: field values,
// masking, validation, pay button gating and submission of the payment
// request.
package cardform

import (
	"context"
	"errors"

	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
)

//go:generate mockgen -source=gateway.go -destination=gateway_mock_test.go -package=cardform

// Gateway is the part of a client session the card form calls out to.
// onlinepayments.Session satisfies it.
type Gateway interface {
	PaymentProduct(ctx context.Context, productID int, pc onlinepayments.PaymentContext) (*onlinepayments.PaymentProduct, error)
	IINDetails(ctx context.Context, partialCardNumber string, pc onlinepayments.PaymentContext) (*onlinepayments.IINDetailsResponse, error)
	Prepare(ctx context.Context, req *onlinepayments.PaymentRequest) (*onlinepayments.PreparedPaymentRequest, error)
}

var (
	// ErrBusy is returned when a submission is attempted while an external
	// call is in flight.
	ErrBusy = errors.New("cardform: another request is in progress")

	// ErrValidation is returned by Submit when at least one field is invalid.
	ErrValidation = errors.New("cardform: one or more fields are invalid")

	// ErrNotConfigured is returned when no product has been configured.
	ErrNotConfigured = errors.New("cardform: no payment product configured")

	// ErrUnknownField is returned for edits of fields the product does not have.
	ErrUnknownField = errors.New("cardform: field not present on product")

	// ErrFieldDisabled is returned for edits of read-only fields.
	ErrFieldDisabled = errors.New("cardform: field is not editable")
)
