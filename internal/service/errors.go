package service

import (
	"errors"

	"github.com/dukerupert/onlinepayments-demo/internal/cardform"
	"github.com/dukerupert/onlinepayments-demo/internal/domain"
	"github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"
)

// Flow errors
var (
	ErrFlowNotFound = domain.Errorf(domain.ENOTFOUND, "", "Checkout not found. Please start again.")
	ErrFlowExpired  = domain.Errorf(domain.EGONE, "", "Your checkout has expired. Please start again.")
	ErrNoCardForm   = domain.Errorf(domain.EINVALID, "", "Select a card payment product first.")
	ErrNotPrepared  = domain.Errorf(domain.ENOTFOUND, "", "No payment has been prepared yet.")
)

// Selection errors
var (
	// ErrProductNotAvailable is shown as information rather than a failure:
	// the product exists but this checkout cannot collect its details.
	ErrProductNotAvailable = domain.Errorf(domain.EINVALID, "", "This payment product is not available in this demo.")
	ErrUnknownPaymentItem  = domain.Errorf(domain.ENOTFOUND, "", "The selected payment item does not exist.")
)

// Paste errors
var (
	ErrEmptyPaste   = domain.Errorf(domain.EINVALID, "", "There is nothing to paste.")
	ErrInvalidPaste = domain.Errorf(domain.EINVALID, "", "The pasted text is not valid JSON.")
)

// ErrBusy is returned while the card form waits for the payment platform.
var ErrBusy = domain.Errorf(domain.ECONFLICT, "", "Please wait for the current request to finish.")

// clientError maps an error from the payment platform or the card form to a
// domain error carrying the message the customer should see.
func clientError(err error, op string) error {
	if err == nil {
		return nil
	}

	var apiErr *onlinepayments.APIError
	var transportErr *onlinepayments.TransportError
	switch {
	case errors.Is(err, cardform.ErrBusy):
		return ErrBusy
	case errors.Is(err, cardform.ErrValidation):
		return domain.WrapError(err, domain.EINVALID, op, "Please correct the highlighted fields.")
	case errors.Is(err, cardform.ErrUnknownField), errors.Is(err, cardform.ErrFieldDisabled):
		return domain.WrapError(err, domain.EINVALID, op, "This field cannot be changed.")
	case errors.Is(err, onlinepayments.ErrProductNotFound):
		return domain.WrapError(err, domain.ENOTFOUND, op, onlinepayments.UserMessage(err))
	case errors.Is(err, onlinepayments.ErrNoPublicKey):
		return domain.WrapError(err, domain.EPAYMENT, op, onlinepayments.UserMessage(err))
	case errors.As(err, &apiErr), errors.As(err, &transportErr):
		return domain.Unavailable(err, op, onlinepayments.UserMessage(err))
	default:
		return domain.Internal(err, op, "unexpected checkout failure")
	}
}
