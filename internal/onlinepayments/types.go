// Package onlinepayments is a small client for the Online Payments client
// API: payment product discovery, IIN lookups and encryption of customer
// input for server-to-server payment creation.
package onlinepayments

import (
	"strconv"
)

// ApplePayProductID identifies the Apple Pay product, which needs a
// platform payment sheet and is not offered through the card form.
const ApplePayProductID = 302

// PaymentMethodCard is the paymentMethod value of card products.
const PaymentMethodCard = "card"

// AmountOfMoney is an amount in the currency's smallest unit.
type AmountOfMoney struct {
	TotalAmount  int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// PaymentContext scopes product lookups to a transaction.
type PaymentContext struct {
	AmountOfMoney AmountOfMoney `json:"amountOfMoney"`
	CountryCode   string        `json:"countryCode"`
	IsRecurring   bool          `json:"isRecurring"`
	Locale        string        `json:"locale,omitempty"`
}

// queryParams returns the context as client API query parameters.
func (c PaymentContext) queryParams() map[string]string {
	params := map[string]string{
		"countryCode":  c.CountryCode,
		"currencyCode": c.AmountOfMoney.CurrencyCode,
		"amount":       strconv.FormatInt(c.AmountOfMoney.TotalAmount, 10),
		"isRecurring":  strconv.FormatBool(c.IsRecurring),
	}
	if c.Locale != "" {
		params["locale"] = c.Locale
	}
	return params
}

// DisplayHints controls how a product is listed.
type DisplayHints struct {
	DisplayOrder int    `json:"displayOrder"`
	Label        string `json:"label,omitempty"`
	Logo         string `json:"logo,omitempty"`
}

// BasicPaymentProduct is a product as returned by the product list.
type BasicPaymentProduct struct {
	ID                  int             `json:"id"`
	PaymentMethod       string          `json:"paymentMethod"`
	PaymentProductGroup string          `json:"paymentProductGroup,omitempty"`
	AllowsRecurring     bool            `json:"allowsRecurring"`
	AllowsTokenization  bool            `json:"allowsTokenization"`
	DisplayHints        DisplayHints    `json:"displayHints"`
	DisplayHintsList    []DisplayHints  `json:"displayHintsList,omitempty"`
	AccountsOnFile      []AccountOnFile `json:"accountsOnFile,omitempty"`
}

// Hints returns the first entry of DisplayHintsList, falling back to
// DisplayHints for responses that only carry the single form.
func (p BasicPaymentProduct) Hints() DisplayHints {
	if len(p.DisplayHintsList) > 0 {
		return p.DisplayHintsList[0]
	}
	return p.DisplayHints
}

// Identifier returns the product id as a string.
func (p BasicPaymentProduct) Identifier() string {
	return strconv.Itoa(p.ID)
}

// PaymentProduct is a product with its input fields.
type PaymentProduct struct {
	BasicPaymentProduct
	Fields []PaymentProductField `json:"fields"`
}

// Field returns the field with the given id, or nil.
func (p *PaymentProduct) Field(id string) *PaymentProductField {
	if p == nil {
		return nil
	}
	for i := range p.Fields {
		if p.Fields[i].ID == id {
			return &p.Fields[i]
		}
	}
	return nil
}

// AccountOnFile returns the product's account on file with the given id, or nil.
func (p *PaymentProduct) AccountOnFile(id int) *AccountOnFile {
	if p == nil {
		return nil
	}
	for i := range p.AccountsOnFile {
		if p.AccountsOnFile[i].ID == id {
			return &p.AccountsOnFile[i]
		}
	}
	return nil
}

// PaymentItems is the product catalog for one payment context.
type PaymentItems struct {
	Products       []BasicPaymentProduct
	AccountsOnFile []AccountOnFile
}

// HasAccountsOnFile reports whether any stored accounts are available.
func (i *PaymentItems) HasAccountsOnFile() bool {
	return len(i.AccountsOnFile) > 0
}

// Product returns the listed product with the given id, or nil.
func (i *PaymentItems) Product(id int) *BasicPaymentProduct {
	for idx := range i.Products {
		if i.Products[idx].ID == id {
			return &i.Products[idx]
		}
	}
	return nil
}

// IINStatus classifies an IIN lookup result.
type IINStatus string

const (
	IINStatusSupported             IINStatus = "SUPPORTED"
	IINStatusExistingButNotAllowed IINStatus = "EXISTING_BUT_NOT_ALLOWED"
	IINStatusUnknown               IINStatus = "UNKNOWN"
	IINStatusNotEnoughDigits       IINStatus = "NOT_ENOUGH_DIGITS"
)

// MinIINDigits is the shortest partial card number the lookup accepts.
const MinIINDigits = 6

// IINDetail is a co-brand entry of an IIN lookup.
type IINDetail struct {
	PaymentProductID   int  `json:"paymentProductId"`
	IsAllowedInContext bool `json:"isAllowedInContext"`
}

// IINDetailsResponse is the result of identifying a product from a card
// number prefix.
type IINDetailsResponse struct {
	PaymentProductID   int         `json:"paymentProductId"`
	CountryCode        string      `json:"countryCode"`
	IsAllowedInContext bool        `json:"isAllowedInContext"`
	CoBrands           []IINDetail `json:"coBrands,omitempty"`
	Status             IINStatus   `json:"-"`
}

// PublicKeyResponse holds the key used to encrypt customer input.
type PublicKeyResponse struct {
	KeyID     string `json:"keyId"`
	PublicKey string `json:"publicKey"`
}

// PaymentRequest collects the values a customer entered for one product.
type PaymentRequest struct {
	Product       *PaymentProduct
	AccountOnFile *AccountOnFile
	Tokenize      bool
	FieldValues   map[string]string
}

// NewPaymentRequest creates an empty request for product.
func NewPaymentRequest(product *PaymentProduct, accountOnFile *AccountOnFile, tokenize bool) *PaymentRequest {
	return &PaymentRequest{
		Product:       product,
		AccountOnFile: accountOnFile,
		Tokenize:      tokenize,
		FieldValues:   make(map[string]string),
	}
}

// SetValue stores the value for a field.
func (r *PaymentRequest) SetValue(field, value string) {
	r.FieldValues[field] = value
}

// UnmaskedFieldValues returns the field values with each product field's
// mask removed.
func (r *PaymentRequest) UnmaskedFieldValues() map[string]string {
	values := make(map[string]string, len(r.FieldValues))
	for key, value := range r.FieldValues {
		if f := r.Product.Field(key); f != nil {
			value = f.RemoveMask(value)
		}
		values[key] = value
	}
	return values
}

// PreparedPaymentRequest is the encrypted form of a PaymentRequest, ready to
// be sent as encryptedCustomerInput in a server-to-server Create Payment call.
type PreparedPaymentRequest struct {
	EncryptedFields       string
	EncodedClientMetaInfo string
}
