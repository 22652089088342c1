package onlinepayments

import "strings"

// AttributeStatus controls whether a stored value may be changed.
type AttributeStatus string

const (
	StatusReadOnly  AttributeStatus = "READ_ONLY"
	StatusCanWrite  AttributeStatus = "CAN_WRITE"
	StatusMustWrite AttributeStatus = "MUST_WRITE"
)

// AccountOnFile is a payment instrument stored for the customer.
type AccountOnFile struct {
	ID               int                       `json:"id"`
	PaymentProductID int                       `json:"paymentProductId"`
	DisplayHints     AccountOnFileDisplayHints `json:"displayHints"`
	Attributes       []AccountOnFileAttribute  `json:"attributes"`
}

type AccountOnFileDisplayHints struct {
	LabelTemplate []LabelTemplateElement `json:"labelTemplate"`
	Logo          string                 `json:"logo,omitempty"`
}

type LabelTemplateElement struct {
	AttributeKey string `json:"attributeKey"`
	Mask         string `json:"mask,omitempty"`
}

type AccountOnFileAttribute struct {
	Key    string          `json:"key"`
	Value  string          `json:"value"`
	Status AttributeStatus `json:"status"`
}

func (a *AccountOnFile) attribute(key string) *AccountOnFileAttribute {
	if a == nil {
		return nil
	}
	for i := range a.Attributes {
		if a.Attributes[i].Key == key {
			return &a.Attributes[i]
		}
	}
	return nil
}

// HasValue reports whether the account stores a value for field.
func (a *AccountOnFile) HasValue(field string) bool {
	return a.attribute(field) != nil
}

// Value returns the stored value for field, or "".
func (a *AccountOnFile) Value(field string) string {
	if attr := a.attribute(field); attr != nil {
		return attr.Value
	}
	return ""
}

// MaskedValue returns the stored value formatted with the label template
// mask for field, when one exists.
func (a *AccountOnFile) MaskedValue(field string) string {
	value := a.Value(field)
	if a == nil {
		return value
	}
	for _, el := range a.DisplayHints.LabelTemplate {
		if el.AttributeKey == field && el.Mask != "" {
			return ApplyMask(value, el.Mask)
		}
	}
	return value
}

// IsReadOnly reports whether the stored value for field may not be changed.
func (a *AccountOnFile) IsReadOnly(field string) bool {
	attr := a.attribute(field)
	return attr != nil && attr.Status == StatusReadOnly
}

// Label joins the masked values named by the label template.
func (a *AccountOnFile) Label() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.DisplayHints.LabelTemplate))
	for _, el := range a.DisplayHints.LabelTemplate {
		if v := a.MaskedValue(el.AttributeKey); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}
