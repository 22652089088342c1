package cardform

import "github.com/dukerupert/onlinepayments-demo/internal/onlinepayments"

// Fields are the roles the card form knows, in display order.
var Fields = []string{
	onlinepayments.FieldCardNumber,
	onlinepayments.FieldExpiryDate,
	onlinepayments.FieldCVV,
	onlinepayments.FieldSecurityCode,
	onlinepayments.FieldCardholderName,
}

// FieldState is the rendered state of one field.
type FieldState struct {
	Name        string `json:"name"`
	Present     bool   `json:"present"`
	Enabled     bool   `json:"enabled"`
	Value       string `json:"value"`
	Placeholder string `json:"placeholder,omitempty"`
	Error       string `json:"error,omitempty"`
	Obfuscate   bool   `json:"obfuscate,omitempty"`
}

// State is an immutable snapshot of a Controller.
type State struct {
	ProductID          int          `json:"productId"`
	ProductLabel       string       `json:"productLabel"`
	ProductLogo        string       `json:"productLogo,omitempty"`
	AccountOnFileID    int          `json:"accountOnFileId,omitempty"`
	Fields             []FieldState `json:"fields"`
	Ready              bool         `json:"ready"`
	LiveValidation     bool         `json:"liveValidation"`
	Busy               bool         `json:"busy"`
	Tokenize           bool         `json:"tokenize"`
	AllowsTokenization bool         `json:"allowsTokenization"`
	Alert              string       `json:"alert,omitempty"`
	Prepared           bool         `json:"prepared"`
}

// Field returns the state of the named field. Unknown names yield a zero
// FieldState with Present false.
func (s State) Field(name string) FieldState {
	for _, f := range s.Fields {
		if f.Name == name {
			return f
		}
	}
	return FieldState{Name: name}
}
