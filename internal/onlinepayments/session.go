package onlinepayments

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"runtime"
)

// SDKIdentifier is sent in the client meta info of every request.
const SDKIdentifier = "GoClientSDK/v1.0.0"

// Session is a customer's client session with the payment platform. Every
// call returns either a value or an error that is a *TransportError, an
// *APIError or one of the package sentinels.
type Session interface {
	PaymentItems(ctx context.Context, pc PaymentContext) (*PaymentItems, error)
	PaymentProduct(ctx context.Context, productID int, pc PaymentContext) (*PaymentProduct, error)
	IINDetails(ctx context.Context, partialCardNumber string, pc PaymentContext) (*IINDetailsResponse, error)
	PublicKey(ctx context.Context) (*PublicKeyResponse, error)
	Prepare(ctx context.Context, req *PaymentRequest) (*PreparedPaymentRequest, error)
}

// SessionConfig holds the credentials returned by the merchant's server
// when it created the client session.
type SessionConfig struct {
	ClientSessionID string
	CustomerID      string
	ClientAPIURL    string
	AssetURL        string
	AppIdentifier   string
}

type clientMetaInfo struct {
	PlatformIdentifier string `json:"platformIdentifier"`
	SDKIdentifier      string `json:"sdkIdentifier"`
	SDKCreator         string `json:"sdkCreator"`
	AppIdentifier      string `json:"appIdentifier,omitempty"`
}

// EncodedClientMetaInfo returns the base64 JSON sent as X-GCS-ClientMetaInfo.
func EncodedClientMetaInfo(appIdentifier string) string {
	data, _ := json.Marshal(clientMetaInfo{
		PlatformIdentifier: runtime.GOOS + "/" + runtime.GOARCH,
		SDKIdentifier:      SDKIdentifier,
		SDKCreator:         "OnlinePayments",
		AppIdentifier:      appIdentifier,
	})
	return base64.StdEncoding.EncodeToString(data)
}

// filterProducts drops products that need a platform payment sheet.
func filterProducts(products []BasicPaymentProduct) []BasicPaymentProduct {
	out := products[:0:0]
	for _, p := range products {
		if p.ID == ApplePayProductID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// collectAccountsOnFile flattens the accounts on file of all products.
func collectAccountsOnFile(products []BasicPaymentProduct) []AccountOnFile {
	var accounts []AccountOnFile
	for _, p := range products {
		accounts = append(accounts, p.AccountsOnFile...)
	}
	return accounts
}

// newPaymentItems builds the catalog from a product list response.
func newPaymentItems(products []BasicPaymentProduct) *PaymentItems {
	products = filterProducts(products)
	return &PaymentItems{
		Products:       products,
		AccountsOnFile: collectAccountsOnFile(products),
	}
}
