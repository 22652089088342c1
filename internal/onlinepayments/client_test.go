package onlinepayments

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testContext = PaymentContext{
	AmountOfMoney: AmountOfMoney{TotalAmount: 1500, CurrencyCode: "EUR"},
	CountryCode:   "NL",
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(SessionConfig{
		ClientSessionID: "session-1",
		CustomerID:      "cust-1",
		ClientAPIURL:    srv.URL,
		AppIdentifier:   "demo",
	}, opts...)
	require.NoError(t, err)
	return c
}

func TestNormalizeAPIURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://payment.preprod.example.com", want: "https://payment.preprod.example.com/client/v1"},
		{in: "https://payment.preprod.example.com/", want: "https://payment.preprod.example.com/client/v1"},
		{in: "https://payment.preprod.example.com/client/v1", want: "https://payment.preprod.example.com/client/v1"},
		{in: "https://payment.preprod.example.com/client/v1/", want: "https://payment.preprod.example.com/client/v1"},
	}
	for _, tt := range tests {
		got, err := NormalizeAPIURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := NormalizeAPIURL("not a url")
	assert.Error(t, err)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(SessionConfig{ClientAPIURL: "https://example.com"})
	assert.Error(t, err)
}

func TestClient_PaymentItems(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client/v1/cust-1/products", r.URL.Path)
		assert.Equal(t, "GCS v1Client:session-1", r.Header.Get("Authorization"))
		assert.Equal(t, "NL", r.URL.Query().Get("countryCode"))
		assert.Equal(t, "EUR", r.URL.Query().Get("currencyCode"))
		assert.Equal(t, "1500", r.URL.Query().Get("amount"))
		assert.Equal(t, "fields", r.URL.Query().Get("hide"))

		meta, err := base64.StdEncoding.DecodeString(r.Header.Get("X-GCS-ClientMetaInfo"))
		assert.NoError(t, err)
		assert.Contains(t, string(meta), `"appIdentifier":"demo"`)

		json.NewEncoder(w).Encode(map[string]any{
			"paymentProducts": []map[string]any{
				{"id": 1, "paymentMethod": "card", "displayHints": map[string]any{"displayOrder": 1, "label": "VISA"},
					"accountsOnFile": []map[string]any{{"id": 7, "paymentProductId": 1}}},
				{"id": 302, "paymentMethod": "mobile"},
			},
		})
	})

	items, err := client.PaymentItems(context.Background(), testContext)
	require.NoError(t, err)
	require.Len(t, items.Products, 1, "apple pay is filtered")
	assert.Equal(t, 1, items.Products[0].ID)
	assert.True(t, items.HasAccountsOnFile())
	assert.Equal(t, 7, items.AccountsOnFile[0].ID)
}

func TestClient_PaymentProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/client/v1/cust-1/products/1":
			json.NewEncoder(w).Encode(map[string]any{
				"id":            1,
				"paymentMethod": "card",
				"fields": []map[string]any{{
					"id": "cardNumber",
					"dataRestrictions": map[string]any{
						"isRequired": true,
						"validators": map[string]any{"luhn": map[string]any{}, "length": map[string]any{"minLength": 12, "maxLength": 19}},
					},
					"displayHints": map[string]any{"mask": "{{9999}} {{9999}}"},
				}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	product, err := client.PaymentProduct(context.Background(), 1, testContext)
	require.NoError(t, err)
	field := product.Field(FieldCardNumber)
	require.NotNil(t, field)
	assert.True(t, field.IsRequired())
	assert.NotNil(t, field.DataRestrictions.Validators.Luhn)
	assert.Nil(t, field.DataRestrictions.Validators.ExpirationDate)
	assert.Equal(t, 19, field.DataRestrictions.Validators.Length.MaxLength)

	_, err = client.PaymentProduct(context.Background(), 99, testContext)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestClient_IINDetails(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body iinRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch body.Bin {
		case "41111111":
			json.NewEncoder(w).Encode(map[string]any{"paymentProductId": 1, "isAllowedInContext": true})
		case "352800":
			json.NewEncoder(w).Encode(map[string]any{"paymentProductId": 125, "isAllowedInContext": false})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	ctx := context.Background()

	resp, err := client.IINDetails(ctx, "4111111111111111", testContext)
	require.NoError(t, err)
	assert.Equal(t, IINStatusSupported, resp.Status)
	assert.Equal(t, 1, resp.PaymentProductID)

	resp, err = client.IINDetails(ctx, "352800", testContext)
	require.NoError(t, err)
	assert.Equal(t, IINStatusExistingButNotAllowed, resp.Status)

	resp, err = client.IINDetails(ctx, "999999", testContext)
	require.NoError(t, err)
	assert.Equal(t, IINStatusUnknown, resp.Status)

	resp, err = client.IINDetails(ctx, "411", testContext)
	require.NoError(t, err)
	assert.Equal(t, IINStatusNotEnoughDigits, resp.Status)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errorId":"abc","errors":[{"code":"9002","message":"MISSING_OR_INVALID_AUTHORIZATION"}]}`))
	})

	_, err := client.PaymentItems(context.Background(), testContext)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "abc", apiErr.ErrorID)
	assert.Equal(t, "MISSING_OR_INVALID_AUTHORIZATION", UserMessage(err))
}

func TestClient_TransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	_, err := client.PaymentItems(context.Background(), testContext)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "payment_items", transportErr.Op)
	assert.Contains(t, UserMessage(err), "Could not reach")
}

func TestClient_PrepareFetchesKeyOnce(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	encoded, err := crypto.EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)

	var mu sync.Mutex
	keyCalls := 0
	var observed []string

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/client/v1/cust-1/crypto/publickey", r.URL.Path)
		mu.Lock()
		keyCalls++
		mu.Unlock()
		json.NewEncoder(w).Encode(PublicKeyResponse{KeyID: "kid-1", PublicKey: encoded})
	}, WithObserver(func(op string, _ time.Duration, err error) {
		mu.Lock()
		observed = append(observed, op)
		mu.Unlock()
	}))

	products := SampleProducts()
	req := NewPaymentRequest(&products[0], nil, true)
	req.SetValue(FieldCardNumber, "4111 1111 1111 1111")

	for i := 0; i < 2; i++ {
		prepared, err := client.Prepare(context.Background(), req)
		require.NoError(t, err)

		plaintext, err := crypto.DecryptJWE(prepared.EncryptedFields, key)
		require.NoError(t, err)

		var payload encryptionPayload
		require.NoError(t, json.Unmarshal(plaintext, &payload))
		assert.Equal(t, "session-1", payload.ClientSessionID)
		assert.Equal(t, ProductVisa, payload.PaymentProductID)
		assert.True(t, payload.Tokenize)
		assert.Equal(t, []paymentValue{{Key: FieldCardNumber, Value: "4111111111111111"}}, payload.PaymentValues)
		assert.NotEmpty(t, payload.Nonce)
	}

	assert.Equal(t, 1, keyCalls)
	assert.Equal(t, []string{"public_key"}, observed)
}

func TestClient_PrepareWithoutKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"keyId":"kid-1"}`))
	})

	products := SampleProducts()
	_, err := client.Prepare(context.Background(), NewPaymentRequest(&products[0], nil, false))
	assert.True(t, errors.Is(err, ErrNoPublicKey))
}
