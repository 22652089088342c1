package onlinepayments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dukerupert/onlinepayments-demo/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMock(t *testing.T) *MockSession {
	t.Helper()
	m, err := NewMockSession(SessionConfig{ClientSessionID: "mock-session", CustomerID: "cust"})
	require.NoError(t, err)
	return m
}

func TestMockSession_PaymentItems(t *testing.T) {
	m := newTestMock(t)

	items, err := m.PaymentItems(context.Background(), testContext)
	require.NoError(t, err)

	assert.Nil(t, items.Product(ApplePayProductID))
	assert.NotNil(t, items.Product(ProductPayPal))
	require.Len(t, items.AccountsOnFile, 1)
	assert.Equal(t, ProductVisa, items.AccountsOnFile[0].PaymentProductID)

	for i := 1; i < len(items.Products); i++ {
		assert.Less(t, items.Products[i-1].ID, items.Products[i].ID)
	}
}

func TestMockSession_PaymentProduct(t *testing.T) {
	m := newTestMock(t)

	product, err := m.PaymentProduct(context.Background(), ProductGiftCard, testContext)
	require.NoError(t, err)
	assert.NotNil(t, product.Field(FieldSecurityCode))
	assert.Nil(t, product.Field(FieldCVV))

	product.Fields[0].ID = "changed"
	again, err := m.PaymentProduct(context.Background(), ProductGiftCard, testContext)
	require.NoError(t, err)
	assert.Equal(t, FieldCardNumber, again.Fields[0].ID, "returned products are copies")

	_, err = m.PaymentProduct(context.Background(), 4242, testContext)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestMockSession_IINDetails(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	tests := []struct {
		prefix    string
		status    IINStatus
		productID int
	}{
		{prefix: "411111", status: IINStatusSupported, productID: ProductVisa},
		{prefix: "371449", status: IINStatusSupported, productID: ProductAmex},
		{prefix: "545454", status: IINStatusSupported, productID: ProductMastercard},
		{prefix: "352800", status: IINStatusExistingButNotAllowed, productID: ProductJCB},
		{prefix: "999999", status: IINStatusUnknown},
		{prefix: "4111", status: IINStatusNotEnoughDigits},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			resp, err := m.IINDetails(ctx, tt.prefix, testContext)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.productID, resp.PaymentProductID)
		})
	}
}

func TestMockSession_PrepareDecrypts(t *testing.T) {
	m := newTestMock(t)
	ctx := context.Background()

	product, err := m.PaymentProduct(ctx, ProductVisa, testContext)
	require.NoError(t, err)
	aof := product.AccountOnFile(1001)
	require.NotNil(t, aof)

	req := NewPaymentRequest(product, aof, false)
	req.SetValue(FieldCVV, "123")

	prepared, err := m.Prepare(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, prepared.EncodedClientMetaInfo)

	plaintext, err := crypto.DecryptJWE(prepared.EncryptedFields, m.PrivateKey())
	require.NoError(t, err)

	var payload encryptionPayload
	require.NoError(t, json.Unmarshal(plaintext, &payload))
	assert.Equal(t, "mock-session", payload.ClientSessionID)
	assert.Equal(t, 1001, payload.AccountOnFileID)
	assert.Equal(t, []paymentValue{{Key: FieldCVV, Value: "123"}}, payload.PaymentValues)

	assert.Contains(t, m.CallLog(), "Prepare(1, tokenize=false)")
}

func TestMockSession_FuncOverride(t *testing.T) {
	m := newTestMock(t)
	m.IINDetailsFunc = func(ctx context.Context, partial string, pc PaymentContext) (*IINDetailsResponse, error) {
		return nil, &TransportError{Op: "iin_details", Err: context.DeadlineExceeded}
	}

	_, err := m.IINDetails(context.Background(), "411111", testContext)
	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}
