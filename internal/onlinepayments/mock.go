package onlinepayments

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dukerupert/onlinepayments-demo/internal/crypto"
)

// IINRange maps card number prefixes to a product in the mock catalog.
type IINRange struct {
	Prefix    string
	ProductID int
	Allowed   bool
}

// MockSession is an in-memory session for development and tests.
// Prepare really encrypts, so the result can be decrypted with PrivateKey.
type MockSession struct {
	// PaymentItemsFunc allows customizing catalog retrieval
	PaymentItemsFunc func(ctx context.Context, pc PaymentContext) (*PaymentItems, error)

	// PaymentProductFunc allows customizing product retrieval
	PaymentProductFunc func(ctx context.Context, productID int, pc PaymentContext) (*PaymentProduct, error)

	// IINDetailsFunc allows customizing IIN lookups
	IINDetailsFunc func(ctx context.Context, partialCardNumber string, pc PaymentContext) (*IINDetailsResponse, error)

	// PrepareFunc allows customizing encryption
	PrepareFunc func(ctx context.Context, req *PaymentRequest) (*PreparedPaymentRequest, error)

	// Products is the catalog, keyed by product id
	Products map[int]*PaymentProduct

	// IINRanges are matched in order, longest prefix first
	IINRanges []IINRange

	config     SessionConfig
	privateKey *rsa.PrivateKey
	keyID      string

	mu      sync.Mutex
	callLog []string
}

var _ Session = (*MockSession)(nil)

// NewMockSession creates a mock session with the sample catalog.
func NewMockSession(cfg SessionConfig) (*MockSession, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("onlinepayments: failed to generate mock key: %w", err)
	}

	products := SampleProducts()
	catalog := make(map[int]*PaymentProduct, len(products))
	for i := range products {
		catalog[products[i].ID] = &products[i]
	}

	return &MockSession{
		Products:   catalog,
		IINRanges:  SampleIINRanges(),
		config:     cfg,
		privateKey: key,
		keyID:      "mock-" + cfg.ClientSessionID,
	}, nil
}

// PrivateKey returns the key matching PublicKey.
func (m *MockSession) PrivateKey() *rsa.PrivateKey {
	return m.privateKey
}

// CallLog returns the calls made so far.
func (m *MockSession) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.callLog...)
}

func (m *MockSession) record(format string, args ...any) {
	m.mu.Lock()
	m.callLog = append(m.callLog, fmt.Sprintf(format, args...))
	m.mu.Unlock()
}

// PaymentItems lists the catalog sorted by product id.
func (m *MockSession) PaymentItems(ctx context.Context, pc PaymentContext) (*PaymentItems, error) {
	m.record("PaymentItems(%s, %s)", pc.CountryCode, pc.AmountOfMoney.CurrencyCode)

	if m.PaymentItemsFunc != nil {
		return m.PaymentItemsFunc(ctx, pc)
	}

	basics := make([]BasicPaymentProduct, 0, len(m.Products))
	for _, p := range m.Products {
		if pc.IsRecurring && !p.AllowsRecurring {
			continue
		}
		basics = append(basics, p.BasicPaymentProduct)
	}
	sort.Slice(basics, func(i, j int) bool { return basics[i].ID < basics[j].ID })
	return newPaymentItems(basics), nil
}

// PaymentProduct returns a copy of a catalog product.
func (m *MockSession) PaymentProduct(ctx context.Context, productID int, pc PaymentContext) (*PaymentProduct, error) {
	m.record("PaymentProduct(%d)", productID)

	if m.PaymentProductFunc != nil {
		return m.PaymentProductFunc(ctx, productID, pc)
	}

	p, ok := m.Products[productID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	product := *p
	product.Fields = append([]PaymentProductField(nil), p.Fields...)
	return &product, nil
}

// IINDetails matches the prefix against IINRanges.
func (m *MockSession) IINDetails(ctx context.Context, partialCardNumber string, pc PaymentContext) (*IINDetailsResponse, error) {
	m.record("IINDetails(%s)", partialCardNumber)

	if m.IINDetailsFunc != nil {
		return m.IINDetailsFunc(ctx, partialCardNumber, pc)
	}

	if len(partialCardNumber) < MinIINDigits {
		return &IINDetailsResponse{Status: IINStatusNotEnoughDigits}, nil
	}

	var best *IINRange
	for i := range m.IINRanges {
		r := &m.IINRanges[i]
		if strings.HasPrefix(partialCardNumber, r.Prefix) && (best == nil || len(r.Prefix) > len(best.Prefix)) {
			best = r
		}
	}
	if best == nil {
		return &IINDetailsResponse{Status: IINStatusUnknown}, nil
	}

	resp := &IINDetailsResponse{
		PaymentProductID:   best.ProductID,
		CountryCode:        pc.CountryCode,
		IsAllowedInContext: best.Allowed,
		Status:             IINStatusSupported,
	}
	if !best.Allowed {
		resp.Status = IINStatusExistingButNotAllowed
	}
	return resp, nil
}

// PublicKey returns the mock session's public key.
func (m *MockSession) PublicKey(ctx context.Context) (*PublicKeyResponse, error) {
	m.record("PublicKey()")

	encoded, err := crypto.EncodePublicKey(&m.privateKey.PublicKey)
	if err != nil {
		return nil, err
	}
	return &PublicKeyResponse{KeyID: m.keyID, PublicKey: encoded}, nil
}

// Prepare encrypts req with the mock session's public key.
func (m *MockSession) Prepare(ctx context.Context, req *PaymentRequest) (*PreparedPaymentRequest, error) {
	m.record("Prepare(%d, tokenize=%t)", req.Product.ID, req.Tokenize)

	if m.PrepareFunc != nil {
		return m.PrepareFunc(ctx, req)
	}

	key, err := m.PublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return encryptRequest(key, m.config.ClientSessionID, m.config.AppIdentifier, "", req)
}
