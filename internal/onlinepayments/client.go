package onlinepayments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const apiPathSuffix = "/client/v1"

// Observer is told about every client API call once it completes.
type Observer func(operation string, elapsed time.Duration, err error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithObserver registers a completion hook, used for metrics.
func WithObserver(o Observer) ClientOption {
	return func(c *Client) { c.observe = o }
}

// WithLocale sets the locale sent with product lookups and device info.
func WithLocale(locale string) ClientOption {
	return func(c *Client) { c.locale = locale }
}

// Client talks to the client API over HTTP.
type Client struct {
	config  SessionConfig
	baseURL string
	http    *http.Client
	observe Observer
	locale  string

	mu        sync.Mutex
	publicKey *PublicKeyResponse
}

var _ Session = (*Client)(nil)

// NewClient creates a session client for cfg.
func NewClient(cfg SessionConfig, opts ...ClientOption) (*Client, error) {
	if cfg.ClientSessionID == "" || cfg.CustomerID == "" {
		return nil, fmt.Errorf("onlinepayments: client session id and customer id are required")
	}
	base, err := NormalizeAPIURL(cfg.ClientAPIURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:  cfg,
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeAPIURL makes sure the client API URL ends with the versioned path.
func NormalizeAPIURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("onlinepayments: invalid client API URL %q", raw)
	}
	path := strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(path, apiPathSuffix) {
		path += apiPathSuffix
	}
	u.Path = path
	return u.String(), nil
}

type productsResponse struct {
	PaymentProducts []BasicPaymentProduct `json:"paymentProducts"`
}

// PaymentItems lists the products available in pc.
func (c *Client) PaymentItems(ctx context.Context, pc PaymentContext) (*PaymentItems, error) {
	query := pc.queryParams()
	query["hide"] = "fields"

	var resp productsResponse
	if _, err := c.do(ctx, "payment_items", http.MethodGet, "/products", query, nil, &resp); err != nil {
		return nil, err
	}
	return newPaymentItems(resp.PaymentProducts), nil
}

// PaymentProduct fetches a product including its fields.
func (c *Client) PaymentProduct(ctx context.Context, productID int, pc PaymentContext) (*PaymentProduct, error) {
	var product PaymentProduct
	status, err := c.do(ctx, "payment_product", http.MethodGet, "/products/"+strconv.Itoa(productID), pc.queryParams(), nil, &product)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}
		return nil, err
	}
	return &product, nil
}

type iinRequest struct {
	Bin            string         `json:"bin"`
	PaymentContext PaymentContext `json:"paymentContext"`
}

// IINDetails identifies the product for the leading digits of a card number.
// A prefix the platform does not know yields status unknown, not an error.
func (c *Client) IINDetails(ctx context.Context, partialCardNumber string, pc PaymentContext) (*IINDetailsResponse, error) {
	if len(partialCardNumber) < MinIINDigits {
		return &IINDetailsResponse{Status: IINStatusNotEnoughDigits}, nil
	}
	bin := partialCardNumber
	if len(bin) > 8 {
		bin = bin[:8]
	}

	var resp IINDetailsResponse
	status, err := c.do(ctx, "iin_details", http.MethodPost, "/services/getIINdetails", nil, iinRequest{Bin: bin, PaymentContext: pc}, &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return &IINDetailsResponse{Status: IINStatusUnknown}, nil
		}
		return nil, err
	}

	if resp.IsAllowedInContext {
		resp.Status = IINStatusSupported
	} else {
		resp.Status = IINStatusExistingButNotAllowed
	}
	return &resp, nil
}

// PublicKey returns the session's encryption key. It is fetched once.
func (c *Client) PublicKey(ctx context.Context) (*PublicKeyResponse, error) {
	c.mu.Lock()
	cached := c.publicKey
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var key PublicKeyResponse
	if _, err := c.do(ctx, "public_key", http.MethodGet, "/crypto/publickey", nil, nil, &key); err != nil {
		return nil, err
	}
	if key.PublicKey == "" {
		return nil, ErrNoPublicKey
	}

	c.mu.Lock()
	c.publicKey = &key
	c.mu.Unlock()
	return &key, nil
}

// Prepare encrypts req for the merchant's server.
func (c *Client) Prepare(ctx context.Context, req *PaymentRequest) (*PreparedPaymentRequest, error) {
	key, err := c.PublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return encryptRequest(key, c.config.ClientSessionID, c.config.AppIdentifier, c.locale, req)
}

// do performs one API call and decodes a 2xx body into out. The returned
// status is 0 when no response was received.
func (c *Client) do(ctx context.Context, op, method, path string, query map[string]string, body, out any) (status int, err error) {
	start := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(op, time.Since(start), err)
		}
	}()

	endpoint := c.baseURL + "/" + url.PathEscape(c.config.CustomerID) + path
	if len(query) > 0 {
		values := url.Values{}
		for k, v := range query {
			values.Set(k, v)
		}
		endpoint += "?" + values.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, &TransportError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "GCS v1Client:"+c.config.ClientSessionID)
	req.Header.Set("X-GCS-ClientMetaInfo", EncodedClientMetaInfo(c.config.AppIdentifier))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Op: op, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}
		// Error bodies are best effort; an unparseable one still yields the status.
		_ = json.Unmarshal(data, apiErr)
		return resp.StatusCode, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &TransportError{Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
		}
	}
	return resp.StatusCode, nil
}
