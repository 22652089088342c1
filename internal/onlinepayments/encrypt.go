package onlinepayments

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/onlinepayments-demo/internal/crypto"
	"github.com/google/uuid"
)

type paymentValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type deviceInformation struct {
	TimezoneOffsetUTCMinutes int    `json:"timezoneOffsetUtcMinutes"`
	Locale                   string `json:"locale,omitempty"`
}

type encryptionPayload struct {
	ClientSessionID            string            `json:"clientSessionId"`
	Nonce                      string            `json:"nonce"`
	PaymentProductID           int               `json:"paymentProductId"`
	AccountOnFileID            int               `json:"accountOnFileId,omitempty"`
	Tokenize                   bool              `json:"tokenize,omitempty"`
	PaymentValues              []paymentValue    `json:"paymentValues"`
	CollectedDeviceInformation deviceInformation `json:"collectedDeviceInformation"`
}

// encryptRequest serializes req and encrypts it with the session's public key.
func encryptRequest(key *PublicKeyResponse, clientSessionID, appIdentifier, locale string, req *PaymentRequest) (*PreparedPaymentRequest, error) {
	if key == nil || key.PublicKey == "" {
		return nil, ErrNoPublicKey
	}
	if req == nil || req.Product == nil {
		return nil, fmt.Errorf("onlinepayments: payment request has no product")
	}

	pub, err := crypto.ParsePublicKey(key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPublicKey, err)
	}
	enc, err := crypto.NewJWEEncryptor(pub, key.KeyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPublicKey, err)
	}

	values := req.UnmaskedFieldValues()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	payload := encryptionPayload{
		ClientSessionID:  clientSessionID,
		Nonce:            uuid.NewString(),
		PaymentProductID: req.Product.ID,
		Tokenize:         req.Tokenize,
		PaymentValues:    make([]paymentValue, 0, len(keys)),
	}
	if req.AccountOnFile != nil {
		payload.AccountOnFileID = req.AccountOnFile.ID
	}
	for _, k := range keys {
		payload.PaymentValues = append(payload.PaymentValues, paymentValue{Key: k, Value: values[k]})
	}
	_, offset := time.Now().Zone()
	payload.CollectedDeviceInformation = deviceInformation{
		TimezoneOffsetUTCMinutes: -offset / 60,
		Locale:                   locale,
	}

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("onlinepayments: failed to marshal payment values: %w", err)
	}

	token, err := enc.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("onlinepayments: failed to encrypt payment values: %w", err)
	}

	return &PreparedPaymentRequest{
		EncryptedFields:       token,
		EncodedClientMetaInfo: EncodedClientMetaInfo(appIdentifier),
	}, nil
}
