package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

var (
	// ErrInvalidToken is returned when a compact JWE cannot be parsed.
	ErrInvalidToken = errors.New("crypto: invalid JWE token")

	// ErrAuthenticationFailed is returned when the token does not decrypt
	// with the given key.
	ErrAuthenticationFailed = errors.New("crypto: authentication tag mismatch")
)

// Encryptor produces compact JWE tokens from plaintext.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
}

// JWEEncryptor encrypts with RSA-OAEP key wrapping and A256CBC-HS512
// content encryption, the format the client API expects for
// encryptedCustomerInput.
type JWEEncryptor struct {
	encrypter jose.Encrypter
}

// NewJWEEncryptor creates an encryptor for the given RSA public key.
func NewJWEEncryptor(publicKey *rsa.PublicKey, keyID string) (*JWEEncryptor, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("crypto: public key cannot be nil")
	}

	enc, err := jose.NewEncrypter(jose.A256CBC_HS512, jose.Recipient{
		Algorithm: jose.RSA_OAEP,
		Key:       publicKey,
		KeyID:     keyID,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create encrypter: %w", err)
	}
	return &JWEEncryptor{encrypter: enc}, nil
}

// ParsePublicKey decodes a base64 DER SubjectPublicKeyInfo into an RSA key.
func ParsePublicKey(encoded string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to decode public key: %w", err)
	}

	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to parse public key: %w", err)
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("crypto: public key is %T, want RSA", key)
	}
	return rsaKey, nil
}

// EncodePublicKey is the inverse of ParsePublicKey.
func EncodePublicKey(key *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// Encrypt returns the compact serialization of plaintext.
func (e *JWEEncryptor) Encrypt(plaintext []byte) (string, error) {
	obj, err := e.encrypter.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to encrypt: %w", err)
	}
	token, err := obj.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("crypto: failed to serialize token: %w", err)
	}
	return token, nil
}

// DecryptJWE reverses JWEEncryptor.Encrypt with the matching private key.
// Only the two algorithms JWEEncryptor writes are accepted.
func DecryptJWE(token string, privateKey *rsa.PrivateKey) ([]byte, error) {
	obj, err := jose.ParseEncrypted(token,
		[]jose.KeyAlgorithm{jose.RSA_OAEP},
		[]jose.ContentEncryption{jose.A256CBC_HS512},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	plaintext, err := obj.Decrypt(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}
