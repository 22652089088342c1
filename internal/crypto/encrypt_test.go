package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestJWEEncryptor_RoundTrip(t *testing.T) {
	key := generateKey(t)

	enc, err := NewJWEEncryptor(&key.PublicKey, "key-1")
	require.NoError(t, err)

	plaintext := []byte(`{"paymentValues":[{"key":"cardNumber","value":"4111111111111111"}]}`)
	token, err := enc.Encrypt(plaintext)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 5)

	rawHeader, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	var header map[string]string
	require.NoError(t, json.Unmarshal(rawHeader, &header))
	assert.Equal(t, "RSA-OAEP", header["alg"])
	assert.Equal(t, "A256CBC-HS512", header["enc"])
	assert.Equal(t, "key-1", header["kid"])

	decrypted, err := DecryptJWE(token, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestJWEEncryptor_BlockAlignedPlaintext(t *testing.T) {
	key := generateKey(t)
	enc, err := NewJWEEncryptor(&key.PublicKey, "")
	require.NoError(t, err)

	plaintext := []byte("0123456789abcdef")
	token, err := enc.Encrypt(plaintext)
	require.NoError(t, err)

	decrypted, err := DecryptJWE(token, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptJWE_TamperedCiphertext(t *testing.T) {
	key := generateKey(t)
	enc, err := NewJWEEncryptor(&key.PublicKey, "key-1")
	require.NoError(t, err)

	token, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	ct, err := base64.RawURLEncoding.DecodeString(parts[3])
	require.NoError(t, err)
	ct[0] ^= 0xff
	parts[3] = base64.RawURLEncoding.EncodeToString(ct)

	_, err = DecryptJWE(strings.Join(parts, "."), key)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestDecryptJWE_Rejected(t *testing.T) {
	key := generateKey(t)

	otherAlgorithm := func() string {
		enc, err := jose.NewEncrypter(jose.A128GCM, jose.Recipient{Algorithm: jose.RSA_OAEP_256, Key: &key.PublicKey}, nil)
		require.NoError(t, err)
		obj, err := enc.Encrypt([]byte("secret"))
		require.NoError(t, err)
		token, err := obj.CompactSerialize()
		require.NoError(t, err)
		return token
	}

	otherKey := func() string {
		enc, err := NewJWEEncryptor(&generateKey(t).PublicKey, "key-2")
		require.NoError(t, err)
		token, err := enc.Encrypt([]byte("secret"))
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name     string
		token    func() string
		expected error
	}{
		{name: "too few parts", token: func() string { return "a.b.c" }, expected: ErrInvalidToken},
		{name: "bad encoding", token: func() string { return "!!.b.c.d.e" }, expected: ErrInvalidToken},
		{name: "other algorithms", token: otherAlgorithm, expected: ErrInvalidToken},
		{name: "other key", token: otherKey, expected: ErrAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptJWE(tt.token(), key)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestPublicKeyEncoding(t *testing.T) {
	key := generateKey(t)

	encoded, err := EncodePublicKey(&key.PublicKey)
	require.NoError(t, err)

	parsed, err := ParsePublicKey(encoded)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(parsed))

	_, err = ParsePublicKey("not base64!")
	assert.Error(t, err)
}

func TestNewJWEEncryptor_NilKey(t *testing.T) {
	_, err := NewJWEEncryptor(nil, "key")
	assert.Error(t, err)
}
