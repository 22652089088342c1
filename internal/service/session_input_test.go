package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/onlinepayments-demo/internal/domain"
)

func validInput() SessionInput {
	return SessionInput{
		ClientSessionID: "session-123",
		CustomerID:      "customer-456",
		ClientAPIURL:    "https://payment.preprod.example.com",
		AssetURL:        "https://assets.preprod.example.com",
		Amount:          "1500",
		CountryCode:     "NL",
		CurrencyCode:    "EUR",
	}
}

func TestSessionInput_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SessionInput)
		fields map[string]string
	}{
		{
			name:   "valid",
			modify: func(*SessionInput) {},
		},
		{
			name:   "blank client session id",
			modify: func(in *SessionInput) { in.ClientSessionID = "" },
			fields: map[string]string{"clientSessionId": EmptyFieldMessage},
		},
		{
			name:   "amount with decimals",
			modify: func(in *SessionInput) { in.Amount = "15.00" },
			fields: map[string]string{"amount": "Please enter the amount in minor units, e.g. 1500"},
		},
		{
			name:   "amount beyond int64",
			modify: func(in *SessionInput) { in.Amount = "9223372036854775808" },
			fields: map[string]string{"amount": "The amount is too large"},
		},
		{
			name:   "largest amount",
			modify: func(in *SessionInput) { in.Amount = "9223372036854775807" },
		},
		{
			name:   "unknown country",
			modify: func(in *SessionInput) { in.CountryCode = "XX" },
			fields: map[string]string{"countryCode": "Please enter a two-letter country code, e.g. NL"},
		},
		{
			name:   "unknown currency",
			modify: func(in *SessionInput) { in.CurrencyCode = "EURO" },
			fields: map[string]string{"currencyCode": "Please enter a three-letter currency code, e.g. EUR"},
		},
		{
			name:   "relative api url",
			modify: func(in *SessionInput) { in.ClientAPIURL = "payment.example.com" },
			fields: map[string]string{"clientApiUrl": "Please enter a valid URL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)

			err := in.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var fieldErrs *domain.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			assert.Equal(t, tt.fields, fieldErrs.Fields)
		})
	}
}

func TestSessionInput_ValidateEveryBlankField(t *testing.T) {
	err := SessionInput{}.Validate()
	require.Error(t, err)

	fields := domain.FieldMessages(err)
	for _, name := range []string{"clientSessionId", "customerId", "clientApiUrl", "assetUrl", "amount", "countryCode", "currencyCode"} {
		assert.Equal(t, EmptyFieldMessage, fields[name], name)
	}
}

func TestSessionInput_Normalize(t *testing.T) {
	in := SessionInput{
		ClientSessionID: "  abc ",
		CountryCode:     " nl",
		CurrencyCode:    "eur ",
	}
	in.Normalize()

	assert.Equal(t, "abc", in.ClientSessionID)
	assert.Equal(t, "NL", in.CountryCode)
	assert.Equal(t, "EUR", in.CurrencyCode)
	assert.Equal(t, SourceForm, in.Source)
}

func TestSessionInput_PaymentContext(t *testing.T) {
	in := validInput()
	in.Recurring = true

	pc, err := in.PaymentContext("nl_NL")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), pc.AmountOfMoney.TotalAmount)
	assert.Equal(t, "EUR", pc.AmountOfMoney.CurrencyCode)
	assert.Equal(t, "NL", pc.CountryCode)
	assert.True(t, pc.IsRecurring)
	assert.Equal(t, "nl_NL", pc.Locale)
}

func TestSessionInput_PaymentContextRejectsOverflow(t *testing.T) {
	in := validInput()
	in.Amount = "99999999999999999999"

	_, err := in.PaymentContext("en_GB")
	require.Error(t, err)
	assert.Contains(t, domain.FieldMessages(err), "amount")
}

func TestSessionInput_PreferencesRoundTrip(t *testing.T) {
	in := validInput()
	in.Recurring = true

	out := InputFromPreferences(in.Preferences())
	assert.False(t, out.Recurring)
	out.Recurring = true
	assert.Equal(t, in, out)
}

func TestParsePastedJSON(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := ParsePastedJSON("   ")
		assert.ErrorIs(t, err, ErrEmptyPaste)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParsePastedJSON("clientSessionId=abc")
		require.Error(t, err)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.Equal(t, domain.ErrorMessage(ErrInvalidPaste), domain.ErrorMessage(err))
	})

	t.Run("applies to input", func(t *testing.T) {
		creds, err := ParsePastedJSON(`{"clientSessionId":"s1","customerId":"c1","clientApiUrl":"https://api.example.com","assetUrl":"https://assets.example.com"}`)
		require.NoError(t, err)

		in := validInput()
		in.ApplyPasted(creds)
		assert.Equal(t, "s1", in.ClientSessionID)
		assert.Equal(t, "c1", in.CustomerID)
		assert.Equal(t, "https://api.example.com", in.ClientAPIURL)
		assert.Equal(t, "https://assets.example.com", in.AssetURL)
		assert.Equal(t, "1500", in.Amount)
		assert.Equal(t, SourcePaste, in.Source)

		in.Normalize()
		assert.Equal(t, SourcePaste, in.Source)
	})

	t.Run("missing keys clear fields", func(t *testing.T) {
		creds, err := ParsePastedJSON(`{"clientSessionId":"s1"}`)
		require.NoError(t, err)

		in := validInput()
		in.ApplyPasted(creds)
		assert.Empty(t, in.CustomerID)
		assert.Contains(t, domain.FieldMessages(in.Validate()), "customerId")
	})
}
