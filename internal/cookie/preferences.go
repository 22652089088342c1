package cookie

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// Preference keys, one per remembered start screen input.
const (
	keyClientSessionID = "ClientSessionId"
	keyCustomerID      = "CustomerId"
	keyBaseURL         = "BaseURL"
	keyAssetURL        = "AssetURL"
	keyAmount          = "Amount"
	keyCountryCode     = "CountryCode"
	keyCurrencyCode    = "CurrencyCode"
)

const preferencesMaxAge = 90 * 24 * 60 * 60

// Preferences are the last used session identifiers and payment context.
type Preferences struct {
	ClientSessionID string
	CustomerID      string
	ClientAPIURL    string
	AssetURL        string
	Amount          string
	CountryCode     string
	CurrencyCode    string
}

// PreferenceStore keeps Preferences in a signed cookie.
type PreferenceStore struct {
	store sessions.Store
}

// NewPreferenceStore creates a store signing cookies with secret.
func NewPreferenceStore(secret []byte, cfg *Config) *PreferenceStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   preferencesMaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &PreferenceStore{store: store}
}

// Load returns the stored preferences. A missing or tampered cookie yields
// empty preferences.
func (s *PreferenceStore) Load(r *http.Request) Preferences {
	session, err := s.store.Get(r, PreferencesCookieName)
	if err != nil {
		return Preferences{}
	}

	str := func(key string) string {
		v, _ := session.Values[key].(string)
		return v
	}
	return Preferences{
		ClientSessionID: str(keyClientSessionID),
		CustomerID:      str(keyCustomerID),
		ClientAPIURL:    str(keyBaseURL),
		AssetURL:        str(keyAssetURL),
		Amount:          str(keyAmount),
		CountryCode:     str(keyCountryCode),
		CurrencyCode:    str(keyCurrencyCode),
	}
}

// Save writes p to the response.
func (s *PreferenceStore) Save(w http.ResponseWriter, r *http.Request, p Preferences) error {
	// A cookie signed with an old secret is replaced rather than rejected.
	session, _ := s.store.Get(r, PreferencesCookieName)

	session.Values[keyClientSessionID] = p.ClientSessionID
	session.Values[keyCustomerID] = p.CustomerID
	session.Values[keyBaseURL] = p.ClientAPIURL
	session.Values[keyAssetURL] = p.AssetURL
	session.Values[keyAmount] = p.Amount
	session.Values[keyCountryCode] = p.CountryCode
	session.Values[keyCurrencyCode] = p.CurrencyCode

	return session.Save(r, w)
}
