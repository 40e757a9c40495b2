package binance_auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
)

const APIKeyHeader = "X-MBX-APIKEY"

// Credentials is the process-wide API key pair. Loaded once at startup.
type Credentials struct {
	APIKey    string
	APISecret string
}

// Signer implements Binance signed-endpoint authentication: HMAC-SHA256 of
// the exact query string, keyed with the API secret, hex encoded.
type Signer struct {
	creds Credentials
}

// NewSigner returns nil when either half of the key pair is missing,
// allowing callers to run unsigned endpoints without credentials.
func NewSigner(creds Credentials) *Signer {
	if creds.APIKey == "" || creds.APISecret == "" {
		return nil
	}
	return &Signer{creds: creds}
}

// Enabled reports whether this signer has credentials loaded.
func (s *Signer) Enabled() bool {
	return s != nil && s.creds.APIKey != ""
}

// Signature returns the hex HMAC-SHA256 of payload.
func (s *Signer) Signature(payload string) string {
	mac := hmac.New(sha256.New, []byte(s.creds.APISecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignQuery encodes params and appends the signature as the final
// parameter. The signature covers exactly the bytes that precede it.
func (s *Signer) SignQuery(params url.Values) string {
	qs := params.Encode()
	return qs + "&signature=" + s.Signature(qs)
}

// SetHeader sets the API key header. No-op when s is nil.
func (s *Signer) SetHeader(req *http.Request) {
	if s == nil {
		return
	}
	req.Header.Set(APIKeyHeader, s.creds.APIKey)
}
