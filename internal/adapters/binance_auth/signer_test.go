package binance_auth

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Example from the Binance signed-endpoint documentation.
const (
	docSecret = "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	docQuery  = "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	docSig    = "c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71"
)

func TestSignature_MatchesDocumentedVector(t *testing.T) {
	s := NewSigner(Credentials{APIKey: "key", APISecret: docSecret})
	require.NotNil(t, s)

	assert.Equal(t, docSig, s.Signature(docQuery))
	assert.Equal(t, s.Signature(docQuery), s.Signature(docQuery), "signature must be deterministic")
}

func TestSignature_DependsOnSecret(t *testing.T) {
	a := NewSigner(Credentials{APIKey: "key", APISecret: "secret-a"})
	b := NewSigner(Credentials{APIKey: "key", APISecret: "secret-b"})
	assert.NotEqual(t, a.Signature(docQuery), b.Signature(docQuery))
}

func TestSignQuery_AppendsSignatureLast(t *testing.T) {
	s := NewSigner(Credentials{APIKey: "key", APISecret: docSecret})

	params := url.Values{}
	params.Set("symbol", "BTCUSDT")
	params.Set("timestamp", "1700000000000")

	signed := s.SignQuery(params)
	prefix, sig, ok := strings.Cut(signed, "&signature=")
	require.True(t, ok)
	assert.Equal(t, "symbol=BTCUSDT&timestamp=1700000000000", prefix)
	assert.Equal(t, s.Signature(prefix), sig)
	assert.Len(t, sig, 64)
}

func TestNewSigner_MissingCredentials(t *testing.T) {
	assert.Nil(t, NewSigner(Credentials{APIKey: "key"}))
	assert.Nil(t, NewSigner(Credentials{APISecret: "secret"}))

	var s *Signer
	assert.False(t, s.Enabled())

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	s.SetHeader(req)
	assert.Empty(t, req.Header.Get(APIKeyHeader))
}

func TestSetHeader(t *testing.T) {
	s := NewSigner(Credentials{APIKey: "my-key", APISecret: "secret"})
	req, _ := http.NewRequest(http.MethodPost, "http://example.invalid", nil)
	s.SetHeader(req)
	assert.Equal(t, "my-key", req.Header.Get(APIKeyHeader))
	assert.True(t, s.Enabled())
}
