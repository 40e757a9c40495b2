package binance_http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charleschow/futures-bot/internal/adapters/binance_auth"
	"github.com/charleschow/futures-bot/internal/core/order"
	"github.com/charleschow/futures-bot/internal/telemetry"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://testnet.binancefuture.com"
	DefaultRecvWindow = 5000
)

type Client struct {
	baseURL      string
	httpClient   *http.Client
	signer       *binance_auth.Signer
	recvWindow   int
	now          func() time.Time
	readLimiter  *rate.Limiter
	writeLimiter *rate.Limiter
}

func NewClient(baseURL string, signer *binance_auth.Signer, recvWindow int) *Client {
	if recvWindow <= 0 {
		recvWindow = DefaultRecvWindow
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		signer:       signer,
		recvWindow:   recvWindow,
		now:          time.Now,
		readLimiter:  rate.NewLimiter(rate.Limit(20), 20),
		writeLimiter: rate.NewLimiter(rate.Limit(10), 10),
	}
}

// do sends one request and never retries it. Signed requests get recvWindow,
// timestamp (unless already present) and a trailing signature.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, signed bool) ([]byte, int, error) {
	lim := c.readLimiter
	if method != http.MethodGet {
		lim = c.writeLimiter
	}
	waitStart := time.Now()
	if err := lim.Wait(ctx); err != nil {
		return nil, 0, &order.NetworkError{Op: "rate limit wait " + path, Err: err}
	}
	telemetry.Metrics.RateLimiterWait.Record(time.Since(waitStart))

	if params == nil {
		params = url.Values{}
	}

	var query string
	if signed {
		if !c.signer.Enabled() {
			return nil, 0, &order.ValidationError{Field: "credentials", Reason: "API key and secret are required for signed endpoints"}
		}
		if params.Get("timestamp") == "" {
			params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
		}
		if params.Get("recvWindow") == "" {
			params.Set("recvWindow", strconv.Itoa(c.recvWindow))
		}
		query = c.signer.SignQuery(params)
	} else {
		query = params.Encode()
	}

	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	c.signer.SetHeader(req)

	telemetry.Debugf("REQUEST -> %s %s%s PARAMS: %s", method, c.baseURL, path, redactSignature(query))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &order.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &order.NetworkError{Op: "read " + path, Err: err}
	}

	telemetry.Debugf("RESPONSE <- %d %s", resp.StatusCode, string(body))
	telemetry.Infof("binance_http: %s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp.StatusCode, parseAPIError(resp.StatusCode, body)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, signed bool) ([]byte, int, error) {
	return c.do(ctx, http.MethodGet, path, params, signed)
}

func (c *Client) Post(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	return c.do(ctx, http.MethodPost, path, params, true)
}

// BaseURL reports the REST root this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func redactSignature(query string) string {
	if i := strings.Index(query, "signature="); i >= 0 {
		return query[:i] + "signature=<redacted>"
	}
	return query
}
