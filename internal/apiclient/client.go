// Package apiclient is the single configured HTTP client for the remote
// SmartTenders API. Every domain service goes through Client.Do.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/simp-lee/smarttenders/internal/domain"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultRetryTimeout = 30 * time.Second
	maxResponseBytes    = 4 << 20
)

// errResponseTooLarge rejects a body that exceeds maxResponseBytes instead
// of decoding a truncated prefix of it.
var errResponseTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration // per-attempt deadline of the first attempt
	RetryTimeout time.Duration // deadline of the single retry after a timeout
	UserAgent    string
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client sends JSON requests to the remote API and unwraps response envelopes.
//
// A request whose first attempt times out at transport level is retried
// exactly once with RetryTimeout. Application errors (any HTTP status) and
// caller cancellations are never retried.
type Client struct {
	baseURL      string
	timeout      time.Duration
	retryTimeout time.Duration
	userAgent    string
	http         *http.Client
	log          *slog.Logger
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("apiclient: base url is empty")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", opts.BaseURL)
	}

	c := &Client{
		baseURL:      base,
		timeout:      opts.Timeout,
		retryTimeout: opts.RetryTimeout,
		userAgent:    opts.UserAgent,
		http:         opts.HTTPClient,
		log:          opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.retryTimeout <= 0 {
		c.retryTimeout = defaultRetryTimeout
	}
	if c.http == nil {
		c.http = newHTTPClient()
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c, nil
}

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	// Deadlines come from the per-attempt context, not from Client.Timeout.
	return &http.Client{Transport: tr}
}

// Get issues a GET request and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Do sends one API request. body, when non-nil, is JSON encoded. out, when
// non-nil, receives the decoded "data" member of the response envelope.
// Every returned error is a *domain.AppError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, "encode request", err)
		}
		payload = b
	}

	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	res, err := c.attempt(ctx, method, target, payload, c.timeout, 1)
	if err != nil && isAttemptTimeout(ctx, err) {
		c.log.WarnContext(ctx, "api request timed out, retrying",
			slog.String("method", method),
			slog.String("path", path),
			slog.Duration("retry_timeout", c.retryTimeout),
		)
		res, err = c.attempt(ctx, method, target, payload, c.retryTimeout, 2)
	}
	if errors.Is(err, errResponseTooLarge) {
		return domain.NewAppError(domain.CodeInternal, "response too large", err)
	}
	if err != nil {
		return domain.NewAppError(domain.CodeUnavailable, "the tender service could not be reached, please try again", err)
	}

	return decodeResponse(res.status, res.body, out)
}

type rawResponse struct {
	status int
	body   []byte
}

// attempt performs a single round trip bounded by timeout. The response body
// is read before the attempt context is released.
func (c *Client) attempt(ctx context.Context, method, target string, payload []byte, timeout time.Duration, n int) (*rawResponse, error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(actx, method, target, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxResponseBytes {
		c.log.WarnContext(ctx, "api response too large",
			slog.String("method", method),
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, errResponseTooLarge
	}

	c.log.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Int("attempt", n),
		slog.Duration("latency", time.Since(start)),
	)
	return &rawResponse{status: resp.StatusCode, body: b}, nil
}

// isAttemptTimeout reports whether err is a transport-level timeout of the
// attempt itself while the caller's context is still alive.
func isAttemptTimeout(parent context.Context, err error) bool {
	if err == nil || parent.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type tokenKey struct{}

// WithToken returns a context carrying the bearer token injected into
// outgoing requests.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token carried by ctx, if any.
func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}
