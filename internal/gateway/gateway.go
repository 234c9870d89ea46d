// Package gateway is the only component that talks to the ERP REST API.
//
// Every call goes through Client.Do, which attaches the bearer token held by
// a TokenSource (except on public endpoints), JSON-encodes the body and turns
// non-2xx responses into *Error values with a closed set of kinds.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marcus-qen/erplite/internal/metrics"
	"github.com/marcus-qen/erplite/internal/telemetry"
)

const maxResponseBytes = 4 << 20

// publicPrefixes never carry an Authorization header.
var publicPrefixes = []string{
	"/accounts/login/",
	"/accounts/register/",
}

// IsPublic reports whether path is an unauthenticated endpoint.
func IsPublic(path string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Client issues requests against a fixed API base URL.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client for baseURL (for example "http://127.0.0.1:8000/api").
// No request timeout is imposed; callers bound calls with their context.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestOptions struct {
	header http.Header
}

// RequestOption customizes a single call.
type RequestOption func(*requestOptions)

// WithHeader adds a header to the request. Content-Type cannot be overridden.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.header.Add(key, value)
	}
}

// Get issues a GET and decodes a JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

// Do performs one API call. A 2xx JSON response is decoded into out when out
// is non-nil; any other 2xx response decodes nothing. Failures are *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	ro := requestOptions{header: http.Header{}}
	for _, opt := range opts {
		opt(&ro)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return transportError(fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(b)
	}

	// held is the token installed when the call starts; it is only attached
	// outside the public prefixes but is dropped on any token rejection.
	held, token := "", ""
	if c.tokens != nil {
		held = c.tokens.Token()
		if !IsPublic(path) {
			token = held
		}
	}

	ctx, span := telemetry.StartRequestSpan(ctx, method, path, token != "")

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		gwErr := transportError(err)
		telemetry.EndRequestSpan(span, 0, string(gwErr.Kind), gwErr)
		return gwErr
	}
	for k, vs := range ro.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordRequest(method, 0, time.Since(start))
		gwErr := transportError(fmt.Errorf("api request failed: %w", err))
		telemetry.EndRequestSpan(span, 0, string(gwErr.Kind), gwErr)
		return gwErr
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	metrics.RecordRequest(method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := Classify(resp.StatusCode, respBody)
		if gwErr.Kind == KindTokenInvalid && held != "" {
			c.tokens.Invalidate(held)
			metrics.RecordTokenInvalidated()
			c.logger.Info("bearer token rejected; cleared from gateway",
				zap.String("method", method), zap.String("path", path))
		}
		c.logger.Debug("api call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("kind", string(gwErr.Kind)))
		telemetry.EndRequestSpan(span, resp.StatusCode, string(gwErr.Kind), gwErr)
		return gwErr
	}
	if readErr != nil {
		gwErr := transportError(fmt.Errorf("failed to read api response: %w", readErr))
		telemetry.EndRequestSpan(span, resp.StatusCode, string(gwErr.Kind), gwErr)
		return gwErr
	}

	telemetry.EndRequestSpan(span, resp.StatusCode, "", nil)
	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return transportError(fmt.Errorf("failed to parse api response: %w", err))
	}
	return nil
}
