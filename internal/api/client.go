// Package api is the HTTP client of the foundation's backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	headerUserAgent   = "User-Agent"
	contentTypeJSON   = "application/json"
	defaultUserAgent  = "huahuacuna-web/1.0"

	// DefaultTimeout bounds every outgoing call
	DefaultTimeout = 10 * time.Second
)

// Client calls the backend with a bounded wait and default JSON headers.
// A Client is safe for concurrent use.
type Client struct {
	endpoints  Endpoints
	base       http.RoundTripper
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	token      string

	Auth     *AuthService
	Children *ChildrenService
}

// Option configures a Client
type Option func(*Client)

// WithTimeout overrides DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets the base round tripper
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.base = rt
		}
	}
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates an unauthenticated client for baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		endpoints: NewEndpoints(baseURL),
		base:      http.DefaultTransport,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient = &http.Client{Transport: c.base}
	c.bind()
	return c
}

func (c *Client) bind() {
	c.Auth = &AuthService{client: c}
	c.Children = &ChildrenService{client: c}
}

// Endpoints returns the endpoint registry
func (c *Client) Endpoints() Endpoints { return c.endpoints }

// Timeout returns the per-call timeout
func (c *Client) Timeout() time.Duration { return c.timeout }

// Authenticated reports whether calls carry a bearer token
func (c *Client) Authenticated() bool { return c.token != "" }

// WithToken returns a client variant that attaches
// "Authorization: Bearer <token>" to every request. An empty token
// yields an unauthenticated client.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	if token == "" {
		clone.httpClient = &http.Client{Transport: c.base}
	} else {
		clone.httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
				Base:   c.base,
			},
		}
	}
	clone.bind()
	return &clone
}

// Do performs a JSON request against an absolute URL. A nil body sends no
// payload; a nil out discards the response.
func (c *Client) Do(ctx context.Context, method, url string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, contentTypeJSON)
	req.Header.Set(headerUserAgent, c.userAgent)

	endpoint := endpointLabel(url)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	apiCallDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			apiCallsTotal.WithLabelValues(method, endpoint, "timeout").Inc()
			log.Warn().Str("method", method).Str("endpoint", endpoint).Dur("timeout", c.timeout).Msg("backend call timed out")
			return fmt.Errorf("%s %s: %w", method, endpoint, ErrTimeout)
		}
		apiCallsTotal.WithLabelValues(method, endpoint, "transport_error").Inc()
		log.Warn().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("backend call failed")
		return fmt.Errorf("%s %s: %w: %v", method, endpoint, ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		apiCallsTotal.WithLabelValues(method, endpoint, "transport_error").Inc()
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s %s: %w", method, endpoint, ErrTimeout)
		}
		return fmt.Errorf("%s %s: %w: %v", method, endpoint, ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		apiCallsTotal.WithLabelValues(method, endpoint, "error").Inc()
		return parseError(resp.StatusCode, respBody)
	}
	apiCallsTotal.WithLabelValues(method, endpoint, "ok").Inc()

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.Do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	return c.Do(ctx, http.MethodPost, url, body, out)
}

func (c *Client) put(ctx context.Context, url string, body, out any) error {
	return c.Do(ctx, http.MethodPut, url, body, out)
}

func (c *Client) patch(ctx context.Context, url string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, url, body, out)
}

func (c *Client) delete(ctx context.Context, url string) error {
	return c.Do(ctx, http.MethodDelete, url, nil, nil)
}
