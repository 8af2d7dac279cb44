// Package backend is the typed client for the platform REST API. Every
// outbound call goes through it: it attaches the bearer token, unwraps the
// standard response envelope and normalises failures into *Error values so
// the web layer can report each problem exactly once.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single backend round-trip.
const DefaultTimeout = 30 * time.Second

// TokenSource supplies the bearer token for outgoing requests. An empty
// token sends the request unauthenticated and lets the backend reject it.
type TokenSource interface {
	Token(ctx context.Context) string
}

// TokenSourceFunc adapts a function to a TokenSource.
type TokenSourceFunc func(ctx context.Context) string

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) string { return f(ctx) }

// StaticToken is a fixed-value TokenSource, used by the worker.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) string { return string(s) }

// Options configures the client.
type Options struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8000/api.
	BaseURL string
	// Timeout bounds each request; DefaultTimeout when zero.
	Timeout time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client implements the API surface. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient validates the options and builds a Client. The token source is
// injected rather than read from a global so tests and the worker can
// supply their own.
func NewClient(opts Options, tokens TokenSource) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend: base URL required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("backend: invalid base URL: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}, nil
}

// PathParams substitute {name} placeholders in endpoint templates.
type PathParams map[string]string

func expandPath(path string, params PathParams) string {
	for name, value := range params {
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return path
}

type envelope struct {
	Success   *bool           `json:"success"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// ok reports business success: the success flag wins when present, the
// code is only consulted as a fallback.
func (e *envelope) ok() bool {
	if e.Success != nil {
		return *e.Success
	}
	return e.Code == http.StatusOK
}

func (c *Client) get(ctx context.Context, path string, params PathParams, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, query, nil, out)
}

func (c *Client) post(ctx context.Context, path string, params PathParams, query url.Values, body, out any) error {
	return c.do(ctx, http.MethodPost, path, params, query, body, out)
}

func (c *Client) put(ctx context.Context, path string, params PathParams, body, out any) error {
	return c.do(ctx, http.MethodPut, path, params, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, params PathParams, query url.Values, body, out any) error {
	endpoint := c.baseURL + expandPath(path, params)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(ctx, req)

	res, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return networkError(err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return statusError(res.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("backend: decode response: %w", err)
	}
	if !env.ok() {
		return businessError(env.Code, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("backend: decode payload: %w", err)
		}
	}
	return nil
}

// doForm posts an urlencoded form and decodes the raw (non-enveloped)
// response body. The login endpoint speaks the OAuth2 password flow and
// bypasses the envelope.
func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	c.authorize(ctx, req)

	res, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return networkError(err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return statusError(res.StatusCode, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("backend: decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
