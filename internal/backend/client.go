// Package backend is the typed client for the analysis service REST API.
// It owns the wire formats and the bearer-token transport; it holds no
// session state of its own.
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

// TokenSource supplies the bearer token for outgoing requests. The transport
// consults it on every call, so whatever backs it (the session store) is
// always reflected exactly — there is no cached header to fall out of sync.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticToken is a fixed-token source, used between token issuance and the
// first authenticated call of a login, and by tests.
type StaticToken string

func (t StaticToken) Token(context.Context) string { return string(t) }

type noToken struct{}

func (noToken) Token(context.Context) string { return "" }

// Client talks to the analysis backend. Zero retries: every failure is
// surfaced to the caller, retries are user-initiated.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New builds a client for the given base URL. The token source may be nil
// for a client that only performs unauthenticated calls.
func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if tokens == nil {
		tokens = noToken{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: http.DefaultTransport, tokens: tokens},
		},
	}
}

// WithToken returns a copy of the client whose every request carries exactly
// the given token. Used by the login flow to authenticate the profile fetch
// before the session store holds the new token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.httpc = &http.Client{
		Timeout:   c.httpc.Timeout,
		Transport: &bearerTransport{base: http.DefaultTransport, tokens: StaticToken(token)},
	}
	return &clone
}

// bearerTransport attaches the Authorization header as a function of the
// token source at send time.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := t.tokens.Token(req.Context()); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return t.base.RoundTrip(req)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}
