// Package client talks to the site-content HTTP API on behalf of an administrator.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName matches the server's default ADMIN_COOKIE_NAME.
const DefaultCookieName = "cms_admin_session"

const maxErrorBody = 1 << 20

// Client is the site-content API client. It carries at most one session cookie.
type Client struct {
	baseURL    string
	cookieName string
	session    *http.Cookie
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCookieName sets the session cookie name the server issues.
func WithCookieName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithSession restores a previously saved session cookie.
func WithSession(ck *http.Cookie) Option {
	return func(c *Client) { c.session = ck }
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: DefaultCookieName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current session cookie, or nil.
func (c *Client) Session() *http.Cookie { return c.session }

type authRequest struct {
	Action   string `json:"action"`
	Password string `json:"password,omitempty"`
}

type authResponse struct {
	Success       bool `json:"success"`
	Authenticated bool `json:"authenticated"`
}

// Login exchanges the admin password for a session cookie.
func (c *Client) Login(ctx context.Context, password string) (*http.Cookie, error) {
	var out authResponse
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/admin/auth", authRequest{Action: "login", Password: password}, &out)
	if err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	c.absorbCookies(resp)
	if c.session == nil {
		return nil, fmt.Errorf("client.Login: server set no %q cookie", c.cookieName)
	}
	return c.session, nil
}

// Check reports whether the current session is live.
func (c *Client) Check(ctx context.Context) (bool, error) {
	var out authResponse
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/admin/auth", authRequest{Action: "check"}, &out)
	if err != nil {
		return false, fmt.Errorf("client.Check: %w", err)
	}
	c.absorbCookies(resp)
	return out.Authenticated, nil
}

// Logout ends the session on the server and forgets the cookie.
func (c *Client) Logout(ctx context.Context) error {
	var out authResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/admin/auth", authRequest{Action: "logout"}, &out); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	c.session = nil
	return nil
}

// Content returns the stored document exactly as the server serialized it.
func (c *Client) Content(ctx context.Context) ([]byte, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/api/content", nil)
	if err != nil {
		return nil, fmt.Errorf("client.Content: %w", err)
	}
	return body, nil
}

// SiteContent returns the public document and its source ("stored" or "default").
func (c *Client) SiteContent(ctx context.Context) ([]byte, string, error) {
	body, resp, err := c.do(ctx, http.MethodGet, "/api/site-content", nil)
	if err != nil {
		return nil, "", fmt.Errorf("client.SiteContent: %w", err)
	}
	return body, resp.Header.Get("X-Content-Source"), nil
}

// PushContent replaces the stored document with doc, which must be a JSON object.
func (c *Client) PushContent(ctx context.Context, doc []byte) error {
	if c.session == nil {
		return fmt.Errorf("client.PushContent: %w", ErrNoSession)
	}
	if !json.Valid(doc) {
		return fmt.Errorf("client.PushContent: document is not valid JSON")
	}
	if _, _, err := c.do(ctx, http.MethodPost, "/api/content", doc); err != nil {
		return fmt.Errorf("client.PushContent: %w", err)
	}
	return nil
}

// ResetContent restores the built-in default document.
func (c *Client) ResetContent(ctx context.Context) error {
	if c.session == nil {
		return fmt.Errorf("client.ResetContent: %w", ErrNoSession)
	}
	if _, _, err := c.do(ctx, http.MethodPost, "/api/content/reset", nil); err != nil {
		return fmt.Errorf("client.ResetContent: %w", err)
	}
	return nil
}

// absorbCookies tracks the session cookie set or cleared by the server.
func (c *Client) absorbCookies(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != c.cookieName {
			continue
		}
		if ck.Value == "" || ck.MaxAge < 0 {
			c.session = nil
			continue
		}
		c.session = ck
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	body, resp, err := c.do(ctx, method, path, data)
	if err != nil {
		return nil, err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, *http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		req.AddCookie(&http.Cookie{Name: c.session.Name, Value: c.session.Value})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		c.absorbCookies(resp)
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return nil, nil, &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody), RetryAfter: resp.Header.Get("Retry-After")}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			httpErr.Message = apiErr.Error
		}
		return nil, nil, httpErr
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp, nil
}
