// Package backend provides the authenticated JSON client for the storefront API.
// All storefront packages issue their requests through it: it forwards the
// browser's credential cookies, injects the CSRF header on modifying calls, and
// transparently performs a single silent token refresh when a request comes back
// 401.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout = 8 * time.Second

	csrfCookieName    = "csrftoken"
	csrfHeader        = "X-CSRFToken"
	idempotencyHeader = "Idempotency-Key"

	refreshEndpoint = "users/auth/jwt/refresh/"
)

// ErrSessionExpired is returned when a 401 persists after the one silent
// refresh attempt. Callers treat it as terminal and render the login view.
var ErrSessionExpired = errors.New("backend: session expired")

// HTTPClient matches the subset of http.Client used by Client.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the storefront backend. The zero value is not usable;
// construct with NewClient and scope per request with ForRequest.
type Client struct {
	base *url.URL
	http HTTPClient

	// cookies are the browser credentials forwarded on every call.
	cookies []*http.Cookie

	mu         sync.Mutex
	issued     []*http.Cookie // Set-Cookie captured from backend responses
	refreshing bool
	refreshed  bool
	refreshErr error
	refreshCh  chan struct{}
}

// NewClient constructs a Client for the given base URL. When client is nil a
// default http.Client with an explicit timeout is used.
func NewClient(baseURL string, client HTTPClient) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("backend: base URL is required")
	}
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("backend: parse base URL: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: parsed, http: client}, nil
}

// ForRequest returns a request-scoped client carrying the inbound request's
// cookies. The copy shares nothing with the parent, so a refresh performed for
// one visitor never leaks credentials into another's calls.
func (c *Client) ForRequest(r *http.Request) *Client {
	return c.WithCookies(r.Cookies())
}

// WithCookies returns a copy of the client that forwards the given cookies.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	return &Client{base: c.base, http: c.http, cookies: cookies}
}

// IssuedCookies returns cookies the backend set during this client's lifetime
// (typically a renewed access token). The web layer relays them to the browser.
func (c *Client) IssuedCookies() []*http.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*http.Cookie, len(c.issued))
	copy(out, c.issued)
	return out
}

// Relay writes any backend-issued cookies onto the outgoing response.
func (c *Client) Relay(w http.ResponseWriter) {
	for _, ck := range c.IssuedCookies() {
		http.SetCookie(w, ck)
	}
}

// Get issues a GET and decodes the JSON response into out (out may be nil).
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.call(ctx, http.MethodGet, endpoint, query, nil, nil, out)
}

// Post issues a POST with a JSON payload.
func (c *Client) Post(ctx context.Context, endpoint string, payload, out any) error {
	return c.call(ctx, http.MethodPost, endpoint, nil, nil, payload, out)
}

// PostIdempotent issues a POST carrying an Idempotency-Key header, so a
// retried submission cannot create a duplicate resource.
func (c *Client) PostIdempotent(ctx context.Context, endpoint, key string, payload, out any) error {
	header := http.Header{}
	header.Set(idempotencyHeader, key)
	return c.call(ctx, http.MethodPost, endpoint, nil, header, payload, out)
}

// Put issues a PUT with a JSON payload.
func (c *Client) Put(ctx context.Context, endpoint string, payload, out any) error {
	return c.call(ctx, http.MethodPut, endpoint, nil, nil, payload, out)
}

// Delete issues a DELETE and decodes the response into out (out may be nil).
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.call(ctx, http.MethodDelete, endpoint, nil, nil, nil, out)
}

func (c *Client) call(ctx context.Context, method, endpoint string, query url.Values, header http.Header, payload, out any) error {
	var body []byte
	if payload != nil {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("backend: encode payload: %w", err)
		}
		body = buf.Bytes()
	}

	resp, err := c.send(ctx, method, endpoint, query, header, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)
		if err := c.refresh(ctx); err != nil {
			return err
		}
		// Retry the original request exactly once. A second 401 is terminal;
		// no backoff loop, so a broken refresh can never spin.
		resp, err = c.send(ctx, method, endpoint, query, header, body)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return ErrSessionExpired
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("backend: decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, header http.Header, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(endpoint, query), reader)
	if err != nil {
		return nil, fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for name, vals := range header {
		for _, v := range vals {
			req.Header.Add(name, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.attachCookies(req)
	if !isSafeMethod(method) {
		if token := c.cookieValue(csrfCookieName); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend: request failed: %w", err)
	}
	c.capture(resp.Cookies())
	return resp, nil
}

// refresh performs the single silent token renewal. Concurrent 401s within the
// same request-scoped client share one in-flight refresh instead of firing
// parallel renewal calls.
func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshed {
		err := c.refreshErr
		c.mu.Unlock()
		return err
	}
	if c.refreshing {
		ch := c.refreshCh
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		err := c.refreshErr
		c.mu.Unlock()
		return err
	}
	c.refreshing = true
	c.refreshCh = make(chan struct{})
	c.mu.Unlock()

	err := c.doRefresh(ctx)

	c.mu.Lock()
	c.refreshing = false
	c.refreshed = true
	c.refreshErr = err
	close(c.refreshCh)
	c.mu.Unlock()
	return err
}

func (c *Client) doRefresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(refreshEndpoint, nil), nil)
	if err != nil {
		return fmt.Errorf("backend: build refresh request: %w", err)
	}
	c.attachCookies(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend: refresh failed: %w", err)
	}
	defer resp.Body.Close()
	c.capture(resp.Cookies())
	if resp.StatusCode >= 400 {
		return ErrSessionExpired
	}
	return nil
}

// attachCookies forwards the browser cookies, letting any backend-issued
// cookie of the same name (a renewed access token) take precedence.
func (c *Client) attachCookies(req *http.Request) {
	c.mu.Lock()
	issued := make(map[string]*http.Cookie, len(c.issued))
	for _, ck := range c.issued {
		issued[ck.Name] = ck
	}
	c.mu.Unlock()

	seen := map[string]bool{}
	for _, ck := range c.cookies {
		if repl, ok := issued[ck.Name]; ok {
			req.AddCookie(&http.Cookie{Name: repl.Name, Value: repl.Value})
			seen[ck.Name] = true
			continue
		}
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		seen[ck.Name] = true
	}
	for name, ck := range issued {
		if !seen[name] {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
}

func (c *Client) capture(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range cookies {
		replaced := false
		for i, old := range c.issued {
			if old.Name == ck.Name {
				c.issued[i] = ck
				replaced = true
				break
			}
		}
		if !replaced {
			c.issued = append(c.issued, ck)
		}
	}
}

func (c *Client) cookieValue(name string) string {
	c.mu.Lock()
	for _, ck := range c.issued {
		if ck.Name == name {
			c.mu.Unlock()
			return ck.Value
		}
	}
	c.mu.Unlock()
	for _, ck := range c.cookies {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	trimmed := strings.TrimPrefix(endpoint, "/")
	ref := &url.URL{Path: trimmed}
	u := c.base.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}
