// Package account wraps the backend's user endpoints: sign-in, registration,
// sign-out and the profile read. Credentials never persist here; the backend
// issues the session cookies and the web layer relays them to the browser.
package account

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

const (
	loginEndpoint    = "users/auth/jwt/create/"
	registerEndpoint = "users/auth/users/register/"
	logoutEndpoint   = "users/auth/users/logout/"
	profileEndpoint  = "users/api/profile/"
)

// API is the slice of the backend client the account package needs.
type API interface {
	Get(ctx context.Context, endpoint string, query url.Values, out any) error
	Post(ctx context.Context, endpoint string, payload, out any) error
}

// Client wraps the user endpoints of the backend.
type Client struct {
	api API
}

// NewClient wires an account client to a backend client.
func NewClient(api API) *Client { return &Client{api: api} }

// Credentials is a sign-in submission. The backend authenticates by email.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ErrIncompleteCredentials rejects a submission missing the email or password
// before any network call.
var ErrIncompleteCredentials = errors.New("account: email and password are required")

// Validate checks the form fields, not the credentials themselves.
func (c Credentials) Validate() error {
	if !strings.Contains(c.Email, "@") || strings.TrimSpace(c.Password) == "" {
		return ErrIncompleteCredentials
	}
	return nil
}

// Login exchanges credentials for session cookies. The cookies ride back on
// the backend response; callers relay them, nothing is returned here.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	return c.api.Post(ctx, loginEndpoint, creds, nil)
}

// Registration is a new-account submission. The backend requires the password
// twice and derives the username from the email.
type Registration struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
}

// NewRegistration builds the registration payload from the sign-up form.
func NewRegistration(email, password string) Registration {
	return Registration{Username: email, Email: email, Password: password, RePassword: password}
}

// ErrIncompleteRegistration rejects a malformed sign-up before any network
// call. The backend enforces the same eight-character minimum.
var ErrIncompleteRegistration = errors.New("account: a valid email and a password of at least 8 characters are required")

// Validate checks the sign-up form fields.
func (r Registration) Validate() error {
	if !strings.Contains(r.Email, "@") || len(r.Password) < 8 || r.Password != r.RePassword {
		return ErrIncompleteRegistration
	}
	return nil
}

// Register creates the account. On success the backend signs the visitor in
// and sets the session cookies on the response.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	return c.api.Post(ctx, registerEndpoint, reg, nil)
}

// Logout ends the session; the backend answers with cookie deletions for the
// caller to relay.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.api.Post(ctx, logoutEndpoint, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Profile is the visitor's account summary.
type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"profile_image"`
}

// Profile reads the signed-in visitor's profile.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	if err := c.api.Get(ctx, profileEndpoint, nil, &out); err != nil {
		return Profile{}, err
	}
	return out, nil
}
