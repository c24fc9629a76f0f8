package account_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront-web/internal/account"
	"finitefield.org/storefront-web/internal/backend"
)

func newClient(t *testing.T, handler http.Handler) *account.Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	api, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	return account.NewClient(api)
}

func TestLoginPostsCredentials(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "jwt"})
		_, _ = w.Write([]byte(`{"access":"jwt","message":"ok"}`))
	}))

	err := client.Login(context.Background(), account.Credentials{Email: "ada@example.com", Password: "s3cret"})
	require.NoError(t, err)
	require.Equal(t, "/users/auth/jwt/create/", gotPath)
	require.Equal(t, map[string]string{"email": "ada@example.com", "password": "s3cret"}, gotBody)
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	err := client.Login(context.Background(), account.Credentials{Email: "not-an-email", Password: "x"})
	require.ErrorIs(t, err, account.ErrIncompleteCredentials)

	err = client.Login(context.Background(), account.Credentials{Email: "ada@example.com"})
	require.ErrorIs(t, err, account.ErrIncompleteCredentials)
}

func TestRegisterSendsDoubledPasswordAndUsername(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"created"}`))
	}))

	reg := account.NewRegistration("ada@example.com", "longenough")
	require.NoError(t, client.Register(context.Background(), reg))
	require.Equal(t, "/users/auth/users/register/", gotPath)
	require.Equal(t, map[string]string{
		"username": "ada@example.com", "email": "ada@example.com",
		"password": "longenough", "re_password": "longenough",
	}, gotBody)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	err := client.Register(context.Background(), account.NewRegistration("ada@example.com", "short"))
	require.ErrorIs(t, err, account.ErrIncompleteRegistration)
}

func TestLogoutReturnsMessage(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/auth/users/logout/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", MaxAge: -1, Path: "/"})
		_, _ = w.Write([]byte(`{"message":"signed out"}`))
	}))

	msg, err := client.Logout(context.Background())
	require.NoError(t, err)
	require.Equal(t, "signed out", msg)
}

func TestProfileDecodes(t *testing.T) {
	t.Parallel()

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/api/profile/", r.URL.Path)
		_, _ = w.Write([]byte(`{"username":"ada","email":"ada@example.com","profile_image":"/media/ada.png"}`))
	}))

	p, err := client.Profile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ada", p.Username)
	require.Equal(t, "ada@example.com", p.Email)
	require.Equal(t, "/media/ada.png", p.Image)
}
