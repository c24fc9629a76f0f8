package backend_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/storefront-web/internal/backend"
)

func newRequestWithCookies(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/shop", nil)
	for _, ck := range cookies {
		r.AddCookie(ck)
	}
	return r
}

func TestClientForwardsCookiesAndCSRFHeader(t *testing.T) {
	t.Parallel()

	var gotCSRF, gotAccess string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotCSRF = r.Header.Get("X-CSRFToken")
		if ck, err := r.Cookie("access_token"); err == nil {
			gotAccess = ck.Value
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies(
		&http.Cookie{Name: "csrftoken", Value: "tok-123"},
		&http.Cookie{Name: "access_token", Value: "jwt-abc"},
	))

	var out struct {
		Message string `json:"message"`
	}
	require.NoError(t, api.Post(context.Background(), "orders/add-to-cart/", map[string]string{"product_id": "p1"}, &out))
	require.Equal(t, "ok", out.Message)
	require.Equal(t, "tok-123", gotCSRF)
	require.Equal(t, "jwt-abc", gotAccess)
}

func TestClientOmitsCSRFHeaderOnSafeMethods(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("X-CSRFToken"))
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies(&http.Cookie{Name: "csrftoken", Value: "tok"}))
	require.NoError(t, api.Get(context.Background(), "products/products-list/shop/", nil, nil))
}

func TestClientRefreshesOnceAndRetries(t *testing.T) {
	t.Parallel()

	var refreshCalls, listCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/auth/jwt/refresh/":
			atomic.AddInt32(&refreshCalls, 1)
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "renewed"})
			_, _ = w.Write([]byte(`{"access":"renewed"}`))
		case "/orders/items-list/cart/":
			n := atomic.AddInt32(&listCalls, 1)
			if n == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			ck, err := r.Cookie("access_token")
			require.NoError(t, err)
			require.Equal(t, "renewed", ck.Value)
			_, _ = w.Write([]byte(`{"items":[]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies(&http.Cookie{Name: "access_token", Value: "stale"}))

	require.NoError(t, api.Get(context.Background(), "orders/items-list/cart/", nil, nil))
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
	require.EqualValues(t, 2, atomic.LoadInt32(&listCalls))

	// The renewed cookie is available to relay back to the browser.
	issued := api.IssuedCookies()
	require.Len(t, issued, 1)
	require.Equal(t, "access_token", issued[0].Name)
	require.Equal(t, "renewed", issued[0].Value)
}

func TestClientSecondUnauthorizedIsTerminal(t *testing.T) {
	t.Parallel()

	var refreshCalls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/auth/jwt/refresh/" {
			atomic.AddInt32(&refreshCalls, 1)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies())

	err = api.Get(context.Background(), "orders/items-list/cart/", nil, nil)
	require.ErrorIs(t, err, backend.ErrSessionExpired)
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestClientFailedRefreshIsSessionExpired(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies())

	err = api.Get(context.Background(), "orders/items-list/cart/", nil, nil)
	require.ErrorIs(t, err, backend.ErrSessionExpired)
}

func TestClientConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	t.Parallel()

	var refreshCalls int32
	var allowed sync.Map
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/auth/jwt/refresh/" {
			atomic.AddInt32(&refreshCalls, 1)
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "renewed"})
			_, _ = w.Write([]byte(`{}`))
			return
		}
		if ck, err := r.Cookie("access_token"); err == nil && ck.Value == "renewed" {
			allowed.Store(r.URL.Path, true)
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies(&http.Cookie{Name: "access_token", Value: "stale"}))

	var wg sync.WaitGroup
	paths := []string{"orders/items-list/cart/", "products/products-list/shop/", "products/api/bestseller/"}
	errs := make([]error, len(paths))
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			errs[i] = api.Get(context.Background(), p, nil, nil)
		}(i, p)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))
}

func TestClientSurfacesBackendMessage(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Quantity must be greater than zero"}`))
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies())

	err = api.Put(context.Background(), "orders/items-list/cart/7/", map[string]int{"quantity_change": -1}, nil)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.Equal(t, "Quantity must be greater than zero", apiErr.UserMessage())
}

func TestClientGenericMessageWhenBodyIsNotJSON(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	t.Cleanup(ts.Close)

	client, err := backend.NewClient(ts.URL, ts.Client())
	require.NoError(t, err)
	api := client.ForRequest(newRequestWithCookies())

	err = api.Get(context.Background(), "products/products-list/shop/", nil, nil)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "HTTP 502", apiErr.UserMessage())
}
