package middleware

import (
	"net/http"
)

// accessCookieName is the backend's JWT access cookie.
const accessCookieName = "access_token"

// DetectAuth flags requests that carry the backend's credential cookie so
// templates can branch between the account and login affordances. It never
// validates the token; an expired cookie still renders the signed-in chrome
// and the first backend call settles the truth.
func DetectAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie(accessCookieName)
		ctx := WithSignedIn(r.Context(), err == nil)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
