package middleware

import "net/http"

// htmx sets HX-Request on every request it issues; boosted link navigation
// still expects a full page, so it does not count as a fragment request.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Boosted") != "true"
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), is)))
	})
}
