package middleware

import (
	"net/http"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Logger emits one structured log line per request.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := NewResponseRecorder(w)
			next.ServeHTTP(rw, r)

			evt := log.Info()
			if rw.Status() >= 500 {
				evt = log.Error()
			}
			evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.Status()).
				Dur("duration", time.Since(start)).
				Int64("bytes", rw.BytesWritten()).
				Str("remote_ip", clientIP(r)).
				Bool("htmx", IsHTMX(r.Context()))
			if rid := chiMid.GetReqID(r.Context()); rid != "" {
				evt = evt.Str("request_id", rid)
			}
			evt.Msg("request")
		})
	}
}

func clientIP(r *http.Request) string {
	// Behind a trusted proxy chi's RealIP has already rewritten RemoteAddr.
	host := r.RemoteAddr
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == ':' {
			return host[:i]
		}
	}
	return host
}
