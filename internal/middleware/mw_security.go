package middleware

import (
	"net/http"
)

const (
	xContentTypeOptions = "X-Content-Type-Options"
	cacheControl        = "Cache-Control"
	referrerPolicy      = "Referrer-Policy"
)

// Security adds the headers every page of the redirect receiver needs.
//
// The callback URL carries the authorization code and state, so it must neither be cached by the
// browser nor leak through the Referer header of anything the landing page loads.
func (m Middleware) Security(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(xContentTypeOptions, "nosniff")
		w.Header().Set(cacheControl, "no-store, max-age=0")
		w.Header().Set(referrerPolicy, "no-referrer")

		next.ServeHTTP(w, r)
	})
}
