package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shivanshkc/oidcflow/internal/utils/httputils"
)

// Middleware implements all the REST middleware methods.
type Middleware struct{}

// Recovery turns a panicking request into a 500 response.
func (m Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			// Recover the panic.
			errAny := recover()
			if errAny == nil {
				return
			}

			slog.ErrorContext(r.Context(), "panic occurred during request execution",
				"err", errAny, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))

			// Anything that is not an *errutils.HTTPError becomes a 500.
			err, ok := errAny.(error)
			if !ok {
				err = fmt.Errorf("recover returned a non-error type value: %v", errAny)
			}
			httputils.WriteErr(w, err)
		}()

		// Next middleware or handler.
		next.ServeHTTP(w, r)
	})
}
