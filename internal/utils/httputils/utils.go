package httputils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shivanshkc/oidcflow/internal/utils/errutils"
)

// Is2xx returns true if the provided status code is in the 2xx range.
func Is2xx(status int) bool {
	return status >= 200 && status <= 299
}

// Write writes the given status, headers and JSON encoded body to the response writer.
func Write(w http.ResponseWriter, status int, headers map[string]string, body any) {
	for k, v := range headers {
		w.Header().Set(k, v)
	}

	if body == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}

// WriteHTML writes a plain HTML page. It is used for the pages a browser lands on.
func WriteHTML(w http.ResponseWriter, status int, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(page)); err != nil {
		slog.Error("failed to write response body", "err", err)
	}
}

// WriteErr writes the given error as a JSON response.
//
// Errors that are not *errutils.HTTPError are reported as internal server errors.
func WriteErr(w http.ResponseWriter, err error) {
	var httpErr *errutils.HTTPError
	if !errors.As(err, &httpErr) {
		slog.Error("unexpected error", "err", err)
		httpErr = errutils.InternalServerError()
	}

	Write(w, httpErr.Status, nil, httpErr)
}
