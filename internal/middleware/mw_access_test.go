package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessLogger(t *testing.T) {
	// Capture the log output.
	buf := &bytes.Buffer{}
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	handler := Middleware{}.AccessLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/callback?code=secret-code&state=xyz", nil)

	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusTeapot, w.Code, "Middleware must not alter the status code")

	line := buf.String()
	require.Contains(t, line, "path=/callback")
	require.Contains(t, line, "status=418")
	require.NotContains(t, line, "secret-code", "Query must never be logged")
}

func TestRecovery(t *testing.T) {
	handler := Middleware{}.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("mock panic")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/callback", nil)

	require.NotPanics(t, func() { handler.ServeHTTP(w, r) })
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
