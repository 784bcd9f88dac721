// Package errutils provides the HTTP error type written by the redirect receiver.
package errutils

import (
	"fmt"
	"net/http"
)

// HTTPError is an error that maps onto an HTTP response.
type HTTPError struct {
	Status int    `json:"-"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}

func (h *HTTPError) Error() string {
	if h.Reason == "" {
		return fmt.Sprintf("%d %s", h.Status, h.Code)
	}
	return fmt.Sprintf("%d %s: %s", h.Status, h.Code, h.Reason)
}

// WithReasonStr returns a copy of the error with the given reason.
func (h *HTTPError) WithReasonStr(reason string) *HTTPError {
	c := *h
	c.Reason = reason
	return &c
}

// WithReasonErr returns a copy of the error with the error message as the reason.
func (h *HTTPError) WithReasonErr(err error) *HTTPError {
	return h.WithReasonStr(err.Error())
}

func newHTTPError(status int) *HTTPError {
	return &HTTPError{Status: status, Code: http.StatusText(status)}
}

// BadRequest is for malformed requests.
func BadRequest() *HTTPError { return newHTTPError(http.StatusBadRequest) }

// NotFound is for unknown routes and unknown flow requests.
func NotFound() *HTTPError { return newHTTPError(http.StatusNotFound) }

// Gone is for requests that reach a flow that was already torn down.
func Gone() *HTTPError { return newHTTPError(http.StatusGone) }

// InternalServerError is for everything unexpected.
func InternalServerError() *HTTPError { return newHTTPError(http.StatusInternalServerError) }
