package handler

import (
	"net/http"
	"net/url"

	"github.com/shivanshkc/oidcflow/internal/flow"
	"github.com/shivanshkc/oidcflow/internal/utils/errutils"
	"github.com/shivanshkc/oidcflow/internal/utils/httputils"
)

// Completer hands the outcome of the interactive step back to a flow.
type Completer interface {
	Complete(requestCode string, status flow.ResultStatus, redirect *url.URL) error
}

// RequestCoder tells which request code the flow is currently waiting for.
type RequestCoder interface {
	RequestCode() string
}

// Handler encapsulates all REST handlers of the redirect receiver.
type Handler struct {
	completer Completer
	codes     RequestCoder
}

// NewHandler creates a new Handler instance.
func NewHandler(completer Completer, codes RequestCoder) *Handler {
	return &Handler{completer: completer, codes: codes}
}

// NotFound handler can be used to serve any unrecognized routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	httputils.WriteErr(w, errutils.NotFound())
}

// Health returns 200 if everything is running fine.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{}
	httputils.Write(w, http.StatusOK, nil, info)
}
