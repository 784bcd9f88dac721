package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shivanshkc/oidcflow/internal/flow"
	"github.com/shivanshkc/oidcflow/internal/utils/errutils"
	"github.com/shivanshkc/oidcflow/internal/utils/httputils"
)

const (
	callbackPage = `<!DOCTYPE html><html><head><title>Signed in</title></head>` +
		`<body><p>Sign-in received. You can close this tab and return to the application.</p></body></html>`
	cancelPage = `<!DOCTYPE html><html><head><title>Canceled</title></head>` +
		`<body><p>Sign-in canceled. You can close this tab.</p></body></html>`
)

// Callback receives the provider redirect and forwards it to the waiting flow.
//
// The redirect is forwarded as is. Errors carried in it, a missing code or a bad state are all
// judged by the flow and reported through its callback, not here.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.completer.Complete(h.codes.RequestCode(), flow.ResultOK, r.URL); err != nil {
		slog.ErrorContext(ctx, "failed to complete the flow", "err", err)
		httputils.WriteErr(w, completionErr(err))
		return
	}

	httputils.WriteHTML(w, http.StatusOK, callbackPage)
}

// Cancel lets the user abandon the interactive step.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.completer.Complete(h.codes.RequestCode(), flow.ResultCanceled, nil); err != nil {
		slog.ErrorContext(ctx, "failed to cancel the flow", "err", err)
		httputils.WriteErr(w, completionErr(err))
		return
	}

	httputils.WriteHTML(w, http.StatusOK, cancelPage)
}

// completionErr maps a Flow.Complete error onto the HTTP error shown to the browser.
func completionErr(err error) error {
	switch {
	case errors.Is(err, flow.ErrUnknownRequest):
		return errutils.NotFound().WithReasonStr("no sign-in is waiting for this redirect")
	case errors.Is(err, flow.ErrClosed):
		return errutils.Gone().WithReasonStr("the sign-in attempt is already over")
	default:
		return err
	}
}
