package web

// errors.go provides unified error responses for the web layer.
//
// Every handler error flows through respondError:
//  1. The status is chosen from the error kind (statusFor)
//  2. core.MapError supplies the user message, action and code
//  3. The technical error is logged with the request id
//  4. An ErrorResponse is written as JSON
//
// Classified errors carry their text in Detail so callers see upstream
// failures unmasked. Unclassified errors never leak their text.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/sheetserve/internal/core"
	"github.com/JonMunkholm/sheetserve/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error     string   `json:"error"`
	Message   string   `json:"message"`
	Action    string   `json:"action,omitempty"`
	Code      string   `json:"code"`
	Detail    string   `json:"detail,omitempty"`
	Available []string `json:"available,omitempty"`
}

// statusFor maps an error to its HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrMalformedRange), errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyFetches):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes it as an ErrorResponse.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	log := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.Error("request error", attrs...)
	} else {
		log.Info("request rejected", attrs...)
	}

	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	if status != http.StatusInternalServerError {
		resp.Detail = err.Error()
	}
	var nf *core.NotFoundError
	if errors.As(err, &nf) {
		resp.Available = nf.Available
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, resp)
}
