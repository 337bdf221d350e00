// Package httputil centralizes JSON encoding and domain error translation so
// handlers stay thin and error envelopes stay consistent.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "roboreg/pkg/domain-errors"
)

// Normalizer lets request types trim and canonicalize fields before validation.
type Normalizer interface {
	Normalize()
}

// Validator lets request types reject malformed payloads before they reach a service.
type Validator interface {
	Validate() error
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into an HTTP response. Internal error
// messages are never echoed to clients; everything else carries an
// error_description so callers can surface the reason.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	status := statusFor(code)

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			body["error_description"] = de.Message
		}
	}
	WriteJSON(w, status, body)
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes a JSON request body into T, then runs Normalize and
// Validate when T implements them. On failure it writes the error response and
// returns ok=false; the handler should simply return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return req, false
	}
	if n, ok := any(&req).(Normalizer); ok {
		n.Normalize()
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, err.Error()))
			return req, false
		}
	}
	return req, true
}
