// Package respond writes the portal's JSON envelopes. Every endpoint
// returns either {"success":true, ...payload} or
// {"success":false, "message":..., "error":...}.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/json; charset=utf-8"

// ErrorBody is the failure envelope. Error carries the underlying failure
// message and is only populated in development and test environments.
type ErrorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope. The payload map is merged with
// {"success": true}; a "success" key in the payload is overwritten.
func JSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["success"] = true
	write(w, status, body)
}

// Error writes a failure envelope and logs it through the request logger.
// 5xx responses log at error level, 4xx at warn.
func Error(w http.ResponseWriter, r *http.Request, status int, message string, err error, env string) {
	body := ErrorBody{Success: false, Message: message}
	if err != nil && (env == "development" || env == "test") {
		body.Error = err.Error()
	}

	if r != nil && err != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Err(err).
			Int("status", status).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg(message)
	}

	write(w, status, body)
}

func write(w http.ResponseWriter, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
