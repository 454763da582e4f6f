// Package respond writes the JSON envelope shared by every endpoint:
// {"success": bool, "message": string, ...payload}.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
	"masterboxer.com/project-instaclone/apperrors"
	"masterboxer.com/project-instaclone/logger"
)

// Payload holds the extra top-level fields of a response
type Payload map[string]any

// JSON writes body with the given status
func JSON(w http.ResponseWriter, status int, body Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Get().Warn("Failed to encode response", zap.Error(err))
	}
}

// Success writes a successful envelope
func Success(w http.ResponseWriter, status int, message string, payload Payload) {
	body := Payload{"success": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	JSON(w, status, body)
}

// Error maps err to its status and writes a failed envelope.
// Internal errors are logged with their cause and answered generically.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindInternal {
		logger.Get().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	JSON(w, apperrors.HTTPStatus(kind), Payload{
		"success": false,
		"message": apperrors.MessageOf(err),
	})
}
