package httputil

import (
	"encoding/json"
	"net/http"
)

// RespondJSON writes a JSON response with the given status code.
// It marshals first so an encoding failure cannot produce a partial body
// after headers are sent.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// RespondError writes a `{"error": detail}` JSON error response.
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondJSON(w, status, map[string]string{"error": detail})
}

// RespondErrorCode writes a `{"error": detail, "code": code}` response,
// used for machine-readable failures like LIMIT_REACHED.
func RespondErrorCode(w http.ResponseWriter, status int, detail, code string) {
	RespondJSON(w, status, map[string]string{"error": detail, "code": code})
}

// RespondErrorMessage writes a `{"error": code, "message": message}` response,
// used when the error field itself is a machine-readable code.
func RespondErrorMessage(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, map[string]string{"error": code, "message": message})
}

// RespondTypedError writes a structured `{"error": {"type", "message"}}`
// payload for classified failures surfaced synchronously.
func RespondTypedError(w http.ResponseWriter, status int, errType, message string) {
	RespondJSON(w, status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
