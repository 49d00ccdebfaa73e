package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 10 << 20

// ParseJSON decodes the request body into dest. The body is size-capped;
// unknown fields are tolerated because validation happens downstream on
// the typed request.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
