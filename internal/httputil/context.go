package httputil

import (
	"context"
	"net/http"
)

// Unexported key type so no other package can collide with our values.
type userIDKey struct{}

// WithUserID returns a request whose context carries the authenticated
// user ID. Set by the auth middleware.
func WithUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey{}, userID))
}

// GetUserID returns the authenticated user ID, or "" when the request
// never passed through the auth middleware.
func GetUserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey{}).(string)
	return id
}
