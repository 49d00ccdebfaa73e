package models

import "time"

// API key modes: whether a personally supplied key is preferred over or
// deferred to the platform's shared key.
const (
	KeyModePriority = "priority"
	KeyModeFallback = "fallback"
)

// APIKeyEntry is the metadata for one stored user API key.
// The key material itself never leaves the store unencrypted except via
// GetDecryptedKey at request time.
type APIKeyEntry struct {
	Provider   string    `json:"provider" db:"provider"`
	Mode       string    `json:"mode" db:"mode"` // "priority" or "fallback"
	UsageCount int       `json:"usage_count" db:"usage_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
