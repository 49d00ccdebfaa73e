package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"strand/internal/catalog"
	"strand/internal/domain"
	"strand/internal/domain/models"
	"strand/internal/domain/repositories"
)

// CredentialSource identifies where an attempt's API key came from.
type CredentialSource string

const (
	SourcePlatform CredentialSource = "platform"
	SourceUser     CredentialSource = "user"
)

// Credential is one usable key for a provider.
type Credential struct {
	Source CredentialSource
	Key    string
}

// CredentialDecision is the resolved key choice for one turn: the
// primary credential and, when the complement exists, the fallback.
// Computed once per request and never persisted.
type CredentialDecision struct {
	Primary  Credential
	Fallback *Credential
}

// UsesUserKey reports whether the primary attempt bills the user's key.
func (d *CredentialDecision) UsesUserKey() bool {
	return d.Primary.Source == SourceUser
}

// ErrUserKeyRequired signals a user-key-only model with no stored key.
// No generation attempt is made.
var ErrUserKeyRequired = fmt.Errorf("user API key required: %w", domain.ErrUnauthorized)

// CredentialResolver decides which API credential each request uses,
// honoring the model's key policy and the user's priority/fallback
// preference.
type CredentialResolver struct {
	store        repositories.ChatStore
	platformKeys map[string]string
	logger       *slog.Logger
}

// NewCredentialResolver creates a resolver over the store and the
// platform keys configured per provider.
func NewCredentialResolver(store repositories.ChatStore, platformKeys map[string]string, logger *slog.Logger) *CredentialResolver {
	return &CredentialResolver{
		store:        store,
		platformKeys: platformKeys,
		logger:       logger,
	}
}

// Resolve computes the credential decision for one turn.
func (r *CredentialResolver) Resolve(ctx context.Context, userID string, model *catalog.ModelDefinition) (*CredentialDecision, error) {
	platformKey := r.platformKeys[model.Provider]

	if !model.KeyPolicy.AllowUserKey {
		return &CredentialDecision{
			Primary: Credential{Source: SourcePlatform, Key: platformKey},
		}, nil
	}

	userKey, mode, err := r.fetchUserKey(ctx, userID, model.Provider)
	if err != nil {
		return nil, err
	}
	hasUserKey := userKey != ""

	if model.KeyPolicy.UserKeyOnly && !hasUserKey {
		return nil, fmt.Errorf("model %s: %w", model.ID, ErrUserKeyRequired)
	}

	useUserKey := (model.KeyPolicy.UserKeyOnly && hasUserKey) ||
		(mode == models.KeyModePriority && hasUserKey)

	decision := &CredentialDecision{}
	if useUserKey {
		decision.Primary = Credential{Source: SourceUser, Key: userKey}
		// The platform key always exists, but a user-key-only model
		// cannot fall back to it.
		if !model.KeyPolicy.UserKeyOnly {
			decision.Fallback = &Credential{Source: SourcePlatform, Key: platformKey}
		}
	} else {
		decision.Primary = Credential{Source: SourcePlatform, Key: platformKey}
		if hasUserKey {
			decision.Fallback = &Credential{Source: SourceUser, Key: userKey}
		}
	}

	return decision, nil
}

// fetchUserKey loads and decrypts the user's key for a provider. A
// missing key is not an error here; policy decides that upstream.
func (r *CredentialResolver) fetchUserKey(ctx context.Context, userID, provider string) (key, mode string, err error) {
	entry, err := r.store.GetKeyEntry(ctx, userID, provider)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("fetch key entry: %w", err)
	}

	key, err = r.store.GetDecryptedKey(ctx, userID, provider)
	if err != nil {
		r.logger.Warn("stored user key could not be decrypted, ignoring",
			"provider", provider,
			"error", err)
		return "", "", nil
	}

	return key, entry.Mode, nil
}
