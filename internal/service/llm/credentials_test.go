package llm

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"strand/internal/domain/models"
)

func testResolver(store *fakeStore) *CredentialResolver {
	platformKeys := map[string]string{
		"anthropic": "platform-anthropic",
		"openai":    "platform-openai",
	}
	return NewCredentialResolver(store, platformKeys, slog.Default())
}

func TestResolve_PlatformOnlyModel(t *testing.T) {
	registry := testRegistry(t)
	store := newFakeStore()
	store.addUserKey("openai", "user-key", models.KeyModePriority)

	// gpt-4o-mini forbids user keys; the stored key must be ignored
	model, _ := registry.Lookup("gpt-4o-mini")
	decision, err := testResolver(store).Resolve(context.Background(), "u1", model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.Primary.Source != SourcePlatform {
		t.Errorf("primary source = %s, want platform", decision.Primary.Source)
	}
	if decision.Fallback != nil {
		t.Error("platform-only model must have no fallback")
	}
}

func TestResolve_UserKeyOnlyWithoutKey(t *testing.T) {
	registry := testRegistry(t)
	model, _ := registry.Lookup("claude-opus-4-1")

	_, err := testResolver(newFakeStore()).Resolve(context.Background(), "u1", model)
	if !errors.Is(err, ErrUserKeyRequired) {
		t.Fatalf("error = %v, want ErrUserKeyRequired", err)
	}
}

func TestResolve_UserKeyOnlyWithKey(t *testing.T) {
	registry := testRegistry(t)
	store := newFakeStore()
	store.addUserKey("anthropic", "user-key", models.KeyModeFallback)

	model, _ := registry.Lookup("claude-opus-4-1")
	decision, err := testResolver(store).Resolve(context.Background(), "u1", model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.Primary.Source != SourceUser || decision.Primary.Key != "user-key" {
		t.Errorf("primary = %+v, want the user key", decision.Primary)
	}
	if decision.Fallback != nil {
		t.Error("user-key-only model must not fall back to the platform key")
	}
}

func TestResolve_PriorityAndFallbackModes(t *testing.T) {
	registry := testRegistry(t)

	tests := []struct {
		name         string
		mode         string
		wantPrimary  CredentialSource
		wantFallback CredentialSource
	}{
		{"priority mode prefers user key", models.KeyModePriority, SourceUser, SourcePlatform},
		{"fallback mode prefers platform key", models.KeyModeFallback, SourcePlatform, SourceUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addUserKey("anthropic", "user-key", tt.mode)

			model, _ := registry.Lookup("claude-haiku-4-5")
			decision, err := testResolver(store).Resolve(context.Background(), "u1", model)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if decision.Primary.Source != tt.wantPrimary {
				t.Errorf("primary source = %s, want %s", decision.Primary.Source, tt.wantPrimary)
			}
			if decision.Fallback == nil {
				t.Fatal("expected a fallback credential")
			}
			if decision.Fallback.Source != tt.wantFallback {
				t.Errorf("fallback source = %s, want %s", decision.Fallback.Source, tt.wantFallback)
			}
		})
	}
}

func TestResolve_NoUserKeyMeansNoFallback(t *testing.T) {
	registry := testRegistry(t)
	model, _ := registry.Lookup("claude-haiku-4-5")

	decision, err := testResolver(newFakeStore()).Resolve(context.Background(), "u1", model)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if decision.Primary.Source != SourcePlatform {
		t.Errorf("primary source = %s, want platform", decision.Primary.Source)
	}
	if decision.Fallback != nil {
		t.Error("no configured user key, so no fallback should exist")
	}
}
