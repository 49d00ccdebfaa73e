package catalog

import "testing"

func TestNewRegistry(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	if len(registry.List()) == 0 {
		t.Fatal("catalog loaded no models")
	}

	providers := registry.Providers()
	want := []string{"anthropic", "openai", "google", "lorem"}
	if len(providers) != len(want) {
		t.Fatalf("providers = %v, want %v", providers, want)
	}
	for i := range want {
		if providers[i] != want[i] {
			t.Errorf("providers[%d] = %s, want %s", i, providers[i], want[i])
		}
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	tests := []struct {
		id           string
		wantProvider string
	}{
		{"claude-haiku-4-5", "anthropic"},
		{"gpt-4o-mini", "openai"},
		{"gemini-2.5-flash", "google"},
		{"lorem-fast", "lorem"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			def, ok := registry.Lookup(tt.id)
			if !ok {
				t.Fatalf("model %s not found", tt.id)
			}
			if def.ID != tt.id {
				t.Errorf("ID = %s, want %s", def.ID, tt.id)
			}
			if def.Provider != tt.wantProvider {
				t.Errorf("provider = %s, want %s", def.Provider, tt.wantProvider)
			}
			if def.DisplayName == "" {
				t.Error("display name is empty")
			}
		})
	}

	if _, ok := registry.Lookup("gpt-99-ultra"); ok {
		t.Error("unknown model resolved")
	}
}

func TestRegistry_KeyPolicies(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	tests := []struct {
		id               string
		wantAllowUserKey bool
		wantUserKeyOnly  bool
	}{
		{"claude-haiku-4-5", true, false},
		{"claude-opus-4-1", true, true},
		{"gpt-4o-mini", false, false},
		{"lorem-fast", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			def, ok := registry.Lookup(tt.id)
			if !ok {
				t.Fatalf("model %s not found", tt.id)
			}
			if def.KeyPolicy.AllowUserKey != tt.wantAllowUserKey {
				t.Errorf("AllowUserKey = %v, want %v", def.KeyPolicy.AllowUserKey, tt.wantAllowUserKey)
			}
			if def.KeyPolicy.UserKeyOnly != tt.wantUserKeyOnly {
				t.Errorf("UserKeyOnly = %v, want %v", def.KeyPolicy.UserKeyOnly, tt.wantUserKeyOnly)
			}
		})
	}
}

// Models must come back in file order, not map order.
func TestRegistry_ListPreservesOrder(t *testing.T) {
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	models := registry.List()
	providerRank := map[string]int{"anthropic": 0, "openai": 1, "google": 2, "lorem": 3}

	lastRank := 0
	for _, m := range models {
		rank, ok := providerRank[m.Provider]
		if !ok {
			t.Fatalf("model %s has unexpected provider %s", m.ID, m.Provider)
		}
		if rank < lastRank {
			t.Fatalf("model %s out of provider order", m.ID)
		}
		lastRank = rank
	}
}
