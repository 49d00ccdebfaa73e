package catalog

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the static model catalog, loaded once at startup from
// embedded per-provider YAML files. Read-only after construction.
type Registry struct {
	models  []ModelDefinition
	byID    map[string]*ModelDefinition
	sources []string
}

// NewRegistry creates a registry and loads the embedded provider files.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		byID: make(map[string]*ModelDefinition),
	}

	for _, provider := range []string{"anthropic", "openai", "google", "lorem"} {
		if err := r.loadProviderFile(provider); err != nil {
			return nil, fmt.Errorf("failed to load %s catalog: %w", provider, err)
		}
	}

	return r, nil
}

// loadProviderFile loads one provider's model definitions
func (r *Registry) loadProviderFile(provider string) error {
	filename := fmt.Sprintf("config/%s.yaml", provider)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var pm providerModels
	if err := yaml.Unmarshal(data, &pm); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	for i := range pm.Models {
		r.models = append(r.models, pm.Models[i])
	}
	// Index after append so pointers reference the final slice copies
	for i := range r.models {
		r.byID[r.models[i].ID] = &r.models[i]
	}
	r.sources = append(r.sources, provider)

	return nil
}

// Lookup returns the definition for a model ID, or false if unknown.
func (r *Registry) Lookup(modelID string) (*ModelDefinition, bool) {
	def, ok := r.byID[modelID]
	return def, ok
}

// List returns all models in catalog order.
func (r *Registry) List() []ModelDefinition {
	out := make([]ModelDefinition, len(r.models))
	copy(out, r.models)
	return out
}

// Providers returns the provider tags loaded into the catalog.
func (r *Registry) Providers() []string {
	out := make([]string, len(r.sources))
	copy(out, r.sources)
	return out
}
