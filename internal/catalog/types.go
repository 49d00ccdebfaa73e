package catalog

import "gopkg.in/yaml.v3"

// KeyPolicy controls which credential may be used for a model.
// AllowUserKey=false means the platform key is the only option;
// UserKeyOnly=true means a user-supplied key is required.
type KeyPolicy struct {
	AllowUserKey bool `yaml:"allow_user_key" json:"allow_user_key"`
	UserKeyOnly  bool `yaml:"user_key_only" json:"user_key_only"`
}

// ModelDefinition is one entry in the static model catalog.
// Immutable for the lifetime of a request.
type ModelDefinition struct {
	// Model identifier (set during YAML unmarshaling from the map key)
	ID string `yaml:"-" json:"id"`

	// Provider tag (set from the enclosing file)
	Provider string `yaml:"-" json:"provider"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description,omitempty"`

	KeyPolicy KeyPolicy `yaml:"key_policy" json:"key_policy"`

	// Capability flags
	SupportsReasoning bool `yaml:"supports_reasoning" json:"supports_reasoning"`
	SupportsTools     bool `yaml:"supports_tools" json:"supports_tools"`
	SupportsVision    bool `yaml:"supports_vision" json:"supports_vision"`

	// Limits
	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`
}

// providerModels represents all models for a provider file
type providerModels struct {
	Provider string            `yaml:"provider"`
	Models   []ModelDefinition `yaml:"-"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve model order
// from the YAML file (maps lose order).
func (p *providerModels) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "provider" {
			p.Provider = node.Content[i+1].Value
			break
		}
	}

	// Decode models into a map first to get the full data
	type modelsOnly struct {
		Models map[string]ModelDefinition `yaml:"models"`
	}
	var m modelsOnly
	if err := node.Decode(&m); err != nil {
		return err
	}

	// Extract model keys in YAML order and build the slice
	for i := 0; i < len(node.Content); i += 2 {
		if node.Content[i].Value == "models" {
			modelsNode := node.Content[i+1]
			// modelsNode.Content alternates: key, value, key, value...
			for j := 0; j < len(modelsNode.Content); j += 2 {
				modelID := modelsNode.Content[j].Value
				if model, ok := m.Models[modelID]; ok {
					model.ID = modelID
					model.Provider = p.Provider
					p.Models = append(p.Models, model)
				}
			}
			break
		}
	}

	return nil
}
