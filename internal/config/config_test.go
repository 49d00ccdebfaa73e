package config

import "testing"

func TestLoad_DebugDefaults(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		debugVar  string
		wantDebug bool
	}{
		{"dev defaults to debug", "dev", "", true},
		{"test defaults to debug", "test", "", true},
		{"prod defaults to no debug", "prod", "", false},
		{"explicit override wins in prod", "prod", "true", true},
		{"explicit override wins in dev", "dev", "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("DEBUG", tt.debugVar)

			cfg := Load()
			if cfg.Debug != tt.wantDebug {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.wantDebug)
			}
		})
	}
}

func TestLoad_TablePrefix(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		override string
		want     string
	}{
		{"dev prefix", "dev", "", "dev_"},
		{"test prefix", "test", "", "test_"},
		{"prod prefix", "prod", "", "prod_"},
		{"explicit override wins", "prod", "custom_", "custom_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("TABLE_PREFIX", tt.override)

			cfg := Load()
			if cfg.TablePrefix != tt.want {
				t.Errorf("TablePrefix = %q, want %q", cfg.TablePrefix, tt.want)
			}
		})
	}
}
