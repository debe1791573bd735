package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "configs/vocabulary.yaml", cfg.Registry.VocabularyPath)
	assert.Equal(t, "configs/question_mapping.yaml", cfg.Registry.QuestionMappingPath)
	assert.False(t, cfg.Registry.Watch)
	assert.Equal(t, BackendHTTP, cfg.Graph.Backend)
	assert.Equal(t, "http://localhost:8080", cfg.Graph.HTTP.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Graph.HTTP.Timeout)
	assert.Equal(t, "graph.ingest.entity", cfg.Graph.NATS.Subject)
	assert.Equal(t, ":8090", cfg.API.ListenAddr)

	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing vocabulary path",
			mutate:  func(c *Config) { c.Registry.VocabularyPath = "" },
			wantErr: "registry.vocabulary_path",
		},
		{
			name:    "missing question mapping path",
			mutate:  func(c *Config) { c.Registry.QuestionMappingPath = "" },
			wantErr: "registry.question_mapping_path",
		},
		{
			name:    "http backend without base url",
			mutate:  func(c *Config) { c.Graph.HTTP.BaseURL = "" },
			wantErr: "graph.http.base_url",
		},
		{
			name: "nats backend without url",
			mutate: func(c *Config) {
				c.Graph.Backend = BackendNATS
				c.Graph.NATS.URL = ""
			},
			wantErr: "graph.nats.url",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Graph.Backend = "carrier-pigeon" },
			wantErr: "graph.backend",
		},
		{
			name:   "echo backend needs nothing",
			mutate: func(c *Config) { c.Graph.Backend = BackendEcho },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semsurvey.yaml")
	data := `
registry:
  vocabulary_path: /etc/semsurvey/vocabulary.yaml
graph:
  backend: nats
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/semsurvey/vocabulary.yaml", cfg.Registry.VocabularyPath)
	assert.Equal(t, BackendNATS, cfg.Graph.Backend)
	// Untouched fields keep their defaults.
	assert.Equal(t, "configs/question_mapping.yaml", cfg.Registry.QuestionMappingPath)
	assert.Equal(t, "nats://localhost:4222", cfg.Graph.NATS.URL)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Graph.HTTP.APIKey = "secret"
	cfg.Registry.Watch = true
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", loaded.Graph.HTTP.APIKey)
	assert.True(t, loaded.Registry.Watch)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()

	base.Merge(&Config{
		Registry: RegistryConfig{QuestionMappingPath: "/custom/questions.yaml", Watch: true},
		Graph: GraphConfig{
			Backend: BackendNATS,
			NATS:    NATSBackendConfig{URL: "nats://broker:4222"},
		},
		API: APIConfig{ListenAddr: ":9999"},
	})

	assert.Equal(t, "/custom/questions.yaml", base.Registry.QuestionMappingPath)
	assert.True(t, base.Registry.Watch)
	assert.Equal(t, BackendNATS, base.Graph.Backend)
	assert.Equal(t, "nats://broker:4222", base.Graph.NATS.URL)
	assert.Equal(t, ":9999", base.API.ListenAddr)
	// Zero values in the overlay leave the base alone.
	assert.Equal(t, "configs/vocabulary.yaml", base.Registry.VocabularyPath)
	assert.Equal(t, "http://localhost:8080", base.Graph.HTTP.BaseURL)

	// Merging nil is a no-op.
	base.Merge(nil)
	assert.Equal(t, ":9999", base.API.ListenAddr)
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("SEMSURVEY_GRAPH_BACKEND", BackendEcho)
	t.Setenv("SEMSURVEY_VOCABULARY_PATH", "/env/vocabulary.yaml")
	t.Setenv("SEMSURVEY_GRAPH_TIMEOUT", "30s")
	t.Setenv("SEMSURVEY_LISTEN_ADDR", ":7777")

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)

	assert.Equal(t, BackendEcho, cfg.Graph.Backend)
	assert.Equal(t, "/env/vocabulary.yaml", cfg.Registry.VocabularyPath)
	assert.Equal(t, 30*time.Second, cfg.Graph.HTTP.Timeout)
	assert.Equal(t, ":7777", cfg.API.ListenAddr)
}

func TestLoaderIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv("SEMSURVEY_GRAPH_TIMEOUT", "not-a-duration")

	cfg, err := NewLoader(nil).Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Graph.HTTP.Timeout)
}
