// Package config provides configuration loading and management for semsurvey.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names for the graph writer.
const (
	// BackendHTTP posts payloads to the remote graph backend over HTTP.
	BackendHTTP = "http"
	// BackendNATS publishes triple entities on the graph ingest stream.
	BackendNATS = "nats"
	// BackendEcho prints payloads to stdout. Dry runs only.
	BackendEcho = "echo"
)

// Config represents the complete semsurvey configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Graph    GraphConfig    `yaml:"graph"`
	API      APIConfig      `yaml:"api"`
}

// RegistryConfig locates the declarative registry definitions.
type RegistryConfig struct {
	// VocabularyPath is the vocabulary definition YAML file.
	VocabularyPath string `yaml:"vocabulary_path"`
	// QuestionMappingPath is the question mapping definition YAML file.
	QuestionMappingPath string `yaml:"question_mapping_path"`
	// Watch enables the registry drift watcher. Registries stay
	// immutable per process; the watcher only logs that a restart is
	// needed when a file changes on disk.
	Watch bool `yaml:"watch"`
}

// GraphConfig configures the graph writer backend.
type GraphConfig struct {
	// Backend selects the writer: http, nats, or echo.
	Backend string `yaml:"backend"`
	// HTTP configures the HTTP backend.
	HTTP HTTPBackendConfig `yaml:"http"`
	// NATS configures the NATS backend.
	NATS NATSBackendConfig `yaml:"nats"`
}

// HTTPBackendConfig configures the remote HTTP graph backend.
type HTTPBackendConfig struct {
	// BaseURL is the backend root URL.
	BaseURL string `yaml:"base_url"`
	// IngestPath is the single-payload endpoint (default /ingest).
	IngestPath string `yaml:"ingest_path"`
	// BatchPath is the batch endpoint (default <ingest_path>/batch).
	BatchPath string `yaml:"batch_path"`
	// APIKey is sent as a bearer token when non-empty.
	APIKey string `yaml:"api_key"`
	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`
}

// NATSBackendConfig configures the NATS graph ingest stream.
type NATSBackendConfig struct {
	// URL is the NATS server URL.
	URL string `yaml:"url"`
	// Subject is the ingest stream subject (default graph.ingest.entity).
	Subject string `yaml:"subject"`
}

// APIConfig configures the boundary HTTP server.
type APIConfig struct {
	// ListenAddr is the address the ingestion API listens on.
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			VocabularyPath:      "configs/vocabulary.yaml",
			QuestionMappingPath: "configs/question_mapping.yaml",
			Watch:               false,
		},
		Graph: GraphConfig{
			Backend: BackendHTTP,
			HTTP: HTTPBackendConfig{
				BaseURL:    "http://localhost:8080",
				IngestPath: "/ingest",
				Timeout:    10 * time.Second,
			},
			NATS: NATSBackendConfig{
				URL:     "nats://localhost:4222",
				Subject: "graph.ingest.entity",
			},
		},
		API: APIConfig{
			ListenAddr: ":8090",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Registry.VocabularyPath == "" {
		return fmt.Errorf("registry.vocabulary_path is required")
	}
	if c.Registry.QuestionMappingPath == "" {
		return fmt.Errorf("registry.question_mapping_path is required")
	}
	switch c.Graph.Backend {
	case BackendHTTP:
		if c.Graph.HTTP.BaseURL == "" {
			return fmt.Errorf("graph.http.base_url is required for the http backend")
		}
	case BackendNATS:
		if c.Graph.NATS.URL == "" {
			return fmt.Errorf("graph.nats.url is required for the nats backend")
		}
	case BackendEcho:
	default:
		return fmt.Errorf("graph.backend must be one of http, nats, echo (got %q)", c.Graph.Backend)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Registry
	if other.Registry.VocabularyPath != "" {
		c.Registry.VocabularyPath = other.Registry.VocabularyPath
	}
	if other.Registry.QuestionMappingPath != "" {
		c.Registry.QuestionMappingPath = other.Registry.QuestionMappingPath
	}
	if other.Registry.Watch {
		c.Registry.Watch = true
	}

	// Graph
	if other.Graph.Backend != "" {
		c.Graph.Backend = other.Graph.Backend
	}
	if other.Graph.HTTP.BaseURL != "" {
		c.Graph.HTTP.BaseURL = other.Graph.HTTP.BaseURL
	}
	if other.Graph.HTTP.IngestPath != "" {
		c.Graph.HTTP.IngestPath = other.Graph.HTTP.IngestPath
	}
	if other.Graph.HTTP.BatchPath != "" {
		c.Graph.HTTP.BatchPath = other.Graph.HTTP.BatchPath
	}
	if other.Graph.HTTP.APIKey != "" {
		c.Graph.HTTP.APIKey = other.Graph.HTTP.APIKey
	}
	if other.Graph.HTTP.Timeout != 0 {
		c.Graph.HTTP.Timeout = other.Graph.HTTP.Timeout
	}
	if other.Graph.NATS.URL != "" {
		c.Graph.NATS.URL = other.Graph.NATS.URL
	}
	if other.Graph.NATS.Subject != "" {
		c.Graph.NATS.Subject = other.Graph.NATS.Subject
	}

	// API
	if other.API.ListenAddr != "" {
		c.API.ListenAddr = other.API.ListenAddr
	}
}
