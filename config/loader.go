package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "semsurvey.yaml"
	// UserConfigDir is the directory for user-level config.
	UserConfigDir = ".config/semsurvey"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/semsurvey/config.yaml)
// 3. Project config (semsurvey.yaml in current or parent directories)
// 4. Environment variables (SEMSURVEY_*)
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load project config
	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	// Environment overrides take final precedence
	l.applyEnv(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist.
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// applyEnv overlays SEMSURVEY_* environment variables onto the config.
func (l *Loader) applyEnv(config *Config) {
	if v := os.Getenv("SEMSURVEY_VOCABULARY_PATH"); v != "" {
		config.Registry.VocabularyPath = v
	}
	if v := os.Getenv("SEMSURVEY_QUESTION_MAPPING_PATH"); v != "" {
		config.Registry.QuestionMappingPath = v
	}
	if v := os.Getenv("SEMSURVEY_GRAPH_BACKEND"); v != "" {
		config.Graph.Backend = v
	}
	if v := os.Getenv("SEMSURVEY_GRAPH_BASE_URL"); v != "" {
		config.Graph.HTTP.BaseURL = v
	}
	if v := os.Getenv("SEMSURVEY_GRAPH_API_KEY"); v != "" {
		config.Graph.HTTP.APIKey = v
	}
	if v := os.Getenv("SEMSURVEY_GRAPH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.Graph.HTTP.Timeout = d
		} else {
			l.logger.Warn("Ignoring invalid SEMSURVEY_GRAPH_TIMEOUT", slog.String("value", v))
		}
	}
	if v := os.Getenv("SEMSURVEY_NATS_URL"); v != "" {
		config.Graph.NATS.URL = v
	}
	if v := os.Getenv("SEMSURVEY_LISTEN_ADDR"); v != "" {
		config.API.ListenAddr = v
	}
}

// userConfigPath returns the path to the user config file.
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for semsurvey.yaml in current and parent directories.
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
