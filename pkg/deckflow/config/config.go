// Package config loads generator settings from YAML or JSON files,
// with environment variables supplying credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the full configuration for a generation service.
type Settings struct {
	// Provider selects the model backend: "openai" or "claude".
	Provider string `yaml:"provider" json:"provider"`

	// Model is the model name passed to the provider.
	Model string `yaml:"model" json:"model"`

	// APIKey authenticates against the provider. Usually left empty in
	// files and supplied via OPENAI_API_KEY or ANTHROPIC_API_KEY.
	APIKey string `yaml:"api_key" json:"api_key"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible servers).
	BaseURL string `yaml:"base_url" json:"base_url"`

	// MaxTokens caps model responses. Zero uses the provider default.
	MaxTokens int `yaml:"max_tokens" json:"max_tokens"`

	// DatabasePath is the SQLite file for project storage.
	// ":memory:" keeps everything in process.
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// Theme is the default presentation theme.
	Theme string `yaml:"theme" json:"theme"`

	// IterativeContent switches content writing to one call per slide.
	IterativeContent bool `yaml:"iterative_content" json:"iterative_content"`

	// Retry settings for model calls.
	Retry RetrySettings `yaml:"retry" json:"retry"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// RetrySettings configures model call retries.
type RetrySettings struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" json:"max_backoff"`
}

// Default returns the standard settings.
func Default() Settings {
	return Settings{
		Provider:     "openai",
		DatabasePath: "deckflow.db",
		Theme:        "light",
		Retry: RetrySettings{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			MaxBackoff:     30 * time.Second,
		},
		LogLevel: "info",
	}
}

// Load reads settings from a file, auto-detecting format by extension,
// then applies environment credentials. Supported: .yaml, .yml, .json.
// An empty path returns defaults with environment applied.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		s.applyEnv()
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse json: %w", err)
		}
	default:
		return Settings{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}

	s.applyEnv()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// applyEnv fills credentials from the environment when the file left
// them empty.
func (s *Settings) applyEnv() {
	if s.APIKey != "" {
		return
	}
	switch s.Provider {
	case "claude":
		s.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	default:
		s.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Validate checks settings consistency.
func (s Settings) Validate() error {
	switch s.Provider {
	case "openai", "claude":
	default:
		return fmt.Errorf("unknown provider: %q", s.Provider)
	}
	if s.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max_attempts must be at least 1, got %d", s.Retry.MaxAttempts)
	}
	return nil
}
