// Package config provides configuration loading and structs for yomu.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/yomu/internal/models"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Reader ReaderConfig `yaml:"reader"`
	Model  ModelConfig  `yaml:"model"`
	Cache  CacheConfig  `yaml:"cache"`
}

// ReaderConfig holds answer-decoding settings.
type ReaderConfig struct {
	MaxAnswerLength      int     `yaml:"max_answer_length"`
	MaxAnswers           int     `yaml:"max_answers"`
	ConfidenceThreshold  float64 `yaml:"confidence_threshold"`
	MergeDocumentAnswers bool    `yaml:"merge_document_answers"`
}

// ReaderConfiguration converts the yaml settings into the immutable
// decode-time configuration.
func (r ReaderConfig) ReaderConfiguration() models.ReaderConfiguration {
	return models.ReaderConfiguration{
		MaxAnswerLength:      r.MaxAnswerLength,
		MaxAnswers:           r.MaxAnswers,
		ConfidenceThreshold:  r.ConfidenceThreshold,
		MergeDocumentAnswers: r.MergeDocumentAnswers,
	}
}

// ModelConfig holds model backend settings.
type ModelConfig struct {
	Backend     string `yaml:"backend"`
	EncoderPath string `yaml:"encoder_path"`
	ScorerPath  string `yaml:"scorer_path"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// CacheConfig holds embedding cache settings. An empty DatabasePath disables
// the persistent tier.
type CacheConfig struct {
	Size         int    `yaml:"size"`
	DatabasePath string `yaml:"database_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Model.EncoderPath = expandPath(cfg.Model.EncoderPath, configDir)
	cfg.Model.ScorerPath = expandPath(cfg.Model.ScorerPath, configDir)
	cfg.Cache.DatabasePath = expandPath(cfg.Cache.DatabasePath, configDir)

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
