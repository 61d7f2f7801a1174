// Package config provides configuration loading and structs for the vectorizer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Store     StoreConfig     `yaml:"store"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
}

// StoreConfig selects the vector store backend. Backend is one of
// "mongodb" or "redis"; selection happens once at startup.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// MongoConfig holds connection settings for the MongoDB (exact-scan) backend.
type MongoConfig struct {
	// Scheme is "mongodb" or "mongodb+srv".
	Scheme     string `yaml:"scheme"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	// DirectParams is appended verbatim as the URI query string
	// (e.g. "directConnection=true").
	DirectParams string `yaml:"direct_params"`
}

// RedisConfig holds connection settings for the Redis (ANN index) backend.
type RedisConfig struct {
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	DB        int       `yaml:"db"`
	Password  string    `yaml:"password"`
	IndexName string    `yaml:"index_name"`
	KeyPrefix string    `yaml:"key_prefix"`
	TLS       TLSConfig `yaml:"tls"`
}

// TLSConfig holds optional TLS material for the Redis backend.
// Consumed only when Enabled is true.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	ModelPath string `yaml:"model_path"`
	// ModelName is recorded on every stored record.
	ModelName  string `yaml:"model_name"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// IngestConfig holds document ingestion settings.
type IngestConfig struct {
	SourceDir  string   `yaml:"source_dir"`
	Extensions []string `yaml:"extensions"`
	Recursive  *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to walk subdirectories; defaults to false when unset.
func (c *IngestConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return false
}

// SearchConfig holds similarity search settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or fails validation.
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
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Ingest.SourceDir = expandPath(cfg.Ingest.SourceDir, configDir)
	cfg.Redis.TLS.CertFile = expandPath(cfg.Redis.TLS.CertFile, configDir)
	cfg.Redis.TLS.KeyFile = expandPath(cfg.Redis.TLS.KeyFile, configDir)
	cfg.Redis.TLS.CAFile = expandPath(cfg.Redis.TLS.CAFile, configDir)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a backend.
func Validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "mongodb", "redis":
	default:
		return fmt.Errorf("unsupported store backend: %q (use mongodb or redis)", cfg.Store.Backend)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Mongo.Scheme != "mongodb" && cfg.Mongo.Scheme != "mongodb+srv" {
		return fmt.Errorf("unsupported mongo scheme: %q", cfg.Mongo.Scheme)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
// Empty paths are returned as-is.
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
