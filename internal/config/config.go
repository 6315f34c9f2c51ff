// Package config loads application configuration from YAML, dotenv files,
// and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	ListenAddr         string `yaml:"listen_addr"`
	DBPath             string `yaml:"db_path"`
	MaxSnapshots       int    `yaml:"max_snapshots"`
	AutosaveDebounceMS int    `yaml:"autosave_debounce_ms"`
	WorkerBatchSize    int    `yaml:"worker_batch_size"`
	LogLevel           string `yaml:"log_level"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. path (YAML); when path is empty, ~/.config/ottowrite/config.yaml
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:         ":8080",
		MaxSnapshots:       50,
		AutosaveDebounceMS: 1000,
		WorkerBatchSize:    50,
		LogLevel:           "info",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional unless a path was given explicitly
	if err := loadYAMLConfig(cfg, path); err != nil && path != "" {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	// Override with environment variables
	if addr := os.Getenv("OTTOWRITE_LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if dbPath := getEnvOrFile("OTTOWRITE_DB_PATH", "OTTOWRITE_DB_PATH_FILE"); dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel := os.Getenv("OTTOWRITE_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if v := os.Getenv("OTTOWRITE_MAX_SNAPSHOTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OTTOWRITE_MAX_SNAPSHOTS %q: %w", v, err)
		}
		cfg.MaxSnapshots = n
	}
	if v := os.Getenv("OTTOWRITE_WORKER_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OTTOWRITE_WORKER_BATCH_SIZE %q: %w", v, err)
		}
		cfg.WorkerBatchSize = n
	}

	// Set defaults if not configured
	if cfg.DBPath == "" {
		// Check for project-local database first
		if _, err := os.Stat(".ottowrite/ottowrite.db"); err == nil {
			cfg.DBPath = ".ottowrite/ottowrite.db"
		} else {
			// Fall back to user-global database
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get home directory: %w", err)
			}
			cfg.DBPath = filepath.Join(homeDir, ".local", "share", "ottowrite", "ottowrite.db")
		}
	}

	return cfg, nil
}

// loadYAMLConfig loads configuration from path, falling back to
// ~/.config/ottowrite/config.yaml when path is empty.
func loadYAMLConfig(cfg *Config, path string) error {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(homeDir, ".config", "ottowrite", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return string(data)
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		if dir == homeDir {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
