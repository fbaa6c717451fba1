// Package config provides layered configuration for a writer session:
// built-in defaults, overridable by a YAML file, then by environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable the writer and its ambient stack consume.
type Config struct {
	// DataDir is the directory holding the data file and revisions file.
	DataDir string `yaml:"data_dir"`

	// FirstBeacon is loaded from YAML and the environment but is not passed
	// to the pager, whose reserved beacon region is the fixed
	// pager.FirstBeacon (512 bytes); setting it does not change that region.
	FirstBeacon int `yaml:"first_beacon"`

	// WorkerPoolSize bounds the async I/O worker pool.
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// Compression enables the zstd transform stage.
	Compression bool `yaml:"compression"`

	// EncryptionKeyHex is a 32-byte ChaCha20-Poly1305 key, hex-encoded.
	// Empty disables the encryption transform stage.
	EncryptionKeyHex string `yaml:"encryption_key_hex"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:        ".",
		FirstBeacon:    512,
		WorkerPoolSize: 4,
		Compression:    false,
		LogLevel:       "info",
	}
}

// Load builds a Config by layering defaults, an optional YAML file at path
// (skipped if path is empty or the file does not exist), then environment
// variables with the PAGEWRITER_ prefix.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("PAGEWRITER_DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := os.LookupEnv("PAGEWRITER_FIRST_BEACON"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FirstBeacon = n
		}
	}
	if v, ok := os.LookupEnv("PAGEWRITER_WORKER_POOL_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerPoolSize = n
		}
	}
	if v, ok := os.LookupEnv("PAGEWRITER_COMPRESSION"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Compression = b
		}
	}
	if v, ok := os.LookupEnv("PAGEWRITER_ENCRYPTION_KEY_HEX"); ok {
		cfg.EncryptionKeyHex = v
	}
	if v, ok := os.LookupEnv("PAGEWRITER_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
}
