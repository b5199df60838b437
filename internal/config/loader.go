package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DATA_ROOT, RETRIEVAL_TOPK, CHUNK_TARGET_TOKENS, ...)
//  2. YAML config file (~/.config/ragvault/config.yaml)
//  3. Hardcoded defaults
//
// # Security Considerations
//
// File Permissions: the configuration file MUST have 0600 or 0400
// permissions. World- or group-readable files are rejected.
//
// Path Validation: only files under ~/.config/ragvault/ or /etc/ragvault/
// may be loaded; absolute paths outside those directories are rejected.
//
// File Size Limit: files larger than 1MB are rejected.
func LoadWithFile(configPath string) (*Config, error) {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "ragvault", "config.yaml")
	}

	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	return loadWithFileAt(configPath)
}

// loadWithFileAt is LoadWithFile without the allowed-directory
// restriction, so tests can point it at temp files. Permission and size
// checks still apply.
func loadWithFileAt(configPath string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variables use the documented flat names (RETRIEVAL_TOPK,
	// CHUNK_TARGET_TOKENS, ...) mapped onto the nested struct below. These
	// are recognized names rather than a generic section.field transform,
	// since the external configuration surface is a fixed, documented set.
	if err := k.Load(env.Provider("", ".", mapEnvKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	applyExplicitBoolEnv(&cfg, k)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// mapEnvKey maps the documented flat environment variable names onto the
// nested koanf key space the Config struct's `koanf` tags expect.
func mapEnvKey(s string) string {
	mapping := map[string]string{
		"DATA_ROOT":                  "dataroot",
		"CHUNK_TARGET_TOKENS":        "chunking.target_tokens",
		"CHUNK_MIN_TOKENS":           "chunking.min_tokens",
		"CHUNK_OVERLAP_TOKENS":       "chunking.overlap_tokens",
		"RETRIEVAL_TOPK":             "retrieval.topk",
		"RETRIEVAL_MIN_SCORE":        "retrieval.min_score",
		"MMR_LAMBDA":                 "retrieval.mmr_lambda",
		"ENABLE_RERANKER":            "reranker.enabled",
		"RERANK_KEEP_TOPN":           "reranker.keep_topn",
		"SNIPPET_WINDOW_CHARS":       "retrieval.snippet_window_chars",
		"MAX_CONTEXT_CHARS":          "retrieval.max_context_chars",
		"ENABLE_MEMORY_CACHE":        "cache.enabled",
		"CACHE_TTL_SECONDS":          "cache.ttl_seconds",
		"MAX_FILE_SIZE_MB":           "ingest.max_file_size_mb",
		"MAX_AUDIO_DURATION_MINUTES": "ingest.max_audio_duration_minutes",
		"SUPPORTED_TEXT_FORMATS":     "ingest.supported_text_formats",
		"SUPPORTED_AUDIO_FORMATS":    "ingest.supported_audio_formats",
		"EMBEDDINGS_PROVIDER":        "embeddings.provider",
		"EMBEDDINGS_MODEL":           "embeddings.model",
		"EMBEDDINGS_BASE_URL":        "embeddings.base_url",
		"EMBEDDINGS_CACHE_DIR":       "embeddings.cache_dir",
		"VECTORSTORE_PATH":           "vectorstore.path",
		"VECTORSTORE_COLLECTION":     "vectorstore.default_collection",
		"VECTORSTORE_VECTOR_SIZE":    "vectorstore.vector_size",
		"KEYSTORE_PATH":              "keystore.path",
		"OTEL_ENABLE":                "observability.enable_telemetry",
		"OTEL_SERVICE_NAME":          "observability.service_name",
	}
	if mapped, ok := mapping[s]; ok {
		return mapped
	}
	return strings.ToLower(s)
}

// applyExplicitBoolEnv handles ENABLE_RERANKER and ENABLE_MEMORY_CACHE
// specially: these default to true, but koanf's unmarshal can't distinguish
// "env var absent" from "env var set to false" once merged into the zero
// value of a bool field, so presence is checked directly against the
// environment here, and the true default applies only when neither the
// environment nor the YAML file sets the key.
func applyExplicitBoolEnv(cfg *Config, k *koanf.Koanf) {
	if v, ok := os.LookupEnv("ENABLE_RERANKER"); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Reranker.Enabled = parsed
		}
	} else if !k.Exists("reranker.enabled") {
		cfg.Reranker.Enabled = true
	}

	if v, ok := os.LookupEnv("ENABLE_MEMORY_CACHE"); ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = parsed
		}
	} else if !k.Exists("cache.enabled") {
		cfg.Cache.Enabled = true
	}
}

// EnsureConfigDir creates the ragvault config directory if it doesn't exist.
func EnsureConfigDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	configDir := filepath.Join(home, ".config", "ragvault")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// validateConfigPath checks if path is in allowed directories. Runs even if
// the file doesn't exist yet.
func validateConfigPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// Path doesn't exist yet; validate the absolute form instead.
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", "ragvault"),
		"/etc/ragvault",
	}

	for _, dir := range allowedDirs {
		if strings.HasPrefix(resolvedPath, dir) {
			return nil
		}
	}
	return fmt.Errorf("config file must be in ~/.config/ragvault/ or /etc/ragvault/")
}

// validateConfigFileProperties checks file permissions and size. Runs only
// if the file exists; takes FileInfo from an already-opened descriptor to
// avoid a TOCTOU race between stat and read.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}
