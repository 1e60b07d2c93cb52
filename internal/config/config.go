package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains data and log directories.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Corpus contains configuration for the cover-text corpus.
type Corpus struct {
	CSVPath       string `toml:"csv_path"`
	Category      string `toml:"category"`
	MaxCandidates int    `toml:"max_candidates"`
	YearMin       int    `toml:"year_min"`
	YearMax       int    `toml:"year_max"`
}

// LLM contains the generative oracle connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
	MaxTokens      int    `toml:"max_tokens"`
}

// Generation contains the generate and validate loop settings.
type Generation struct {
	Temperature float64 `toml:"temperature"`
	MaxAttempts int     `toml:"max_attempts"`
	Language    string  `toml:"language"`
	SystemRole  string  `toml:"system_role"`
}

// Perplexity contains the scoring oracle connection settings.
type Perplexity struct {
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	APIKey          string `toml:"api_key"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheEnabled    bool   `toml:"cache_enabled"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
}

// Compare contains the comparison harness defaults.
type Compare struct {
	Models       []string  `toml:"models"`
	Temperatures []float64 `toml:"temperatures"`
	Runs         int       `toml:"runs"`
	Messages     []string  `toml:"messages"`
	Parallelism  int       `toml:"parallelism"`
	Persist      bool      `toml:"persist"`
}

// Metrics contains the Prometheus textfile export settings.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for stegtext.
//
// Configuration sections by subsystem:
//   - Paths: data (corpus and results databases) and log directories
//   - Corpus: CSV source, topical category and candidate filtering
//   - LLM: generative oracle connection
//   - Generation: temperature, attempt budget and prompt language
//   - Perplexity: scoring oracle connection and score cache
//   - Compare: harness grid and parallelism
//   - Metrics: Prometheus textfile export
//   - Logging: log format, level and rotation
type Config struct {
	Paths      Paths      `toml:"paths"`
	Corpus     Corpus     `toml:"corpus"`
	LLM        LLM        `toml:"llm"`
	Generation Generation `toml:"generation"`
	Perplexity Perplexity `toml:"perplexity"`
	Compare    Compare    `toml:"compare"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stegtext.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains the generative oracle settings in client form.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	RetryAttempts  int
	MaxTokens      int
}

// GetLLM returns the generative oracle connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.LLM.APIKey),
		BaseURL:        strings.TrimSpace(c.LLM.BaseURL),
		Model:          strings.TrimSpace(c.LLM.Model),
		Referer:        strings.TrimSpace(c.LLM.Referer),
		Title:          strings.TrimSpace(c.LLM.Title),
		TimeoutSeconds: c.LLM.TimeoutSeconds,
		RetryAttempts:  c.LLM.RetryAttempts,
		MaxTokens:      c.LLM.MaxTokens,
	}
}

// LLMTimeout is the per-call bound for generative oracle requests.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// PerplexityTimeout is the per-call bound for scoring oracle requests.
func (c *Config) PerplexityTimeout() time.Duration {
	return time.Duration(c.Perplexity.TimeoutSeconds) * time.Second
}

// CacheTTL is the lifetime of memoized perplexity scores.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Perplexity.CacheTTLMinutes) * time.Minute
}
