package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"stegtext/internal/config"
	"stegtext/internal/services"
)

func clearOracleEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "STEGTEXT_PERPLEXITY_URL"} {
		if value, ok := os.LookupEnv(key); ok {
			_ = os.Unsetenv(key)
			t.Cleanup(func() { _ = os.Setenv(key, value) })
		}
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearOracleEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "stegtext", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "stegtext") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "stegtext", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Corpus.Category != "Economie" || cfg.Corpus.MaxCandidates != 50 {
		t.Fatalf("unexpected corpus defaults: %+v", cfg.Corpus)
	}
	if cfg.Corpus.YearMin != 2000 || cfg.Corpus.YearMax != 2050 {
		t.Fatalf("unexpected year range: %+v", cfg.Corpus)
	}
	if cfg.Generation.MaxAttempts != 20 || cfg.Generation.Temperature != 0.6 || cfg.Generation.Language != "nl" {
		t.Fatalf("unexpected generation defaults: %+v", cfg.Generation)
	}
	if cfg.LLM.RetryAttempts != 1 || cfg.LLM.MaxTokens != 2048 {
		t.Fatalf("unexpected llm defaults: %+v", cfg.LLM)
	}
	if len(cfg.Compare.Models) != 2 || len(cfg.Compare.Temperatures) != 3 || cfg.Compare.Runs != 10 {
		t.Fatalf("unexpected compare defaults: %+v", cfg.Compare)
	}
	if cfg.LLM.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.LLM.APIKey)
	}
	if err := cfg.RequireLLM(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected RequireLLM to fail without a key, got %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	clearOracleEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", " openai-key ")
	t.Setenv("STEGTEXT_PERPLEXITY_URL", "http://scorer.test/v1/perplexity")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "openai-key" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", cfg.LLM.APIKey)
	}
	if cfg.Perplexity.BaseURL != "http://scorer.test/v1/perplexity" {
		t.Fatalf("expected perplexity url override, got %q", cfg.Perplexity.BaseURL)
	}
	if err := cfg.RequireLLM(); err != nil {
		t.Fatalf("RequireLLM returned error: %v", err)
	}

	t.Setenv("OPENROUTER_API_KEY", "router-key")
	cfg, _, _, err = config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "router-key" {
		t.Fatalf("expected OPENROUTER_API_KEY to win, got %q", cfg.LLM.APIKey)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearOracleEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "stegtext.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Corpus struct {
			Category string `toml:"category"`
		} `toml:"corpus"`
		Generation struct {
			MaxAttempts int    `toml:"max_attempts"`
			Language    string `toml:"language"`
		} `toml:"generation"`
		Compare struct {
			Models   []string `toml:"models"`
			Messages []string `toml:"messages"`
		} `toml:"compare"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Corpus.Category = " Binnenland "
	custom.Generation.MaxAttempts = 0
	custom.Generation.Language = "en"
	custom.Compare.Models = []string{"a", " a ", "", "b"}
	custom.Compare.Messages = []string{"Hi"}
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Paths.DataDir != filepath.Join(tempDir, "data") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.Corpus.Category != "Binnenland" {
		t.Fatalf("expected trimmed category, got %q", cfg.Corpus.Category)
	}
	if cfg.Generation.MaxAttempts != 0 {
		t.Fatalf("expected explicit zero attempts to be kept, got %d", cfg.Generation.MaxAttempts)
	}
	if strings.Join(cfg.Compare.Models, ",") != "a,b" {
		t.Fatalf("expected deduplicated models, got %v", cfg.Compare.Models)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative attempts", func(c *config.Config) { c.Generation.MaxAttempts = -1 }, "generation.max_attempts"},
		{"temperature", func(c *config.Config) { c.Generation.Temperature = 3 }, "generation.temperature"},
		{"language", func(c *config.Config) { c.Generation.Language = "not a tag!" }, "generation.language"},
		{"system role", func(c *config.Config) { c.Generation.SystemRole = "assistant" }, "generation.system_role"},
		{"year range", func(c *config.Config) { c.Corpus.YearMin = 2051 }, "corpus.year_min"},
		{"candidates", func(c *config.Config) { c.Corpus.MaxCandidates = -5 }, "corpus.max_candidates"},
		{"runs", func(c *config.Config) { c.Compare.Runs = -1 }, "compare.runs"},
		{"parallelism", func(c *config.Config) { c.Compare.Parallelism = -2 }, "compare.parallelism"},
		{"llm timeout", func(c *config.Config) { c.LLM.TimeoutSeconds = -1 }, "llm.timeout_seconds"},
		{"log level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestRetryAttemptsAboveOneIsAnOptIn(t *testing.T) {
	cfg := config.Default()
	if cfg.LLM.RetryAttempts != 1 {
		t.Fatalf("expected no transport retries by default, got %d", cfg.LLM.RetryAttempts)
	}
	cfg.LLM.RetryAttempts = 3
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if got := cfg.GetLLM().RetryAttempts; got != 3 {
		t.Fatalf("GetLLM().RetryAttempts = %d, want 3", got)
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "Values above 1 retry inside a single") {
		t.Fatalf("sample config does not explain retry_attempts:\n%s", data)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearOracleEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(sample) returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	def := config.Default()
	if cfg.Generation.MaxAttempts != def.Generation.MaxAttempts || cfg.Corpus.Category != def.Corpus.Category {
		t.Fatalf("sample config diverges from defaults: %+v", cfg)
	}
	if strings.Join(cfg.Compare.Messages, ",") != "Geluk,Fietspad,Samenwerking" {
		t.Fatalf("unexpected sample messages %v", cfg.Compare.Messages)
	}
}
