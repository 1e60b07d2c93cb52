package testsupport

import (
	"path/filepath"
	"testing"

	"stegtext/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Oracle endpoints point at unroutable defaults until overridden.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.LLM.APIKey = "test"
	cfgVal.LLM.RetryAttempts = 1
	cfgVal.Perplexity.CacheEnabled = false
	cfgVal.Compare.Runs = 1
	cfgVal.Logging.Level = "error"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLMURL points the generative oracle at a test server.
func WithLLMURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithPerplexityURL points the scoring oracle at a test server.
func WithPerplexityURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Perplexity.BaseURL = url
	}
}

// WithCorpusCSV writes rows to a CSV under the base dir and configures it as
// the corpus source.
func WithCorpusCSV(rows ...Article) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "articles.csv")
		WriteCorpusCSV(b.t, path, rows...)
		b.cfg.Corpus.CSVPath = path
	}
}

// WithCategory overrides the corpus category.
func WithCategory(category string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Corpus.Category = category
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
