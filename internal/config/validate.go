package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"stegtext/internal/services"
)

// Validate ensures the configuration is usable. The generative oracle API key
// is not checked here; commands that need it call RequireLLM.
func (c *Config) Validate() error {
	if err := c.validateCorpus(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validatePerplexity(); err != nil {
		return err
	}
	if err := c.validateCompare(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireLLM reports whether the generative oracle can be called.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return invalid("llm.api_key is required. Set OPENROUTER_API_KEY or OPENAI_API_KEY env var or edit %s (create with 'stegtext config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateCorpus() error {
	if c.Corpus.MaxCandidates <= 0 {
		return invalid("corpus.max_candidates must be positive")
	}
	if c.Corpus.YearMin > c.Corpus.YearMax {
		return invalid("corpus.year_min must not exceed corpus.year_max")
	}
	if c.Corpus.YearMin < 1000 || c.Corpus.YearMax > 9999 {
		return invalid("corpus.year_min and corpus.year_max must be four-digit years")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if err := ensurePositiveMap(map[string]int{
		"llm.timeout_seconds": c.LLM.TimeoutSeconds,
		"llm.retry_attempts":  c.LLM.RetryAttempts,
		"llm.max_tokens":      c.LLM.MaxTokens,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return invalid("generation.temperature must be between 0 and 2")
	}
	if c.Generation.MaxAttempts < 0 {
		return invalid("generation.max_attempts must be >= 0")
	}
	if _, err := language.Parse(c.Generation.Language); err != nil {
		return invalid("generation.language %q is not a valid language tag", c.Generation.Language)
	}
	switch c.Generation.SystemRole {
	case "system", "developer":
	default:
		return invalid("generation.system_role must be system or developer")
	}
	return nil
}

func (c *Config) validatePerplexity() error {
	if c.Perplexity.TimeoutSeconds <= 0 {
		return invalid("perplexity.timeout_seconds must be positive")
	}
	if c.Perplexity.CacheEnabled && c.Perplexity.CacheTTLMinutes <= 0 {
		return invalid("perplexity.cache_ttl_minutes must be positive when perplexity.cache_enabled is true")
	}
	return nil
}

func (c *Config) validateCompare() error {
	if c.Compare.Runs <= 0 {
		return invalid("compare.runs must be positive")
	}
	if c.Compare.Parallelism <= 0 {
		return invalid("compare.parallelism must be positive")
	}
	for _, temp := range c.Compare.Temperatures {
		if temp < 0 || temp > 2 {
			return invalid("compare.temperatures must be between 0 and 2 (got %v)", temp)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return invalid("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return invalid("%s must be positive", key)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}
