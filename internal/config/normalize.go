package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCorpus(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeGeneration()
	c.normalizePerplexity()
	c.normalizeCompare()
	if err := c.normalizeMetrics(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCorpus() error {
	var err error
	c.Corpus.CSVPath = strings.TrimSpace(c.Corpus.CSVPath)
	if c.Corpus.CSVPath, err = expandPath(c.Corpus.CSVPath); err != nil {
		return fmt.Errorf("corpus.csv_path: %w", err)
	}
	c.Corpus.Category = strings.TrimSpace(c.Corpus.Category)
	if c.Corpus.Category == "" {
		c.Corpus.Category = defaultCorpusCategory
	}
	if c.Corpus.MaxCandidates == 0 {
		c.Corpus.MaxCandidates = defaultMaxCandidates
	}
	if c.Corpus.YearMin == 0 && c.Corpus.YearMax == 0 {
		c.Corpus.YearMin = defaultYearMin
		c.Corpus.YearMax = defaultYearMax
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts == 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
}

func (c *Config) normalizeGeneration() {
	c.Generation.Language = strings.TrimSpace(c.Generation.Language)
	if c.Generation.Language == "" {
		c.Generation.Language = defaultLanguage
	}
	c.Generation.SystemRole = strings.ToLower(strings.TrimSpace(c.Generation.SystemRole))
	if c.Generation.SystemRole == "" {
		c.Generation.SystemRole = defaultSystemRole
	}
}

func (c *Config) normalizePerplexity() {
	c.Perplexity.BaseURL = strings.TrimSpace(c.Perplexity.BaseURL)
	if value, ok := os.LookupEnv("STEGTEXT_PERPLEXITY_URL"); ok && strings.TrimSpace(value) != "" {
		c.Perplexity.BaseURL = strings.TrimSpace(value)
	}
	if c.Perplexity.BaseURL == "" {
		c.Perplexity.BaseURL = defaultPerplexityBaseURL
	}
	c.Perplexity.Model = strings.TrimSpace(c.Perplexity.Model)
	c.Perplexity.APIKey = strings.TrimSpace(c.Perplexity.APIKey)
	if c.Perplexity.TimeoutSeconds == 0 {
		c.Perplexity.TimeoutSeconds = defaultPerplexityTimeout
	}
	if c.Perplexity.CacheTTLMinutes == 0 {
		c.Perplexity.CacheTTLMinutes = defaultCacheTTLMinutes
	}
}

func (c *Config) normalizeCompare() {
	models := make([]string, 0, len(c.Compare.Models))
	seen := make(map[string]struct{}, len(c.Compare.Models))
	for _, model := range c.Compare.Models {
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		if _, exists := seen[model]; exists {
			continue
		}
		seen[model] = struct{}{}
		models = append(models, model)
	}
	if len(models) == 0 {
		models = defaultCompareModels()
	}
	c.Compare.Models = models

	if len(c.Compare.Temperatures) == 0 {
		c.Compare.Temperatures = defaultCompareTemperatures()
	}

	messages := make([]string, 0, len(c.Compare.Messages))
	for _, message := range c.Compare.Messages {
		if strings.TrimSpace(message) != "" {
			messages = append(messages, message)
		}
	}
	if len(messages) == 0 {
		messages = defaultCompareMessages()
	}
	c.Compare.Messages = messages

	if c.Compare.Runs == 0 {
		c.Compare.Runs = defaultCompareRuns
	}
	if c.Compare.Parallelism == 0 {
		c.Compare.Parallelism = defaultCompareParallelism
	}
}

func (c *Config) normalizeMetrics() error {
	var err error
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
	if c.Logging.MaxAgeDays < 0 {
		c.Logging.MaxAgeDays = 0
	}
}
