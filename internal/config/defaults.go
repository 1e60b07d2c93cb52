package config

const (
	defaultConfigPath         = "~/.config/stegtext/config.toml"
	defaultDataDir            = "~/.local/share/stegtext"
	defaultLogDir             = "~/.local/share/stegtext/logs"
	defaultCorpusCategory     = "Economie"
	defaultMaxCandidates      = 50
	defaultYearMin            = 2000
	defaultYearMax            = 2050
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel           = "openai/gpt-4o-mini"
	defaultLLMTitle           = "stegtext"
	defaultLLMTimeoutSeconds  = 60
	defaultLLMRetryAttempts   = 1
	defaultLLMMaxTokens       = 2048
	defaultTemperature        = 0.6
	defaultMaxAttempts        = 20
	defaultLanguage           = "nl"
	defaultSystemRole         = "system"
	defaultPerplexityBaseURL  = "http://127.0.0.1:8089/v1/perplexity"
	defaultPerplexityModel    = "gpt2"
	defaultPerplexityTimeout  = 120
	defaultCacheTTLMinutes    = 60
	defaultCompareRuns        = 10
	defaultCompareParallelism = 1
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 20
	defaultLogMaxBackups      = 5
	defaultLogMaxAgeDays      = 30
)

func defaultCompareModels() []string {
	return []string{"openai/gpt-4o", "openai/gpt-4o-mini"}
}

func defaultCompareTemperatures() []float64 {
	return []float64{0.3, 0.6, 0.9}
}

func defaultCompareMessages() []string {
	return []string{"Geluk", "Fietspad", "Samenwerking"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Corpus: Corpus{
			Category:      defaultCorpusCategory,
			MaxCandidates: defaultMaxCandidates,
			YearMin:       defaultYearMin,
			YearMax:       defaultYearMax,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
			MaxTokens:      defaultLLMMaxTokens,
		},
		Generation: Generation{
			Temperature: defaultTemperature,
			MaxAttempts: defaultMaxAttempts,
			Language:    defaultLanguage,
			SystemRole:  defaultSystemRole,
		},
		Perplexity: Perplexity{
			BaseURL:         defaultPerplexityBaseURL,
			Model:           defaultPerplexityModel,
			TimeoutSeconds:  defaultPerplexityTimeout,
			CacheEnabled:    true,
			CacheTTLMinutes: defaultCacheTTLMinutes,
		},
		Compare: Compare{
			Models:       defaultCompareModels(),
			Temperatures: defaultCompareTemperatures(),
			Runs:         defaultCompareRuns,
			Messages:     defaultCompareMessages(),
			Parallelism:  defaultCompareParallelism,
			Persist:      true,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
