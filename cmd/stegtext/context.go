package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stegtext/internal/carrier"
	"stegtext/internal/config"
	"stegtext/internal/corpus"
	"stegtext/internal/logging"
	"stegtext/internal/metrics"
	"stegtext/internal/results"
	"stegtext/internal/scorecache"
	"stegtext/internal/services/llm"
	"stegtext/internal/services/perplexity"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// session bundles the collaborators of one command invocation. Close writes
// the metrics textfile and releases everything that was opened.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Recorder
	closers []func() error
}

func (c *commandContext) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, closeLog, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	if c.quietFlag != nil && *c.quietFlag {
		logger = logging.WithLevelOverride(logger, slog.LevelWarn)
	}
	return &session{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		closers: []func() error{closeLog},
	}, nil
}

func (s *session) Close() error {
	var errs []error
	if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		s.logger.Warn("metrics textfile not written",
			logging.String(logging.FieldEventType, "metrics_write_failed"),
			logging.Error(err),
			logging.String(logging.FieldImpact, "oracle and attempt metrics for this run are lost"),
		)
		errs = append(errs, err)
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// scorer builds the scoring oracle: the HTTP client, instrumented, behind the
// score cache when enabled.
func (s *session) scorer(ctx context.Context) (carrier.Scorer, error) {
	client := perplexity.NewClient(perplexity.Config{
		BaseURL:        s.cfg.Perplexity.BaseURL,
		Model:          s.cfg.Perplexity.Model,
		APIKey:         s.cfg.Perplexity.APIKey,
		TimeoutSeconds: s.cfg.Perplexity.TimeoutSeconds,
	})
	instrumented := s.metrics.InstrumentScorer(client)
	if !s.cfg.Perplexity.CacheEnabled {
		return instrumented, nil
	}
	cache, err := scorecache.New(ctx, instrumented, s.cfg.CacheTTL(), s.logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func() error {
		stats := cache.Stats()
		s.logger.Debug("score cache closed",
			logging.Int64("hits", stats.Hits),
			logging.Int64("misses", stats.Misses),
		)
		return cache.Close()
	})
	return cache, nil
}

func (s *session) llmClient() (*llm.Client, error) {
	if err := s.cfg.RequireLLM(); err != nil {
		return nil, err
	}
	llmCfg := s.cfg.GetLLM()
	if llmCfg.RetryAttempts > 1 {
		s.logger.Warn("llm transport retries enabled",
			logging.String(logging.FieldEventType, "llm_retries_enabled"),
			logging.Int("retry_attempts", llmCfg.RetryAttempts),
			logging.String(logging.FieldImpact, "generative oracle failures are retried before they end the run"),
		)
	}
	return llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
		MaxTokens:      llmCfg.MaxTokens,
		RetryAttempts:  llmCfg.RetryAttempts,
	}), nil
}

func (s *session) generativeStrategy() (*carrier.GenerativeStrategy, error) {
	client, err := s.llmClient()
	if err != nil {
		return nil, err
	}
	prompts, err := carrier.PromptsFor(s.cfg.Generation.Language)
	if err != nil {
		return nil, err
	}
	return carrier.NewGenerativeStrategy(
		s.metrics.InstrumentGenerator(client),
		prompts,
		s.logger,
		carrier.WithGenerateTimeout(s.cfg.LLMTimeout()),
		carrier.WithSystemRole(s.cfg.Generation.SystemRole),
	), nil
}

func (s *session) generationOptions() carrier.GenerationOptions {
	return carrier.GenerationOptions{
		Model:       s.cfg.LLM.Model,
		Temperature: s.cfg.Generation.Temperature,
		MaxAttempts: s.cfg.Generation.MaxAttempts,
		MaxTokens:   s.cfg.LLM.MaxTokens,
	}
}

func (s *session) corpusStore(ctx context.Context) (*corpus.Store, error) {
	store, err := corpus.Open(ctx, s.cfg.Paths.DataDir, s.logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, store.Close)
	return store, nil
}

func (s *session) corpusStrategy(ctx context.Context, scorer carrier.Scorer, progress func(done, total int)) (*carrier.CorpusStrategy, error) {
	store, err := s.corpusStore(ctx)
	if err != nil {
		return nil, err
	}
	opts := carrier.CorpusOptions{
		MaxCandidates: s.cfg.Corpus.MaxCandidates,
		YearMin:       s.cfg.Corpus.YearMin,
		YearMax:       s.cfg.Corpus.YearMax,
		ScoreTimeout:  s.cfg.PerplexityTimeout(),
		Progress:      progress,
	}
	return carrier.NewCorpusStrategy(corpus.View{Store: store, Category: s.cfg.Corpus.Category}, scorer, opts, s.logger), nil
}

func (s *session) resultsStore(ctx context.Context) (*results.Store, error) {
	store, err := results.Open(ctx, s.cfg.Paths.DataDir, s.logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, store.Close)
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
