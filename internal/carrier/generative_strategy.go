package carrier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stegtext/internal/logging"
	"stegtext/internal/mncodec"
	"stegtext/internal/services"
	"stegtext/internal/services/llm"
	"stegtext/internal/textutil"
)

// Default generation settings.
const (
	DefaultTemperature = 0.6
	DefaultMaxAttempts = 20
	DefaultMaxTokens   = 2048
)

// GenerationOptions selects the model and budget for one embedding run.
type GenerationOptions struct {
	Model       string
	Temperature float64
	// MaxAttempts is the number of oracle calls allowed. Zero or negative
	// values make Embed fail without calling the oracle.
	MaxAttempts int
	MaxTokens   int
}

// GenerationResult is a validated carrier text.
type GenerationResult struct {
	Text     string
	Attempts int
	Pairs    []string
}

// AttemptsError reports that no generated text passed validation.
type AttemptsError struct {
	Attempts    int
	MaxAttempts int
	// LastText is the final rejected text, empty when the oracle was never called.
	LastText string
}

func (e *AttemptsError) Error() string {
	return fmt.Sprintf("%s: maximum number of attempts reached (%d of %d); the article does not follow the rules",
		services.ErrExhaustedAttempts, e.Attempts, e.MaxAttempts)
}

func (e *AttemptsError) Unwrap() error {
	return services.ErrExhaustedAttempts
}

// DigitGroups returns the digits of text in consecutive groups of four. A
// trailing group shorter than four digits is dropped.
func DigitGroups(text string) []string {
	digits := []rune(textutil.Digits(text))
	groups := make([]string, 0, len(digits)/mncodec.PairWidth)
	for i := 0; i+mncodec.PairWidth <= len(digits); i += mncodec.PairWidth {
		groups = append(groups, string(digits[i:i+mncodec.PairWidth]))
	}
	return groups
}

// Validate reports whether the digit groups of text equal pairs exactly, in
// order and in number.
func Validate(text string, pairs []string) bool {
	groups := DigitGroups(text)
	if len(groups) != len(pairs) {
		return false
	}
	for i := range groups {
		if groups[i] != pairs[i] {
			return false
		}
	}
	return true
}

// GenerativeStrategy asks a language model for carrier texts until one
// validates.
type GenerativeStrategy struct {
	generator  Generator
	prompts    PromptSet
	systemRole string
	timeout    time.Duration
	logger     *slog.Logger
}

// GenerativeOption customizes a GenerativeStrategy.
type GenerativeOption func(*GenerativeStrategy)

// WithGenerateTimeout bounds every generation call.
func WithGenerateTimeout(timeout time.Duration) GenerativeOption {
	return func(s *GenerativeStrategy) {
		s.timeout = timeout
	}
}

// WithSystemRole overrides the chat role used for the instructions.
func WithSystemRole(role string) GenerativeOption {
	return func(s *GenerativeStrategy) {
		s.systemRole = strings.TrimSpace(role)
	}
}

// NewGenerativeStrategy constructs a strategy that prompts generator with prompts.
func NewGenerativeStrategy(generator Generator, prompts PromptSet, logger *slog.Logger, opts ...GenerativeOption) *GenerativeStrategy {
	s := &GenerativeStrategy{
		generator: generator,
		prompts:   prompts,
		logger:    logging.NewComponentLogger(logger, "generative_strategy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates a carrier text for secret. Validation failures are retried
// until opts.MaxAttempts oracle calls have been made, after which an
// *AttemptsError is returned. Oracle failures are returned immediately.
func (s *GenerativeStrategy) Embed(ctx context.Context, secret string, opts GenerationOptions) (GenerationResult, error) {
	pairs, err := mncodec.EncodeSecret(secret)
	if err != nil {
		return GenerationResult{}, err
	}
	return s.EmbedPairs(ctx, pairs, opts)
}

// EmbedPairs runs the generate and validate loop for an already encoded payload.
func (s *GenerativeStrategy) EmbedPairs(ctx context.Context, pairs []string, opts GenerationOptions) (GenerationResult, error) {
	req := llm.ChatRequest{
		Model:        opts.Model,
		SystemRole:   s.systemRole,
		SystemPrompt: s.prompts.System,
		UserPrompt:   s.prompts.UserPrompt(pairs),
		Temperature:  opts.Temperature,
		MaxTokens:    opts.MaxTokens,
	}

	attempts := 0
	lastText := ""
	for attempts < opts.MaxAttempts {
		attempts++
		attemptCtx := services.WithAttempt(ctx, attempts)
		logger := logging.WithContext(attemptCtx, s.logger)
		logger.Info("generating carrier text",
			logging.String("model", opts.Model),
			logging.Float64("temperature", opts.Temperature),
			logging.Int("max_attempts", opts.MaxAttempts),
		)

		text, err := generateText(attemptCtx, s.generator, s.timeout, req)
		if err != nil {
			logger.Warn("generation failed", logging.Error(err))
			return GenerationResult{}, err
		}
		text = strings.TrimSpace(text)
		if Validate(text, pairs) {
			logger.Info("carrier text validated", logging.Int("characters", textutil.Length(text)))
			return GenerationResult{Text: text, Attempts: attempts, Pairs: pairs}, nil
		}
		lastText = text
		logger.Debug("carrier text rejected",
			logging.Int("expected_groups", len(pairs)),
			logging.Int("observed_groups", len(DigitGroups(text))),
		)
	}

	s.logger.Warn("generation attempts exhausted",
		logging.Int("attempts", attempts),
		logging.Int("max_attempts", opts.MaxAttempts),
	)
	return GenerationResult{}, &AttemptsError{Attempts: attempts, MaxAttempts: opts.MaxAttempts, LastText: lastText}
}
