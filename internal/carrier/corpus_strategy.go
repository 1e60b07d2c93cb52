package carrier

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"stegtext/internal/logging"
	"stegtext/internal/mncodec"
	"stegtext/internal/services"
	"stegtext/internal/textutil"
)

// Default corpus search settings.
const (
	DefaultMaxCandidates = 50
	DefaultYearMin       = 2000
	DefaultYearMax       = 2050
)

// CorpusOptions tunes candidate filtering.
type CorpusOptions struct {
	// MaxCandidates caps how many of the shortest eligible texts are ranked.
	MaxCandidates int
	// YearMin and YearMax bound the standalone four-digit numbers that
	// disqualify a cover text.
	YearMin int
	YearMax int
	// ScoreTimeout bounds each scoring call.
	ScoreTimeout time.Duration
	// Progress receives ranking progress.
	Progress ProgressFunc
}

// DefaultCorpusOptions returns the stock filter settings.
func DefaultCorpusOptions() CorpusOptions {
	return CorpusOptions{
		MaxCandidates: DefaultMaxCandidates,
		YearMin:       DefaultYearMin,
		YearMax:       DefaultYearMax,
	}
}

// CorpusResult describes the chosen carrier.
type CorpusResult struct {
	Pairs              []string
	Payload            string
	OriginalText       string
	OriginalPerplexity float64
	ModifiedText       string
	ModifiedPerplexity float64
	// PayloadCapacity is the digit density of the original text.
	PayloadCapacity float64
	// PayloadDigits is the number of digits overwritten with payload.
	PayloadDigits int
	// PoolSize is the number of candidates that were ranked.
	PoolSize int
}

// CorpusStrategy embeds payloads into existing corpus texts.
type CorpusStrategy struct {
	source CorpusSource
	ranker *Ranker
	opts   CorpusOptions
	logger *slog.Logger
}

// NewCorpusStrategy wires a corpus source and scoring oracle together.
func NewCorpusStrategy(source CorpusSource, scorer Scorer, opts CorpusOptions, logger *slog.Logger) *CorpusStrategy {
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if opts.YearMin == 0 && opts.YearMax == 0 {
		opts.YearMin = DefaultYearMin
		opts.YearMax = DefaultYearMax
	}
	return &CorpusStrategy{
		source: source,
		ranker: NewRanker(scorer, logger, WithScoreTimeout(opts.ScoreTimeout), WithRankProgress(opts.Progress)),
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "corpus_strategy"),
	}
}

// FindCandidates returns the texts able to carry payloadDigits digits,
// shortest first and capped at opts.MaxCandidates. Texts with a standalone
// year literal inside [opts.YearMin, opts.YearMax] are excluded. Texts of
// equal length keep their corpus order.
func FindCandidates(texts []CoverText, payloadDigits int, opts CorpusOptions) []CoverText {
	eligible := make([]CoverText, 0, len(texts))
	for _, cover := range texts {
		if cover.Digits < payloadDigits {
			continue
		}
		if textutil.ContainsYearLiteral(cover.Text, opts.YearMin, opts.YearMax) {
			continue
		}
		eligible = append(eligible, cover)
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return textutil.Length(eligible[i].Text) < textutil.Length(eligible[j].Text)
	})
	if opts.MaxCandidates > 0 && len(eligible) > opts.MaxCandidates {
		eligible = eligible[:opts.MaxCandidates]
	}
	return eligible
}

// Substitute overwrites the digits of text, left to right, with the digits of
// payload. Digits past the end of the payload stay as they are; every other
// byte is copied unchanged, including bytes that are not valid UTF-8. The
// second return value is the number of payload digits consumed.
func Substitute(text, payload string) (string, int) {
	if payload == "" {
		return text, 0
	}
	var b strings.Builder
	b.Grow(len(text))
	next := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if next < len(payload) && textutil.IsDigit(r) {
			b.WriteByte(payload[next])
			next++
		} else {
			b.WriteString(text[i : i+size])
		}
		i += size
	}
	return b.String(), next
}

// Embed hides secret in the corpus text whose substituted form scores the
// lowest perplexity.
func (s *CorpusStrategy) Embed(ctx context.Context, secret string) (CorpusResult, error) {
	enc, err := mncodec.Encode(secret)
	if err != nil {
		return CorpusResult{}, err
	}
	payload := enc.Payload()

	texts, err := s.source.CoverTexts(ctx)
	if err != nil {
		return CorpusResult{}, err
	}
	candidates := FindCandidates(texts, len(payload), s.opts)
	s.logger.Info("corpus candidates filtered",
		logging.Int("corpus_size", len(texts)),
		logging.Int("candidates", len(candidates)),
		logging.Int("payload_digits", len(payload)),
	)
	if len(candidates) == 0 {
		return CorpusResult{}, services.Wrap(
			services.ErrExhaustedCandidatePool,
			"corpus_strategy",
			"filter",
			"no cover text can carry the payload",
			nil,
		)
	}

	pool := make([]Candidate, 0, len(candidates))
	for _, cover := range candidates {
		modified, _ := Substitute(cover.Text, payload)
		pool = append(pool, Candidate{Original: cover.Text, Derived: modified})
	}
	best, err := s.ranker.PickBest(ctx, pool)
	if err != nil {
		return CorpusResult{}, err
	}
	originalScore, err := s.ranker.Score(ctx, best.Original)
	if err != nil {
		return CorpusResult{}, err
	}

	result := CorpusResult{
		Pairs:              enc.Pairs,
		Payload:            payload,
		OriginalText:       best.Original,
		OriginalPerplexity: originalScore,
		ModifiedText:       best.Derived,
		ModifiedPerplexity: best.Perplexity,
		PayloadDigits:      len(payload),
		PoolSize:           len(pool),
	}
	if length := textutil.Length(best.Original); length > 0 {
		result.PayloadCapacity = float64(textutil.DigitCount(best.Original)) / float64(length)
	}
	s.logger.Info("corpus carrier selected",
		logging.Float64("original_perplexity", result.OriginalPerplexity),
		logging.Float64("modified_perplexity", result.ModifiedPerplexity),
		logging.Float64("payload_capacity", result.PayloadCapacity),
	)
	return result, nil
}
