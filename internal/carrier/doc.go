// Package carrier hides a digit-pair payload inside natural-language text.
//
// Two strategies compete:
//
//   - CorpusStrategy picks cover texts from a corpus that carry at least as
//     many digits as the payload and contain no 2000-2050 year literal, keeps
//     the shortest ones, overwrites their digits left to right with the
//     payload, and lets the Ranker keep the candidate with the lowest
//     perplexity.
//   - GenerativeStrategy asks a language model for a one-paragraph article
//     whose digits, read in groups of four, are exactly the payload pairs, and
//     retries until Validate accepts a text or the attempt budget runs out.
//
// Both strategies are synchronous. Oracle calls (Scorer, Generator) are the
// only blocking points and each one is bounded by the configured timeout;
// any oracle failure surfaces as services.ErrOracleUnavailable without retry.
// Validation failures are the only condition the generate loop retries.
//
// Strategies hold no per-call state, so separate secrets may be embedded from
// different goroutines as long as the injected oracles allow it.
package carrier
