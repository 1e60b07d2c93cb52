// Package services defines shared utilities consumed by the carrier strategies
// and the external oracle clients.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers, strategy names, and
//     generation attempts for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     malformed secret, an empty candidate pool, an exhausted attempt budget
//     and an unavailable oracle apart with errors.Is.
//
// Oracle clients live in subpackages (llm for the generative model, perplexity
// for the scoring model).
package services
