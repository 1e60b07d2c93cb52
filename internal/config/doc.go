// Package config loads, normalizes, and validates stegtext configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENROUTER_API_KEY and STEGTEXT_PERPLEXITY_URL. The Config type centralizes
// every knob the CLI and harness need: oracle endpoints, the corpus category,
// the attempt budget, and the comparison grid.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
