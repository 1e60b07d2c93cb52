// Package llm provides an OpenRouter/OpenAI-compatible chat client used as the
// generative oracle.
//
// The generative carrier strategy sends a system prompt describing the article
// rules and a user prompt listing the digit pairs; the client returns the
// trimmed text of the first non-empty choice. Responses that use the streaming
// "delta" schema or the legacy "text" field are tolerated.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title, timeout_seconds,
// max_tokens and retry_attempts are optional.
//
// # Retry Behaviour
//
// Transport retries (HTTP 408/429/5xx, empty content, network timeouts) with
// exponential backoff are available but off by default: retry_attempts
// defaults to 1 so an unavailable oracle surfaces immediately and only the
// generate-validate loop decides whether to call again. Context cancellation
// aborts retries immediately.
package llm
