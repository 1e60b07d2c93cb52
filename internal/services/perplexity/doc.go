// Package perplexity is the HTTP client for the scoring oracle: a service that
// returns the language-model perplexity of a text.
//
// The wire format is a single JSON POST:
//
//	request:  {"model": "<model>", "text": "<text>"}
//	response: {"perplexity": 23.4}
//
// A non-2xx status, an "error" field, or a negative/NaN/infinite score is
// reported as an error. Callers treat every error from Score as the oracle
// being unavailable.
package perplexity
