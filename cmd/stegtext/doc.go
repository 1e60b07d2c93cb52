// Package main hosts the stegtext CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into calls on the carrier
// strategies, the comparison harness, and the corpus and results stores. It
// resolves configuration once per invocation, builds the oracle clients, and
// renders results as tables or JSON.
//
// Keep this package lean: new behaviour belongs in the internal packages and
// is only surfaced here.
package main
