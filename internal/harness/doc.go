// Package harness runs the carrier strategies across grids of secrets,
// models and temperatures and summarizes perplexity, attempts and payload
// capacity per cell.
//
// Runs are independent, so the harness may execute several at once
// (Options.Parallelism). Results are collected in input order regardless of
// completion order. A run that exhausts its attempt budget is a recorded
// observation; an oracle failure aborts the whole comparison.
package harness
