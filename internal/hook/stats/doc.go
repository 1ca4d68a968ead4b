// Package stats provides execution accounting shared by the action and
// filter registries: registration and execution counters, running averages,
// per-owner and per-hook breakdowns, slowest-hook ranking, and a bounded
// execution history.
package stats
