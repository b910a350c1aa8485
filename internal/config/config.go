// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// JudgmentQueueSize bounds the in-memory judgment queue.
	JudgmentQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the judgment deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxStandingsLimit caps GET /standings?limit.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// MatchSeed seeds pair selection for reproducible runs. Zero
	// means seed from the clock.
	MatchSeed int64 `koanf:"match_seed"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use
// (e.g., loading from remote sources) and is currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		JudgmentQueueSize: 100_000,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        500_000,
		MaxStandingsLimit: 100,
		MatchSeed:         0,
	}
	return c
}
