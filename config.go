package lectern

import "time"

// Config holds configuration for the Lectern engine.
type Config struct {
	// MaxTreeDepth is the maximum depth for ancestor-path traversal.
	// The content taxonomy is four levels deep in practice, but the walk
	// never assumes that; this bound is defense against corrupt data.
	// Defaults to 32.
	MaxTreeDepth int `json:"max_tree_depth,omitempty"`

	// CacheTTL is the time-to-live for cached resolutions.
	CacheTTL time.Duration `json:"cache_ttl,omitempty"`

	// EnableDecisionLog records every resolution in the decision log.
	// Defaults to false; log writes are best-effort and never fail a
	// resolution.
	EnableDecisionLog bool `json:"enable_decision_log,omitempty"`

	// DisableSingleFlight turns off the collapse of concurrent identical
	// resolutions. Collapsing is purely an optimization: concurrent
	// recomputation of the same tuple is idempotent and side-effect free.
	DisableSingleFlight bool `json:"disable_single_flight,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTreeDepth: 32,
	}
}
