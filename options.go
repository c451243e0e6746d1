package gogemlock

import (
	"errors"
	"log/slog"
)

// Version is the library version recorded in the BUNDLED WITH section of
// generated lockfiles.
const Version = "0.3.0"

// defaultPrefetch bounds how many speculative registry fetches run at once.
const defaultPrefetch = 5

// Option configures resolution behavior.
type Option func(*resolverConfig) error

// resolverConfig holds all resolution configuration.
type resolverConfig struct {
	targetPlatform string
	prefetch       int
	toolVersion    string

	// logger is the structured logger for debug output. If nil, logging
	// is disabled (silent mode). *slog.Logger is used rather than a custom
	// interface so users can plug in any backend via slog handlers.
	logger *slog.Logger
}

func newResolverConfig(opts []Option) (*resolverConfig, error) {
	cfg := &resolverConfig{
		prefetch:    defaultPrefetch,
		toolVersion: Version,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithTargetPlatform selects the platform tag used to pick among
// platform-specific builds (e.g. "arm64-darwin"). Without it only
// platform-neutral builds are selected.
func WithTargetPlatform(platform string) Option {
	return func(c *resolverConfig) error {
		c.targetPlatform = platform
		return nil
	}
}

// WithPrefetch sets how many registry fetches may run concurrently while
// the search walks the graph.
func WithPrefetch(n int) Option {
	return func(c *resolverConfig) error {
		if n < 1 {
			return errors.New("prefetch concurrency must be at least 1")
		}
		c.prefetch = n
		return nil
	}
}

// WithToolVersion overrides the version string recorded in the lockfile's
// BUNDLED WITH section.
func WithToolVersion(v string) Option {
	return func(c *resolverConfig) error {
		c.toolVersion = v
		return nil
	}
}

// WithLogger enables structured debug logging for the resolution run.
func WithLogger(logger *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = logger
		return nil
	}
}

// log returns the configured logger, or a disabled one.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(slog.DiscardHandler)
}
