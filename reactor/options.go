// File: reactor/options.go
// Package reactor defines functional options for reactor construction.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import "github.com/rs/zerolog"

// DefaultEventCapacity is the size of the per-turn event buffer.
const DefaultEventCapacity = 1024

// Option customizes reactor initialization.
type Option func(*config)

type config struct {
	eventCapacity int
	log           zerolog.Logger
}

func defaultConfig() config {
	return config{
		eventCapacity: DefaultEventCapacity,
		log:           zerolog.Nop(),
	}
}

// WithEventCapacity overrides the OS event buffer capacity.
func WithEventCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.eventCapacity = n
		}
	}
}

// WithLogger attaches a logger for turn/dispatch tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}
