package ecs

import "github.com/rs/zerolog"

// Option configures a World.
type Option func(w *worldConfig)

type worldConfig struct {
	logger         zerolog.Logger
	entityCapacity int
	columnCapacity int
}

func defaultWorldConfig() worldConfig {
	return worldConfig{
		logger:         zerolog.Nop(),
		entityCapacity: 1024,
		columnCapacity: 64,
	}
}

// WithLogger sets the logger used for registry and archetype events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *worldConfig) {
		c.logger = logger
	}
}

// WithEntityCapacity preallocates the entity directory.
func WithEntityCapacity(n int) Option {
	return func(c *worldConfig) {
		if n > 0 {
			c.entityCapacity = n
		}
	}
}

// WithColumnCapacity sets the initial row capacity of new archetypes.
func WithColumnCapacity(n int) Option {
	return func(c *worldConfig) {
		if n > 0 {
			c.columnCapacity = n
		}
	}
}
