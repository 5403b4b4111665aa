package local

import "github.com/ruffel/childproc"

// Config holds configuration for the local spawner.
type Config struct {
	targetOS childproc.TargetOS
}

// Option defines a functional option for the local provider.
type Option func(*Config)

// WithTargetOS overrides the detected operating system. It only affects how shell
// command lines are built.
func WithTargetOS(os childproc.TargetOS) Option {
	return func(c *Config) {
		c.targetOS = os
	}
}
