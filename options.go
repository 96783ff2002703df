package coroio

import "time"

// defaultSlabCapacity matches the original implementation's fixed slab size
// (mio::util::Slab::new(1024)).
const defaultSlabCapacity = 1024

// defaultPollTimeout bounds how long a single reactor poll blocks when there
// is nothing ready, so the runtime periodically rechecks for shutdown even
// with no registered sources.
const defaultPollTimeout = 250 * time.Millisecond

// config collects the options a Start call is configured with.
type config struct {
	slabCapacity int
	pollTimeout  time.Duration
	logger       *Log
}

func newConfig(opts ...Option) config {
	c := config{
		slabCapacity: defaultSlabCapacity,
		pollTimeout:  defaultPollTimeout,
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

// Option configures a Start call.
type Option func(*config)

// WithSlabCapacity sets the fixed capacity of the source token slab.
// Capacity is fixed at construction; see SourceSlab for the growth note.
func WithSlabCapacity(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.slabCapacity = n
		}
	}
}

// WithPollTimeout bounds how long the reactor blocks between readiness
// polls when idle.
func WithPollTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.pollTimeout = d
		}
	}
}

// WithLogger installs a structured logger for just this runtime instance,
// without touching the package-wide default set by SetLogger.
func WithLogger(l *Log) Option {
	return func(c *config) {
		c.logger = l
	}
}
