package scheduler

import (
	"time"

	"github.com/mandarons/wapar/internal/config"
)

// Config controls the scheduler loop. Job cadence and batch sizes come from
// the enrichment config file so they can change without a restart.
type Config struct {
	// LockEnabled takes a redis lock per tick so only one replica runs a job.
	LockEnabled bool
	// LockTTL bounds how long a crashed replica can hold the tick lock.
	LockTTL time.Duration
	// RetryDelay is how long RunForever waits before re-reading an invalid schedule.
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		LockTTL:    5 * time.Minute,
		RetryDelay: time.Minute,
	}
}

func ProvideConfig(cfg config.Config) Config {
	c := DefaultConfig()
	c.LockEnabled = cfg.SchedulerLock
	return c
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.LockTTL <= 0 {
		c.LockTTL = defaults.LockTTL
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = defaults.RetryDelay
	}
	return c
}
