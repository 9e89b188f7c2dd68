package relay

import "time"

// Defaults for the relay.
const (
	DefaultMaxQueueLength = 50
	DefaultPollTimeout    = 25 * time.Second
	DefaultIdleTTL        = time.Hour
)

// Config tunes the relay. Zero values select the defaults, except IdleTTL
// where a negative value disables reclamation.
type Config struct {
	MaxQueueLength int
	PollTimeout    time.Duration
	IdleTTL        time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxQueueLength <= 0 {
		c.MaxQueueLength = DefaultMaxQueueLength
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.IdleTTL == 0 {
		c.IdleTTL = DefaultIdleTTL
	}
	return c
}
