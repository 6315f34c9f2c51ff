package autosave

import "time"

// Config controls save scheduling.
type Config struct {
	// DebounceDelay is the wait between a content change and the save
	// attempt. Default 1s.
	DebounceDelay time.Duration

	// ReconnectDelay is the shorter wait used when connectivity returns.
	// Default 250ms.
	ReconnectDelay time.Duration

	// SaveTimeout bounds a single save round trip. Default 30s.
	SaveTimeout time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceDelay:  time.Second,
		ReconnectDelay: 250 * time.Millisecond,
		SaveTimeout:    30 * time.Second,
	}
}

func (c *Config) debounce() time.Duration {
	if c == nil || c.DebounceDelay <= 0 {
		return time.Second
	}
	return c.DebounceDelay
}

func (c *Config) reconnect() time.Duration {
	if c == nil || c.ReconnectDelay <= 0 {
		return 250 * time.Millisecond
	}
	return c.ReconnectDelay
}

func (c *Config) saveTimeout() time.Duration {
	if c == nil || c.SaveTimeout <= 0 {
		return 30 * time.Second
	}
	return c.SaveTimeout
}
