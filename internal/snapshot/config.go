package snapshot

// DefaultMaxSnapshots bounds retained history per document.
const DefaultMaxSnapshots = 50

// Config controls a snapshot store.
type Config struct {
	// MaxSnapshots is the retention bound. Zero means the default; a
	// negative value retains nothing (every insert is evicted immediately,
	// the degenerate bound).
	MaxSnapshots int
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxSnapshots: DefaultMaxSnapshots,
	}
}

func (c *Config) limit() int {
	switch {
	case c == nil || c.MaxSnapshots == 0:
		return DefaultMaxSnapshots
	case c.MaxSnapshots < 0:
		return 0
	default:
		return c.MaxSnapshots
	}
}
