package wire

import (
	"io"
	"os"
	"strconv"
)

// DefaultMaxDepth bounds sub-message recursion when Config.MaxDepth is unset.
const DefaultMaxDepth = 32

// Config controls optional decoder behaviors. It is handed to NewDecoder and
// never changes afterwards, so one Decoder can be shared freely.
type Config struct {
	// MaxDepth is the deepest sub-message level the decoder will enter. The
	// top-level message is depth 0. Zero means DefaultMaxDepth.
	MaxDepth int

	// Trace, when non-nil, receives a human-readable structural trace of
	// every decoded tag, value and recursion bracket.
	Trace io.Writer
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{MaxDepth: DefaultMaxDepth}
}

// ConfigFromEnv returns DefaultConfig adjusted by environment toggles:
// OTPDUMP_DEBUG=1 sends the trace to trace, OTPDUMP_MAX_DEPTH=n sets MaxDepth.
func ConfigFromEnv(trace io.Writer) Config {
	c := DefaultConfig()
	if v := os.Getenv("OTPDUMP_DEBUG"); v == "1" || v == "true" {
		c.Trace = trace
	}
	if v := os.Getenv("OTPDUMP_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxDepth = n
		}
	}
	return c
}

func (c Config) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}
