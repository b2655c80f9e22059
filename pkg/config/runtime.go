package config

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// maxShutdownTimeout bounds the grace period.
const maxShutdownTimeout = 5 * time.Minute

// PProfConfig enables the net/http/pprof server on a separate listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) String() string {
	if !c.Enabled {
		return "\n--- PProf ---\n  enabled: false\n"
	}
	return fmt.Sprintf("\n--- PProf ---\n  enabled: true\n  address: %s\n", c.Addr)
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid pprof address %q: %w", c.Addr, err)
	}
	return nil
}

// ShutdownConfig is the grace period every server gets once a stop signal arrives.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Shutdown ---\n")
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	if c.Timeout > maxShutdownTimeout {
		return fmt.Errorf("shutdown timeout %s exceeds %s", c.Timeout, maxShutdownTimeout)
	}
	return nil
}
