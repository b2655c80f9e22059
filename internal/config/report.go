package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*ReportConfig)(nil)

// ReportConfig configures the orphan-report consumer. It reads the same file
// and environment as the catalog service.
type ReportConfig struct {
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	NATS       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Report     ReportOptions           `koanf:"report"`
}

// ReportOptions holds the settings specific to the reporter process.
type ReportOptions struct {
	MetricsAddr string `koanf:"metricsAddr"`
}

func (c *ReportConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString("\n--- Report ---\n")
	b.WriteString(fmt.Sprintf("  metricsAddr: %s\n", c.Report.MetricsAddr))
	return b.String()
}

func (c *ReportConfig) Validate() error {
	validators := []configloader.Validator{
		&c.Log,
		&c.PProf,
		&c.Shutdown,
		&c.NATS,
		&c.Subscriber,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if !c.NATS.Enabled {
		return fmt.Errorf("orphan report requires nats to be enabled")
	}
	if c.Report.MetricsAddr == "" {
		return fmt.Errorf("report metrics address is not configured")
	}
	return nil
}
