package config

import (
	"fmt"
	"strings"
	"time"
)

// TelemetryConfig controls OpenTelemetry tracing. Only OTLP over HTTP is supported.
type TelemetryConfig struct {
	Enabled bool         `koanf:"enabled"`
	Traces  TracesConfig `koanf:"traces"`
}

type TracesConfig struct {
	// SampleRatio is the fraction of root spans kept; 0 means the default of 1.
	SampleRatio float64        `koanf:"sampleRatio"`
	OtlpHttp    OtlpHttpConfig `koanf:"otlphttp"`
}

type OtlpHttpConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

// Ratio returns the effective sample ratio.
func (c *TracesConfig) Ratio() float64 {
	if c.SampleRatio == 0 {
		return 1
	}
	return c.SampleRatio
}

func (c *TelemetryConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Telemetry ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	if c.Enabled {
		b.WriteString(fmt.Sprintf("  traces.sampleRatio: %g\n", c.Traces.Ratio()))
		b.WriteString(fmt.Sprintf("  traces.otlphttp: endpoint=%s insecure=%t timeout=%v\n",
			c.Traces.OtlpHttp.Endpoint, c.Traces.OtlpHttp.Insecure, c.Traces.OtlpHttp.Timeout))
	}
	return b.String()
}

func (c *TelemetryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Traces.OtlpHttp.Endpoint == "" {
		return fmt.Errorf("OTel endpoint is not configured")
	}
	if c.Traces.OtlpHttp.Timeout <= 0 {
		return fmt.Errorf("telemetry timeout must be greater than 0")
	}
	if c.Traces.SampleRatio < 0 || c.Traces.SampleRatio > 1 {
		return fmt.Errorf("telemetry sample ratio must be within [0, 1]: %g", c.Traces.SampleRatio)
	}
	return nil
}
