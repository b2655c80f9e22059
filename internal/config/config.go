// Package config holds the configuration of the catalog service.
package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Record store drivers.
const (
	RecordsDynamoDB = "dynamodb"
	RecordsPostgres = "postgres"
	RecordsMemory   = "memory"
)

// Asset store drivers.
const (
	AssetsS3     = "s3"
	AssetsMemory = "memory"
)

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	NATS       config.NATSConfig       `koanf:"nats"`
	AWS        config.AWSConfig        `koanf:"aws"`
	Records    RecordsConfig           `koanf:"records"`
	Assets     AssetsConfig            `koanf:"assets"`
}

// RecordsConfig selects where product records live.
// Table applies to dynamodb, Database to postgres.
type RecordsConfig struct {
	Driver   string                `koanf:"driver"`
	Table    string                `koanf:"table"`
	Database config.DatabaseConfig `koanf:"database"`
}

// AssetsConfig selects where product images live and how their URLs look.
type AssetsConfig struct {
	Driver         string `koanf:"driver"`
	Bucket         string `koanf:"bucket"`
	KeyPrefix      string `koanf:"keyPrefix"`
	PublicHost     string `koanf:"publicHost"`
	PublicBaseURL  string `koanf:"publicBaseURL"`
	MaxUploadBytes int64  `koanf:"maxUploadBytes"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.AWS.String())
	b.WriteString(c.Records.String())
	b.WriteString(c.Assets.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.GRPC,
		&c.Log,
		&c.PProf,
		&c.Shutdown,
		&c.Telemetry,
		&c.NATS,
		&c.Records,
		&c.Assets,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if c.UsesAWS() {
		if err := c.AWS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UsesAWS reports whether any store talks to AWS (or an AWS-compatible endpoint).
func (c *Config) UsesAWS() bool {
	return c.Records.Driver == RecordsDynamoDB || c.Assets.Driver == AssetsS3
}

func (c *RecordsConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Records ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	switch c.Driver {
	case RecordsDynamoDB:
		b.WriteString(fmt.Sprintf("  table: %s\n", c.Table))
	case RecordsPostgres:
		b.WriteString(fmt.Sprintf("  database.url: %s\n", config.MaskURL(c.Database.URL)))
		b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))
	}
	return b.String()
}

func (c *RecordsConfig) Validate() error {
	switch c.Driver {
	case RecordsDynamoDB:
		if c.Table == "" {
			return fmt.Errorf("records table is not configured")
		}
	case RecordsPostgres:
		return c.Database.Validate()
	case RecordsMemory:
	default:
		return fmt.Errorf("invalid records driver: %q", c.Driver)
	}
	return nil
}

func (c *AssetsConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Assets ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  bucket: %s\n", c.Bucket))
	b.WriteString(fmt.Sprintf("  keyPrefix: %s\n", c.KeyPrefix))
	b.WriteString(fmt.Sprintf("  publicHost: %s\n", c.PublicHost))
	b.WriteString(fmt.Sprintf("  publicBaseURL: %s\n", c.PublicBaseURL))
	b.WriteString(fmt.Sprintf("  maxUploadBytes: %d\n", c.MaxUploadBytes))
	return b.String()
}

func (c *AssetsConfig) Validate() error {
	switch c.Driver {
	case AssetsS3, AssetsMemory:
	default:
		return fmt.Errorf("invalid assets driver: %q", c.Driver)
	}
	if c.Bucket == "" {
		return fmt.Errorf("assets bucket is not configured")
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("invalid assets max upload bytes: %d", c.MaxUploadBytes)
	}
	return nil
}
