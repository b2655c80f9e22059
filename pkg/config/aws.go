package config

import (
	"fmt"
	"strings"
)

// AWSConfig holds the region and credentials shared by the DynamoDB and S3 clients.
// Static credentials are optional; the default AWS credential chain is used when they are empty.
// Endpoint overrides the service endpoint (LocalStack, DynamoDB Local, MinIO).
type AWSConfig struct {
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	AccessKeyID     string `koanf:"accessKeyId"`
	SecretAccessKey string `koanf:"secretAccessKey"`
}

// String returns a string representation of the AWS configuration with secrets masked.
func (c *AWSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- AWS ---\n")
	b.WriteString(fmt.Sprintf("  region: %s\n", c.Region))
	b.WriteString(fmt.Sprintf("  endpoint: %s\n", orDefault(c.Endpoint, "<aws default>")))
	b.WriteString(fmt.Sprintf("  accessKeyId: %s\n", maskSecret(c.AccessKeyID)))
	b.WriteString(fmt.Sprintf("  secretAccessKey: %s\n", maskSecret(c.SecretAccessKey)))
	return b.String()
}

func (c *AWSConfig) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("AWS region is not configured")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("AWS access key id and secret access key must be set together")
	}
	return nil
}

// HasStaticCredentials reports whether an access key pair is configured.
func (c *AWSConfig) HasStaticCredentials() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
