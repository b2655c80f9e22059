package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validReportConfig() *ReportConfig {
	c := &ReportConfig{}
	c.Shutdown.Timeout = 10 * time.Second
	c.NATS.Enabled = true
	c.NATS.Url = "nats://localhost:4222"
	c.NATS.Timeout = 5 * time.Second
	c.NATS.Stream = "CATALOG"
	c.Subscriber.Stream = "CATALOG"
	c.Subscriber.Subject = "catalog.assets.orphaned"
	c.Subscriber.Consumer = "orphan-report"
	c.Subscriber.Batch = 10
	c.Subscriber.Timeout = 5 * time.Second
	c.Subscriber.Interval = time.Second
	c.Subscriber.Workers = 1
	c.Report.MetricsAddr = ":9091"
	return c
}

func Test_ReportConfig_Validate(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*ReportConfig)
		expectErr string
	}{
		{name: "Success", mutate: func(*ReportConfig) {}},
		{
			name:      "Error - nats disabled",
			mutate:    func(c *ReportConfig) { c.NATS.Enabled = false },
			expectErr: "orphan report requires nats to be enabled",
		},
		{
			name:      "Error - no workers",
			mutate:    func(c *ReportConfig) { c.Subscriber.Workers = 0 },
			expectErr: "subscriber workers must be greater than zero",
		},
		{
			name:      "Error - metrics address missing",
			mutate:    func(c *ReportConfig) { c.Report.MetricsAddr = "" },
			expectErr: "report metrics address is not configured",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			cfg := validReportConfig()
			tc.mutate(cfg)

			// when
			err := cfg.Validate()

			// then
			if tc.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.expectErr)
		})
	}
}
