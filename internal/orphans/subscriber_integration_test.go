package orphans

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	pnats "github.com/abgdnv/catalog/pkg/nats"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"golang.org/x/sync/errgroup"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// ReporterSuite runs the orphan reporter against a real JetStream server.
type ReporterSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *ReporterSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.nc, err = pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *ReporterSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestReporterIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(ReporterSuite))
}

func (s *ReporterSuite) TestConsumesOrphanEvents() {
	// given
	streamName := "CATALOG_" + uuid.NewString()
	_, err := pnats.EnsureStream(s.ctx, s.js, streamName, messaging.CatalogSubjects)
	require.NoError(s.T(), err)
	defer func() { _ = s.js.DeleteStream(s.ctx, streamName) }()

	cfg := config.SubscriberConfig{
		Stream:   streamName,
		Subject:  messaging.AssetsOrphanedSubject,
		Consumer: "orphan-report-" + uuid.NewString(),
		Batch:    10,
		Timeout:  200 * time.Millisecond,
		Interval: 50 * time.Millisecond,
		Workers:  2,
	}
	reporter := NewReporter(prometheus.NewRegistry(), s.logger)

	runCtx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return reporter.Start(gCtx, s.js, cfg)
	})
	defer func() {
		cancel()
		require.ErrorIs(s.T(), g.Wait(), context.Canceled)
	}()

	// when
	publisher := pnats.NewNatsPublisher(s.js)
	require.NoError(s.T(), publisher.Publish(s.ctx, events.AssetOrphanedEvent{
		ProductID: "p-1", AssetKey: "product-images/a-photo.png", Reason: "record_write_failed", Error: "throttled", OccurredAt: time.Now(),
	}))
	require.NoError(s.T(), publisher.Publish(s.ctx, events.ProductCreatedEvent{ProductID: "p-2", Name: "Pen", CreatedAt: time.Now()}))
	_, err = s.js.Publish(s.ctx, messaging.AssetsOrphanedSubject, []byte("invalid payload"))
	require.NoError(s.T(), err)

	// then
	require.Eventually(s.T(), func() bool {
		info, err := s.js.Consumer(s.ctx, streamName, cfg.Consumer)
		if err != nil {
			return false
		}
		state, err := info.Info(s.ctx)
		return err == nil && state.NumPending == 0 && state.NumAckPending == 0
	}, 5*time.Second, 100*time.Millisecond, "orphan events were not consumed")
	require.Equal(s.T(), 1.0, testutil.ToFloat64(reporter.received.WithLabelValues("record_write_failed")))
}
