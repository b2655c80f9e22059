package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "CATALOG_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// PublisherSuite runs the JetStream publisher against a real NATS server.
type PublisherSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
	stream        jetstream.Stream
}

func (s *PublisherSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get NATS connection string")

	s.nc, err = NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to create JetStream context")

	s.stream, err = EnsureStream(s.ctx, s.js, "CATALOG", messaging.CatalogSubjects)
	require.NoError(s.T(), err, "Failed to create stream")

	s.logger.Info("Initialization complete for PublisherSuite")
}

func (s *PublisherSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if s.natsContainer != nil {
		if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
			s.logger.Warn("Failed to terminate NATS container", "error", err)
		}
	}
}

func TestPublisherIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) TestPublish_AssetOrphaned() {
	// given
	publisher := NewNatsPublisher(s.js)
	event := events.AssetOrphanedEvent{
		ProductID:  "p-1",
		AssetKey:   "product-images/t-photo.png",
		Reason:     "asset_delete_failed",
		Error:      "access denied",
		OccurredAt: time.Now().UTC().Truncate(time.Second),
	}

	// when
	err := publisher.Publish(s.ctx, event)

	// then
	require.NoError(s.T(), err)
	msg, err := s.stream.GetLastMsgForSubject(s.ctx, messaging.AssetsOrphanedSubject)
	require.NoError(s.T(), err)
	var got events.AssetOrphanedEvent
	require.NoError(s.T(), json.Unmarshal(msg.Data, &got))
	assert.Equal(s.T(), event, got)
}

func (s *PublisherSuite) TestEnsureStream_Idempotent() {
	_, err := EnsureStream(s.ctx, s.js, "CATALOG", messaging.CatalogSubjects)
	assert.NoError(s.T(), err)
}
