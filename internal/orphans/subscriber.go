// Package orphans consumes asset-orphaned events and turns them into an audit trail
// operators can use to clean the object store by hand.
package orphans

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/abgdnv/catalog/pkg/config"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// ackableMsg is the part of jetstream.Msg the handler needs.
type ackableMsg interface {
	Data() []byte
	Ack() error
	Term() error
}

// Reporter records every orphan it receives.
type Reporter struct {
	logger   *slog.Logger
	received *prometheus.CounterVec
}

// NewReporter registers the orphan report counter on reg.
func NewReporter(reg prometheus.Registerer, logger *slog.Logger) *Reporter {
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_orphan_reports_total",
		Help: "Orphaned asset events received by the reporter.",
	}, []string{"reason"})
	reg.MustRegister(received)
	return &Reporter{
		logger:   logger.With("component", "orphan_reporter"),
		received: received,
	}
}

// Start creates the durable consumer and runs cfg.Workers fetch loops until ctx is done.
func (r *Reporter) Start(ctx context.Context, js jetstream.JetStream, cfg config.SubscriberConfig) error {
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return err
	}
	g, gCtx := errgroup.WithContext(ctx)
	for range cfg.Workers {
		g.Go(func() error {
			return r.runWorker(gCtx, consumer, cfg)
		})
	}
	return g.Wait()
}

func (r *Reporter) runWorker(ctx context.Context, consumer jetstream.Consumer, cfg config.SubscriberConfig) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		batch, err := consumer.Fetch(cfg.Batch, jetstream.FetchMaxWait(cfg.Timeout))
		if err != nil {
			r.logger.Error("failed to fetch messages", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Interval):
			}
			continue
		}
		for msg := range batch.Messages() {
			r.handleMessage(msg)
		}
		if err := batch.Error(); err != nil && !errors.Is(err, jetstream.ErrNoMessages) && !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("fetch batch ended with error", "error", err)
		}
	}
}

// handleMessage logs the orphan and acks it. Payloads that cannot be decoded are
// terminated so they are not redelivered forever.
func (r *Reporter) handleMessage(msg ackableMsg) {
	if msg == nil {
		r.logger.Error("received nil message")
		return
	}
	var event events.AssetOrphanedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		r.logger.Error("failed to unmarshal orphan event", "error", err)
		if err := msg.Term(); err != nil {
			r.logger.Error("failed to terminate message", "error", err)
		}
		return
	}
	if event.AssetKey == "" {
		r.logger.Error("orphan event without asset key", slog.String("product_id", event.ProductID))
		if err := msg.Term(); err != nil {
			r.logger.Error("failed to terminate message", "error", err)
		}
		return
	}

	r.logger.Warn("orphaned asset reported",
		slog.String("asset_key", event.AssetKey),
		slog.String("product_id", event.ProductID),
		slog.String("reason", event.Reason),
		slog.String("cause", event.Error),
		slog.Time("occurred_at", event.OccurredAt))
	r.received.WithLabelValues(event.Reason).Inc()

	if err := msg.Ack(); err != nil {
		r.logger.Error("failed to ack message", "error", err)
	}
}
