// Package main runs the orphan reporter: a JetStream consumer that records every
// image the catalog reports as orphaned.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/metrics"
	"github.com/abgdnv/catalog/internal/orphans"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	"github.com/abgdnv/catalog/pkg/config/configloader"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/nats"
	"golang.org/x/sync/errgroup"
)

const serviceName = "catalog"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("orphan report failed: %v", err)
		os.Exit(1)
	}
	log.Println("orphan report stopped gracefully")
}

func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.ReportConfig](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return err
	}
	defer func() { _ = nc.Drain() }()
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return err
	}
	if _, err := nats.EnsureStream(ctx, js, cfg.Subscriber.Stream, messaging.CatalogSubjects); err != nil {
		return err
	}

	registry := metrics.NewRegistry()
	reporter := orphans.NewReporter(registry, logger)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler(registry))
	metricsServer := &http.Server{Addr: cfg.Report.MetricsAddr, Handler: metricsMux}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Orphan reporter started", "stream", cfg.Subscriber.Stream, "subject", cfg.Subscriber.Subject)
		if err := reporter.Start(gCtx, js, cfg.Subscriber); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("orphan reporter failed: %w", err)
		}
		logger.Info("Orphan reporter stopped")
		return nil
	})

	servers := []*http.Server{metricsServer}
	if cfg.PProf.Enabled {
		servers = append(servers, &http.Server{Addr: cfg.PProf.Addr})
	}
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("HTTP listener started", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listener %s failed: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
