// Package main runs the product catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/abgdnv/catalog/internal/app"
	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/pkg/bootstrap"
	"github.com/abgdnv/catalog/pkg/config/configloader"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/nats"
	"github.com/abgdnv/catalog/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const serviceName = "catalog"

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads configuration, connects the stores and starts the HTTP, gRPC and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName)
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("Failed to shut down tracer provider", "error", err)
		}
	}()

	stores, closeStores, err := setupStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	publisher, closePublisher, err := setupPublisher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	deps := app.SetupDependencies(cfg, stores, publisher, logger)
	httpServer := app.SetupHttpServer(deps, cfg)
	healthServer := health.NewServer()
	grpcServer := app.SetupGrpcServer(healthServer, cfg.GRPC.ReflectionEnabled)
	pprofServer := &http.Server{
		Addr: cfg.PProf.Addr,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start the HTTP server
	g.Go(func() error {
		logger.Info("HTTP server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	// gracefully shutdown HTTP server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	// Start the gRPC health server
	g.Go(func() error {
		grpcAddr := ":" + cfg.GRPC.Port
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on gRPC port: %w", err)
		}
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		logger.Info("gRPC server listening", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	// gracefully shutdown gRPC server on context cancellation
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down gRPC server...")
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
			logger.Info("gRPC server stopped gracefully.")
			return nil
		case <-time.After(cfg.Shutdown.Timeout):
			logger.Warn("gRPC server graceful stop timed out. Forcing stop.")
			grpcServer.Stop()
			return fmt.Errorf("grpc server graceful stop timed out")
		}
	})

	// Start the pprof server if enabled
	if cfg.PProf.Enabled {
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}

// setupStores connects the record and asset stores selected in cfg.
// The returned func releases the database pool, if one was opened.
func setupStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app.Stores, func(), error) {
	noop := func() {}

	var awsCfg aws.Config
	if cfg.UsesAWS() {
		var err error
		awsCfg, err = bootstrap.NewAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return app.Stores{}, noop, err
		}
	}

	var db store.PgExecutor
	closeDB := noop
	if cfg.Records.Driver == config.RecordsPostgres {
		if err := store.Migrate(cfg.Records.Database.URL); err != nil {
			return app.Stores{}, noop, fmt.Errorf("failed to migrate database: %w", err)
		}
		dbPool, err := bootstrap.NewDbPool(ctx, cfg.Records.Database.URL, cfg.Records.Database.Timeout)
		if err != nil {
			return app.Stores{}, noop, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		logger.Info("Successfully connected to the database!")
		db = dbPool
		closeDB = dbPool.Close
	}

	products, err := app.NewProductStore(cfg.Records, awsCfg, cfg.AWS.Endpoint, db)
	if err != nil {
		closeDB()
		return app.Stores{}, noop, err
	}
	assetStore, err := app.NewAssetStore(cfg.Assets, awsCfg, cfg.AWS.Endpoint)
	if err != nil {
		closeDB()
		return app.Stores{}, noop, err
	}
	logger.Info("Stores ready", "records", cfg.Records.Driver, "assets", cfg.Assets.Driver)
	return app.Stores{Products: products, Assets: assetStore}, closeDB, nil
}

// setupPublisher connects to NATS JetStream when enabled and makes sure the catalog stream exists.
func setupPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.NATS.Enabled {
		logger.Info("Event publishing disabled")
		return messaging.NoopPublisher{}, func() {}, nil
	}
	nc, err := nats.NewClient(cfg.NATS.Url, cfg.NATS.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := nats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := nats.EnsureStream(ctx, js, cfg.NATS.Stream, messaging.CatalogSubjects); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Successfully connected to NATS!", "stream", cfg.NATS.Stream)
	return nats.NewNatsPublisher(js), func() { _ = nc.Drain() }, nil
}
