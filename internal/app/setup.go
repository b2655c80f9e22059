// Package app wires the catalog service: stores, coordinator, HTTP and gRPC servers.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalog/internal/assets"
	"github.com/abgdnv/catalog/internal/config"
	"github.com/abgdnv/catalog/internal/handler"
	"github.com/abgdnv/catalog/internal/ident"
	"github.com/abgdnv/catalog/internal/metrics"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/server"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	ProductService service.ProductService
	Metrics        *metrics.Metrics
	Registry       *prometheus.Registry
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Stores are the backends the product workflows run against.
type Stores struct {
	Products store.ProductStore
	Assets   assets.Store
}

// NewProductStore builds the record store selected by cfg.Driver.
// db is only used by the postgres driver.
func NewProductStore(cfg config.RecordsConfig, awsCfg aws.Config, endpoint string, db store.PgExecutor) (store.ProductStore, error) {
	switch cfg.Driver {
	case config.RecordsDynamoDB:
		return store.NewDynamoStore(store.NewDynamoClient(awsCfg, endpoint), cfg.Table), nil
	case config.RecordsPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres records driver requires a database pool")
		}
		return store.NewPgStore(db), nil
	case config.RecordsMemory:
		return store.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown records driver: %q", cfg.Driver)
	}
}

// NewAssetStore builds the asset store selected by cfg.Driver.
func NewAssetStore(cfg config.AssetsConfig, awsCfg aws.Config, endpoint string) (assets.Store, error) {
	baseURL := assets.PublicBaseURL(cfg.Bucket, cfg.PublicHost, cfg.PublicBaseURL)
	switch cfg.Driver {
	case config.AssetsS3:
		return assets.NewS3Store(assets.NewS3Client(awsCfg, endpoint), cfg.Bucket, baseURL), nil
	case config.AssetsMemory:
		return assets.NewInMemoryStore(baseURL), nil
	default:
		return nil, fmt.Errorf("unknown assets driver: %q", cfg.Driver)
	}
}

// SetupDependencies builds the coordinator on top of the given stores.
// A nil publisher disables event publishing.
func SetupDependencies(cfg *config.Config, stores Stores, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	pService := service.NewService(service.Dependencies{
		Products:  stores.Products,
		Assets:    stores.Assets,
		Namer:     assets.NewNamer(cfg.Assets.KeyPrefix, ident.NewID),
		Publisher: publisher,
		Metrics:   m,
		Logger:    logger,
	})

	return &Dependencies{
		ProductService: pService,
		Metrics:        m,
		Registry:       registry,
		MaxUploadBytes: cfg.Assets.MaxUploadBytes,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes and middleware of the catalog service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewRouter(deps.Logger)
	mux.Use(deps.Metrics.Middleware)
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, "catalog.http")
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productAPI := handler.NewAPI(deps.ProductService, deps.Logger, deps.MaxUploadBytes)
	handler.RegisterRoutes(mux, productAPI)
	mux.Handle("/metrics", metrics.Handler(deps.Registry))
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server exposing the standard health service.
func SetupGrpcServer(hs *health.Server, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(hs))
}
