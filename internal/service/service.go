// Package service coordinates the product workflows across the record store and the asset store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/catalog/internal/assets"
	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/ident"
	"github.com/abgdnv/catalog/internal/metrics"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/abgdnv/catalog/pkg/messaging/events"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// ProductService defines the product workflows.
type ProductService interface {
	// Create validates the form, uploads the optional image, then writes the record.
	// Returns *ValidationError for bad input, ErrAssetWrite when the upload fails
	// (nothing is written) and ErrRecordWrite when the record write fails
	// (the uploaded image is reported as orphaned).
	Create(ctx context.Context, in CreateProductDto, image *ImageUpload) (*ProductDto, error)

	// List returns every product in no particular order.
	// Returns an empty slice if no products exist.
	List(ctx context.Context) ([]ProductDto, error)

	// Delete removes the record, then its image.
	// Returns ErrProductNotFound if no product exists with the given ID and
	// ErrRecordDelete if the record could not be removed. A failed image removal
	// does not fail the call; it is reported in DeleteResult.
	Delete(ctx context.Context, id string) (*DeleteResult, error)
}

// Workflow labels recorded in metrics.
const (
	opCreate = "create"
	opList   = "list"
	opDelete = "delete"

	outcomeSuccess  = "success"
	outcomeInvalid  = "invalid"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
	outcomeOrphaned = "orphaned"
)

// Reasons an asset is left behind.
const (
	ReasonRecordWriteFailed = "record_write_failed"
	ReasonAssetDeleteFailed = "asset_delete_failed"
)

// CleanupWarning is returned to callers when a deleted product's image remains in the asset store.
const CleanupWarning = "Product deleted, but its image could not be removed and was left in the asset store"

const defaultContentType = "application/octet-stream"

// Dependencies are the collaborators of the product service.
// NewID, Publisher, Metrics and Logger are optional.
type Dependencies struct {
	Products  store.ProductStore
	Assets    assets.Store
	Namer     *assets.Namer
	Publisher messaging.Publisher
	Metrics   *metrics.Metrics
	NewID     func() string
	Logger    *slog.Logger
}

type service struct {
	products  store.ProductStore
	assets    assets.Store
	namer     *assets.Namer
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	validate  *validator.Validate
	newID     func() string
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new instance of ProductService.
func NewService(deps Dependencies) ProductService {
	s := &service{
		products:  deps.Products,
		assets:    deps.Assets,
		namer:     deps.Namer,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		validate:  newValidator(),
		newID:     deps.NewID,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    deps.Logger,
	}
	if s.newID == nil {
		s.newID = ident.NewID
	}
	if s.publisher == nil {
		s.publisher = messaging.NoopPublisher{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "service")
	return s
}

// Create runs the create-with-upload workflow. Upload happens before the
// record write so a record never points at a missing image.
func (s *service) Create(ctx context.Context, in CreateProductDto, image *ImageUpload) (*ProductDto, error) {
	in, price, stock, err := s.validateCreate(in)
	if err != nil {
		s.metrics.WorkflowCompleted(opCreate, outcomeInvalid)
		return nil, err
	}

	product := store.Product{
		ProductID:   s.newID(),
		Name:        in.Name,
		Description: in.Description,
		Price:       price,
		Category:    in.Category,
		Stock:       stock,
	}

	var assetKey string
	if image != nil {
		assetKey = s.namer.NewKey(image.Filename)
		contentType := image.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}
		product.ImageURL, err = s.assets.Upload(ctx, assetKey, image.Data, contentType)
		if err != nil {
			s.logger.ErrorContext(ctx, "Image upload failed, product not created",
				"product_id", product.ProductID, "asset_key", assetKey, "error", err)
			s.metrics.WorkflowCompleted(opCreate, outcomeError)
			return nil, fmt.Errorf("failed to upload image for product %s: %w", product.ProductID, classify(err, perrors.ErrAssetWrite))
		}
		s.logger.DebugContext(ctx, "Image uploaded", "product_id", product.ProductID, "asset_key", assetKey, "bytes", len(image.Data))
	}

	if err := s.products.Put(ctx, product); err != nil {
		err = classify(err, perrors.ErrRecordWrite)
		s.logger.ErrorContext(ctx, "Error creating product", "product_id", product.ProductID, "error", err)
		if assetKey != "" {
			s.reportOrphan(ctx, product.ProductID, assetKey, ReasonRecordWriteFailed, err)
		}
		s.metrics.WorkflowCompleted(opCreate, outcomeError)
		return nil, fmt.Errorf("failed to create product %s: %w", product.ProductID, err)
	}

	s.publish(ctx, events.ProductCreatedEvent{
		ProductID: product.ProductID,
		Name:      product.Name,
		Category:  product.Category,
		ImageURL:  product.ImageURL,
		CreatedAt: s.now(),
	})
	s.metrics.WorkflowCompleted(opCreate, outcomeSuccess)
	s.logger.InfoContext(ctx, "Product created", "product_id", product.ProductID, "has_image", product.ImageURL != "")

	dto := toDto(product)
	return &dto, nil
}

// List returns all products.
func (s *service) List(ctx context.Context) ([]ProductDto, error) {
	products, err := s.products.Scan(ctx)
	if err != nil {
		s.metrics.WorkflowCompleted(opList, outcomeError)
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	list := make([]ProductDto, len(products))
	for i, p := range products {
		list[i] = toDto(p)
	}
	s.metrics.WorkflowCompleted(opList, outcomeSuccess)
	return list, nil
}

// Delete runs the delete-with-cleanup workflow. The image is only removed once
// the record is gone; a failed image removal is reported, never rolled back.
func (s *service) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			s.metrics.WorkflowCompleted(opDelete, outcomeNotFound)
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
		s.metrics.WorkflowCompleted(opDelete, outcomeError)
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		s.metrics.WorkflowCompleted(opDelete, outcomeError)
		return nil, fmt.Errorf("failed to delete product %s: %w", id, classify(err, perrors.ErrRecordDelete))
	}

	result := &DeleteResult{ProductID: id}
	if product.ImageURL != "" {
		if key, err := s.deleteImage(ctx, product.ImageURL); err != nil {
			result.OrphanedAssetKey = key
			result.CleanupWarning = CleanupWarning
			s.reportOrphan(ctx, id, key, ReasonAssetDeleteFailed, err)
		}
	}

	s.publish(ctx, events.ProductDeletedEvent{
		ProductID: id,
		ImageURL:  product.ImageURL,
		DeletedAt: s.now(),
	})
	if result.CleanupWarning != "" {
		s.metrics.WorkflowCompleted(opDelete, outcomeOrphaned)
	} else {
		s.metrics.WorkflowCompleted(opDelete, outcomeSuccess)
	}
	s.logger.InfoContext(ctx, "Product deleted", "product_id", id, "cleanup_warning", result.CleanupWarning != "")
	return result, nil
}

// deleteImage removes the object behind imageURL. It returns the key it tried,
// or the URL itself when no key could be derived.
func (s *service) deleteImage(ctx context.Context, imageURL string) (string, error) {
	key, err := s.namer.KeyFromURL(imageURL)
	if err != nil {
		return imageURL, fmt.Errorf("%w: %w", perrors.ErrAssetDelete, err)
	}
	if err := s.assets.Delete(ctx, key); err != nil {
		return key, classify(err, perrors.ErrAssetDelete)
	}
	return key, nil
}

// reportOrphan makes a left-behind asset visible. Nothing retries or reconciles it.
func (s *service) reportOrphan(ctx context.Context, productID, assetKey, reason string, cause error) {
	s.logger.WarnContext(ctx, "Asset orphaned",
		"product_id", productID, "asset_key", assetKey, "reason", reason, "error", cause)
	s.metrics.AssetOrphaned(reason)
	s.publish(ctx, events.AssetOrphanedEvent{
		ProductID:  productID,
		AssetKey:   assetKey,
		Reason:     reason,
		Error:      cause.Error(),
		OccurredAt: s.now(),
	})
}

// publish emits an event; a failed publish is logged and never fails the workflow.
func (s *service) publish(ctx context.Context, event messaging.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

// classify makes sure err carries the sentinel of the step that failed.
func classify(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
