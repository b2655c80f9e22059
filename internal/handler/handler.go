// Package handler provides HTTP handlers for the product catalog.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
)

// DefaultMaxUploadBytes caps a create request body when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files.
const multipartMemory = 8 << 20

const imageField = "image"

// ProductAPI defines HTTP handlers for product-related endpoints.
type ProductAPI interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

type api struct {
	service        service.ProductService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewAPI creates a new instance of ProductAPI with the provided service.
// maxUploadBytes bounds the create request body; zero selects DefaultMaxUploadBytes.
func NewAPI(service service.ProductService, logger *slog.Logger, maxUploadBytes int64) ProductAPI {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &api{
		service:        service,
		logger:         logger.With("component", "api"),
		maxUploadBytes: maxUploadBytes,
	}
}

type createResponse struct {
	Message string              `json:"message"`
	Product *service.ProductDto `json:"product"`
}

type deleteResponse struct {
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

// List returns every product.
func (a *api) List(w http.ResponseWriter, r *http.Request) {
	list, err := a.service.List(r.Context())
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	a.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, a.logger, http.StatusOK, list)
}

// Create handles a multipart (or url-encoded) product form with an optional image file.
func (a *api) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	if err := parseForm(r); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.logger.WarnContext(r.Context(), "Request body too large", "limit", tooLarge.Limit)
			web.RespondError(w, a.logger, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		a.logger.WarnContext(r.Context(), "Error parsing form", "error", err)
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid form data")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	in := service.CreateProductDto{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Price:       r.PostFormValue("price"),
		Category:    r.PostFormValue("category"),
		Stock:       r.PostFormValue("stock"),
	}
	image, err := readImage(r)
	if err != nil {
		a.logger.WarnContext(r.Context(), "Error reading image", "error", err)
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid image file")
		return
	}
	a.logger.DebugContext(r.Context(), "Received request to create product", "name", in.Name, "has_image", image != nil)

	created, err := a.service.Create(r.Context(), in, image)
	if err != nil {
		var validationErr *perrors.ValidationError
		if errors.As(err, &validationErr) {
			a.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", validationErr.Fields)
			web.RespondValidationErrors(w, a.logger, validationErr.Fields)
			return
		}
		a.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	web.RespondJSON(w, a.logger, http.StatusCreated, createResponse{Message: "Product added!", Product: created})
}

// Delete removes a product and its image. The id is opaque and not validated.
func (a *api) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.logger.DebugContext(r.Context(), "Received request to delete product", "ID", id)

	result, err := a.service.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			a.logger.WarnContext(r.Context(), "Product not found for deletion", "ID", id)
			web.RespondError(w, a.logger, http.StatusNotFound, "Product not found")
			return
		}
		a.logger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %s", id))
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, deleteResponse{
		Message: "Product deleted successfully",
		Warning: result.CleanupWarning,
	})
}

// HealthCheck is a simple health check endpoint.
func (a *api) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// readImage returns the uploaded image, or nil when the form carries none.
func readImage(r *http.Request) (*service.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
