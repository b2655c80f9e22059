// Package assets stores product images in an object store.
package assets

import "context"

// Store is the object store holding product images.
type Store interface {
	// Upload writes body under key and returns the public URL of the object.
	// Failures wrap ErrAssetWrite.
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)

	// Delete removes the object. A missing object is not an error.
	// Failures wrap ErrAssetDelete.
	Delete(ctx context.Context, key string) error
}
