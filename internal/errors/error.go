// Package errors provides the error taxonomy of the product workflows.
package errors

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrProductNotFound reports an absent record. It is not a store failure.
	ErrProductNotFound = errors.New("product not found")

	ErrAssetWrite   = errors.New("asset write failed")
	ErrAssetDelete  = errors.New("asset delete failed")
	ErrRecordWrite  = errors.New("record write failed")
	ErrRecordDelete = errors.New("record delete failed")

	// ErrInvalidAssetURL reports an image URL from which no object key can be derived.
	ErrInvalidAssetURL = errors.New("invalid asset url")
)

// ValidationError lists the create-request fields that failed validation,
// keyed by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "invalid product: " + strings.Join(parts, ", ")
}
