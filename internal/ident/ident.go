// Package ident generates the opaque identifiers used for product ids and asset key tokens.
package ident

import "github.com/google/uuid"

// NewID returns a random (version 4) UUID in its canonical textual form.
func NewID() string {
	return uuid.NewString()
}
