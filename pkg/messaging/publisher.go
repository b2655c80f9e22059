// Package messaging defines catalog events and the publisher abstraction used to emit them.
package messaging

import (
	"context"
)

// Subjects of the events emitted by the catalog service.
const (
	ProductsCreatedSubject = "catalog.products.created"
	ProductsDeletedSubject = "catalog.products.deleted"
	AssetsOrphanedSubject  = "catalog.assets.orphaned"

	// CatalogSubjects matches every catalog subject; the JetStream stream is bound to it.
	CatalogSubjects = "catalog.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. It is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
