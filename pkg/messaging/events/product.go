package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/catalog/pkg/messaging"
)

type ProductCreatedEvent struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (e ProductCreatedEvent) Subject() string {
	return messaging.ProductsCreatedSubject
}

func (e ProductCreatedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type ProductDeletedEvent struct {
	ProductID string    `json:"product_id"`
	ImageURL  string    `json:"image_url,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e ProductDeletedEvent) Subject() string {
	return messaging.ProductsDeletedSubject
}

func (e ProductDeletedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// AssetOrphanedEvent reports a stored asset that no product record references any more.
// Consumers may use it to clean the object store; the catalog itself never retries.
type AssetOrphanedEvent struct {
	ProductID  string    `json:"product_id"`
	AssetKey   string    `json:"asset_key"`
	Reason     string    `json:"reason"`
	Error      string    `json:"error"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e AssetOrphanedEvent) Subject() string {
	return messaging.AssetsOrphanedSubject
}

func (e AssetOrphanedEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
