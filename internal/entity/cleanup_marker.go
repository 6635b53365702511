package entity

import (
	"time"

	"github.com/google/uuid"
)

// CleanupMarker records a blob key left behind by a partially failed
// upload or delete. The reconciler worker drains these.
type CleanupMarker struct {
	ID          uuid.UUID  `json:"id"`
	BlobKey     string     `json:"blob_key"`
	Status      Status     `json:"status"` // pending, processing, processed, failed
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
}
