package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngestEvent dedupes upstream upsert deliveries. The unique index on
// (workspace_id, idempotency_key) makes duplicate insertion a detectable
// no-op under at-least-once delivery.
type IngestEvent struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_ingest_event_ws_key,priority:1" json:"workspace_id"`
	IdempotencyKey string    `gorm:"column:idempotency_key;not null;uniqueIndex:idx_ingest_event_ws_key,priority:2" json:"idempotency_key"`
	Kind           string    `gorm:"column:kind;not null" json:"kind"`
	PayloadHash    string    `gorm:"column:payload_hash" json:"payload_hash"`
	ReceivedAt     time.Time `gorm:"column:received_at;not null" json:"received_at"`
}

func (IngestEvent) TableName() string { return "ingest_event" }

func (e *IngestEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
