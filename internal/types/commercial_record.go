package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CommercialRecord is one version-tracked sales document (quote or order).
// Upserts replace Snapshot/SnapshotHash in place; FirstSeenAt never moves.
type CommercialRecord struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_record_ws_uri,priority:1" json:"workspace_id"`
	URI           string         `gorm:"column:uri;not null;uniqueIndex:idx_record_ws_uri,priority:2" json:"uri"`
	SourceSystem  string         `gorm:"column:source_system;not null" json:"source_system"`
	Kind          string         `gorm:"column:kind;not null" json:"kind"`
	ExternalID    string         `gorm:"column:external_id" json:"external_id"`
	CustomerName  string         `gorm:"column:customer_name" json:"customer_name"`
	CustomerEmail string         `gorm:"column:customer_email" json:"customer_email"`
	CommittedAt   *time.Time     `gorm:"column:committed_at" json:"committed_at,omitempty"`
	Currency      string         `gorm:"column:currency" json:"currency"`
	TotalCents    int64          `gorm:"column:total_cents;not null;default:0" json:"total_cents"`
	Snapshot      datatypes.JSON `gorm:"column:snapshot;type:jsonb" json:"snapshot"`
	SnapshotHash  string         `gorm:"column:snapshot_hash;not null;index" json:"snapshot_hash"`
	FirstSeenAt   time.Time      `gorm:"column:first_seen_at;not null" json:"first_seen_at"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (CommercialRecord) TableName() string { return "commercial_record" }

func (r *CommercialRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecordLineItem belongs to exactly one CommercialRecord. The full set for a
// record is replaced on every upsert event, never patched.
type RecordLineItem struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RecordID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_line_item_record_uri,priority:1" json:"record_id"`
	URI            string         `gorm:"column:uri;not null;uniqueIndex:idx_line_item_record_uri,priority:2" json:"uri"`
	CategoryKey    string         `gorm:"column:category_key;not null" json:"category_key"`
	DeliverableKey string         `gorm:"column:deliverable_key;not null" json:"deliverable_key"`
	GroupKey       *string        `gorm:"column:group_key" json:"group_key,omitempty"`
	Title          string         `gorm:"column:title" json:"title"`
	Quantity       int            `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Position       int            `gorm:"column:position;not null;default:0" json:"position"`
	Config         datatypes.JSON `gorm:"column:config;type:jsonb" json:"config"`
	ConfigHash     string         `gorm:"column:config_hash" json:"config_hash"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (RecordLineItem) TableName() string { return "record_line_item" }

func (li *RecordLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}
	return nil
}
