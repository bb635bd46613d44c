package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"workspace_id"`
	RecordID          uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"record_id"`
	Name              string         `gorm:"column:name" json:"name"`
	Status            string         `gorm:"column:status;not null;default:'open'" json:"status"`
	DebugSnapshot     datatypes.JSON `gorm:"column:debug_snapshot;type:jsonb" json:"debug_snapshot,omitempty"`
	DebugSnapshotHash string         `gorm:"column:debug_snapshot_hash" json:"debug_snapshot_hash,omitempty"`
	CreatedAt         time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Task struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"workspace_id"`
	ProjectID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"project_id"`
	Scope        string         `gorm:"column:scope;not null" json:"scope"`
	GroupKey     *string        `gorm:"column:group_key" json:"group_key,omitempty"`
	LineItemURI  *string        `gorm:"column:line_item_uri" json:"line_item_uri,omitempty"`
	TemplateKey  string         `gorm:"column:template_key;not null" json:"template_key"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Kind         string         `gorm:"column:kind" json:"kind"`
	Position     int            `gorm:"column:position;not null" json:"position"`
	Status       string         `gorm:"column:status;not null" json:"status"`
	InitialState datatypes.JSON `gorm:"column:initial_state;type:jsonb" json:"initial_state,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (Task) TableName() string { return "task" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ProjectMaterialization is the idempotency ledger. One row per distinct
// (record content, template configuration) pair; inserted once, never
// updated.
type ProjectMaterialization struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_materialization_ws_key,priority:1" json:"workspace_id"`
	ProjectID          uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	MaterializationKey string    `gorm:"column:materialization_key;not null;uniqueIndex:idx_materialization_ws_key,priority:2" json:"materialization_key"`
	RecordURI          string    `gorm:"column:record_uri;not null" json:"record_uri"`
	SnapshotHash       string    `gorm:"column:snapshot_hash;not null" json:"snapshot_hash"`
	ConfigHash         string    `gorm:"column:config_hash;not null" json:"config_hash"`
	TasksCreated       int       `gorm:"column:tasks_created;not null;default:0" json:"tasks_created"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
}

func (ProjectMaterialization) TableName() string { return "project_materialization" }

func (m *ProjectMaterialization) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
