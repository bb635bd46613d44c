package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskTemplate struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_template_ws_key,priority:1" json:"workspace_id"`
	Key             string         `gorm:"column:key;not null;uniqueIndex:idx_template_ws_key,priority:2" json:"key"`
	Title           string         `gorm:"column:title;not null" json:"title"`
	Kind            string         `gorm:"column:kind" json:"kind"`
	AttachScope     string         `gorm:"column:attach_scope;not null" json:"attach_scope"`
	CategoryKey     string         `gorm:"column:category_key" json:"category_key"`
	DeliverableKey  string         `gorm:"column:deliverable_key" json:"deliverable_key"`
	DefaultPosition *int           `gorm:"column:default_position" json:"default_position,omitempty"`
	DefaultStatus   string         `gorm:"column:default_status" json:"default_status"`
	InitialState    datatypes.JSON `gorm:"column:initial_state;type:jsonb" json:"initial_state"`
	Active          bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (TaskTemplate) TableName() string { return "task_template" }

func (t *TaskTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type TemplateRule struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID      `gorm:"type:uuid;not null;index" json:"workspace_id"`
	TemplateKey string         `gorm:"column:template_key;not null;index" json:"template_key"`
	Priority    int            `gorm:"column:priority;not null;default:0" json:"priority"`
	Match       datatypes.JSON `gorm:"column:match;type:jsonb" json:"match"`
	Active      bool           `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (TemplateRule) TableName() string { return "template_rule" }

func (r *TemplateRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
