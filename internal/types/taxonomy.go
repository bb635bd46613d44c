package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category roles recognized by the context builder's flag overrides.
const (
	CategoryRoleInstall  = "install"
	CategoryRoleDelivery = "delivery"
)

type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_ws_key,priority:1" json:"workspace_id"`
	Key         string    `gorm:"column:key;not null;uniqueIndex:idx_category_ws_key,priority:2" json:"key"`
	Title       string    `gorm:"column:title" json:"title"`
	Role        string    `gorm:"column:role" json:"role"`
	Active      bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Deliverable struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_deliverable_ws_key,priority:1" json:"workspace_id"`
	Key         string    `gorm:"column:key;not null;uniqueIndex:idx_deliverable_ws_key,priority:2" json:"key"`
	Title       string    `gorm:"column:title" json:"title"`
	CategoryKey string    `gorm:"column:category_key;not null" json:"category_key"`
	Active      bool      `gorm:"column:active;not null;default:true" json:"active"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (Deliverable) TableName() string { return "deliverable" }

func (d *Deliverable) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
