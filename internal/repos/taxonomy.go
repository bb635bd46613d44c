package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type TaxonomyRepo interface {
	UpsertCategories(ctx context.Context, tx *gorm.DB, categories []*types.Category) error
	UpsertDeliverables(ctx context.Context, tx *gorm.DB, deliverables []*types.Deliverable) error
	GetCategories(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Category, error)
	GetDeliverables(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Deliverable, error)
}

type taxonomyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonomyRepo(db *gorm.DB, baseLog *logger.Logger) TaxonomyRepo {
	return &taxonomyRepo{db: db, log: baseLog.With("repo", "TaxonomyRepo")}
}

func (tr *taxonomyRepo) UpsertCategories(ctx context.Context, tx *gorm.DB, categories []*types.Category) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(categories) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "role", "active", "updated_at"}),
		}).
		Create(&categories).Error
}

func (tr *taxonomyRepo) UpsertDeliverables(ctx context.Context, tx *gorm.DB, deliverables []*types.Deliverable) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(deliverables) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "category_key", "active", "updated_at"}),
		}).
		Create(&deliverables).Error
}

func (tr *taxonomyRepo) GetCategories(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Category, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Category
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *taxonomyRepo) GetDeliverables(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.Deliverable, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Deliverable
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
