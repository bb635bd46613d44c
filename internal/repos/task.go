package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type TaskRepo interface {
	// CreateBatch inserts a materialized task set. Best-effort group insert;
	// the caller treats failure after the ledger insert as a partial-write
	// condition.
	CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*types.Task) error
	GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Task, error)
	CountByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error)
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (tr *taskRepo) CreateBatch(ctx context.Context, tx *gorm.DB, tasks []*types.Task) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(tasks) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&tasks).Error
}

func (tr *taskRepo) GetByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Task
	if err := transaction.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (tr *taskRepo) CountByProjectID(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Task{}).
		Where("project_id = ?", projectID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
