package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, project *types.Project) (*types.Project, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error)
	GetByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.Project, error)
	SetDebugSnapshot(ctx context.Context, tx *gorm.DB, id uuid.UUID, snapshot datatypes.JSON, snapshotHash string) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (pr *projectRepo) Create(ctx context.Context, tx *gorm.DB, project *types.Project) (*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if err := transaction.WithContext(ctx).Create(project).Error; err != nil {
		return nil, err
	}
	return project, nil
}

func (pr *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var project types.Project
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (pr *projectRepo) GetByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) (*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var project types.Project
	err := transaction.WithContext(ctx).Where("record_id = ?", recordID).First(&project).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (pr *projectRepo) SetDebugSnapshot(ctx context.Context, tx *gorm.DB, id uuid.UUID, snapshot datatypes.JSON, snapshotHash string) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"debug_snapshot":      snapshot,
			"debug_snapshot_hash": snapshotHash,
		}).Error
}
