package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type WorkspaceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, ws *types.Workspace) (*types.Workspace, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workspace, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Workspace, error)
}

type workspaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkspaceRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceRepo {
	return &workspaceRepo{db: db, log: baseLog.With("repo", "WorkspaceRepo")}
}

func (wr *workspaceRepo) Create(ctx context.Context, tx *gorm.DB, ws *types.Workspace) (*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	if err := transaction.WithContext(ctx).Create(ws).Error; err != nil {
		return nil, err
	}
	return ws, nil
}

func (wr *workspaceRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	var ws types.Workspace
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (wr *workspaceRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	var ws types.Workspace
	err := transaction.WithContext(ctx).Where("slug = ?", slug).First(&ws).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}
