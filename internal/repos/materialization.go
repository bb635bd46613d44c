package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type MaterializationRepo interface {
	// Insert writes the ledger row. Returns false without error when a row
	// with the same (workspace, materialization key) already exists: the
	// unique index is the single-statement conflict detector that makes the
	// ledger the linearization point for concurrent materialize calls.
	Insert(ctx context.Context, tx *gorm.DB, row *types.ProjectMaterialization) (bool, error)
	GetByKey(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, key string) (*types.ProjectMaterialization, error)
}

type materializationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterializationRepo(db *gorm.DB, baseLog *logger.Logger) MaterializationRepo {
	return &materializationRepo{db: db, log: baseLog.With("repo", "MaterializationRepo")}
}

func (mr *materializationRepo) Insert(ctx context.Context, tx *gorm.DB, row *types.ProjectMaterialization) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "materialization_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (mr *materializationRepo) GetByKey(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, key string) (*types.ProjectMaterialization, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var row types.ProjectMaterialization
	err := transaction.WithContext(ctx).
		Where("workspace_id = ? AND materialization_key = ?", workspaceID, key).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
