package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type RecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *types.CommercialRecord) (*types.CommercialRecord, error)
	Update(ctx context.Context, tx *gorm.DB, record *types.CommercialRecord) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CommercialRecord, error)
	GetByURI(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, uri string) (*types.CommercialRecord, error)
}

type recordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecordRepo(db *gorm.DB, baseLog *logger.Logger) RecordRepo {
	return &recordRepo{db: db, log: baseLog.With("repo", "RecordRepo")}
}

func (rr *recordRepo) Create(ctx context.Context, tx *gorm.DB, record *types.CommercialRecord) (*types.CommercialRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (rr *recordRepo) Update(ctx context.Context, tx *gorm.DB, record *types.CommercialRecord) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}

func (rr *recordRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CommercialRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var record types.CommercialRecord
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (rr *recordRepo) GetByURI(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID, uri string) (*types.CommercialRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var record types.CommercialRecord
	err := transaction.WithContext(ctx).
		Where("workspace_id = ? AND uri = ?", workspaceID, uri).
		First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
