package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type LineItemRepo interface {
	// ReplaceForRecord swaps the full line item set for a record: delete
	// everything, then batch insert. Upserts never patch line items.
	ReplaceForRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, items []*types.RecordLineItem) error
	GetByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) ([]*types.RecordLineItem, error)
}

type lineItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLineItemRepo(db *gorm.DB, baseLog *logger.Logger) LineItemRepo {
	return &lineItemRepo{db: db, log: baseLog.With("repo", "LineItemRepo")}
}

func (lr *lineItemRepo) ReplaceForRecord(ctx context.Context, tx *gorm.DB, recordID uuid.UUID, items []*types.RecordLineItem) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	if err := transaction.WithContext(ctx).
		Where("record_id = ?", recordID).
		Delete(&types.RecordLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&items).Error
}

func (lr *lineItemRepo) GetByRecordID(ctx context.Context, tx *gorm.DB, recordID uuid.UUID) ([]*types.RecordLineItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	var items []*types.RecordLineItem
	if err := transaction.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("position ASC").
		Order("uri ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
