package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type IngestEventRepo interface {
	// Insert records one delivery. Returns false when the idempotency key
	// was already seen, so duplicate deliveries are no-ops rather than
	// errors.
	Insert(ctx context.Context, tx *gorm.DB, evt *types.IngestEvent) (bool, error)
}

type ingestEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestEventRepo(db *gorm.DB, baseLog *logger.Logger) IngestEventRepo {
	return &ingestEventRepo{db: db, log: baseLog.With("repo", "IngestEventRepo")}
}

func (er *ingestEventRepo) Insert(ctx context.Context, tx *gorm.DB, evt *types.IngestEvent) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workspace_id"}, {Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(evt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
