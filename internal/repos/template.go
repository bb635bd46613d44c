package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, templates []*types.TaskTemplate) error
	GetActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.TaskTemplate, error)
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return &templateRepo{db: db, log: baseLog.With("repo", "TemplateRepo")}
}

func (tr *templateRepo) Create(ctx context.Context, tx *gorm.DB, templates []*types.TaskTemplate) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(templates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&templates).Error
}

func (tr *templateRepo) GetActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.TaskTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.TaskTemplate
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ? AND active = ?", workspaceID, true).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type RuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rules []*types.TemplateRule) error
	GetActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.TemplateRule, error)
}

type ruleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	return &ruleRepo{db: db, log: baseLog.With("repo", "RuleRepo")}
}

func (rr *ruleRepo) Create(ctx context.Context, tx *gorm.DB, rules []*types.TemplateRule) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	if len(rules) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&rules).Error
}

func (rr *ruleRepo) GetActiveByWorkspace(ctx context.Context, tx *gorm.DB, workspaceID uuid.UUID) ([]*types.TemplateRule, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	var results []*types.TemplateRule
	if err := transaction.WithContext(ctx).
		Where("workspace_id = ? AND active = ?", workspaceID, true).
		Order("priority DESC").
		Order("template_key ASC").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
