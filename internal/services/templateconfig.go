package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/plan"
	"github.com/opsforge/opsforge-backend/internal/repos"
)

// TemplateConfigService loads a workspace's active templates and rules and
// resolves them into matching order plus the configuration fingerprint.
type TemplateConfigService interface {
	Load(ctx context.Context, workspaceID uuid.UUID) (*plan.TemplateConfig, error)
}

type templateConfigService struct {
	db        *gorm.DB
	log       *logger.Logger
	templates repos.TemplateRepo
	rules     repos.RuleRepo
}

func NewTemplateConfigService(db *gorm.DB, baseLog *logger.Logger, templates repos.TemplateRepo, rules repos.RuleRepo) TemplateConfigService {
	return &templateConfigService{
		db:        db,
		log:       baseLog.With("service", "TemplateConfigService"),
		templates: templates,
		rules:     rules,
	}
}

func (s *templateConfigService) Load(ctx context.Context, workspaceID uuid.UUID) (*plan.TemplateConfig, error) {
	templateRows, err := s.templates.GetActiveByWorkspace(ctx, nil, workspaceID)
	if err != nil {
		return nil, err
	}
	ruleRows, err := s.rules.GetActiveByWorkspace(ctx, nil, workspaceID)
	if err != nil {
		return nil, err
	}

	cts := make([]plan.ConfigTemplate, 0, len(templateRows))
	for _, t := range templateRows {
		cts = append(cts, plan.ConfigTemplate{
			Key:             t.Key,
			Title:           t.Title,
			Kind:            t.Kind,
			AttachScope:     t.AttachScope,
			CategoryKey:     t.CategoryKey,
			DeliverableKey:  t.DeliverableKey,
			DefaultPosition: t.DefaultPosition,
			DefaultStatus:   t.DefaultStatus,
			InitialState:    []byte(t.InitialState),
			Active:          t.Active,
			UpdatedAt:       t.UpdatedAt,
		})
	}
	crs := make([]plan.ConfigRuleRow, 0, len(ruleRows))
	for _, r := range ruleRows {
		crs = append(crs, plan.ConfigRuleRow{
			ID:          r.ID.String(),
			TemplateKey: r.TemplateKey,
			Priority:    r.Priority,
			Match:       []byte(r.Match),
			Active:      r.Active,
			UpdatedAt:   r.UpdatedAt,
		})
	}

	cfg := plan.BuildTemplateConfig(cts, crs)
	if len(cfg.Warnings) > 0 {
		s.log.Warn("Template configuration loaded with warnings", "workspace_id", workspaceID, "warnings", len(cfg.Warnings))
	}
	return cfg, nil
}
