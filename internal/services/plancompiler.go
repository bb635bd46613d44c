package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/plan"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/types"
)

// PlanService compiles one record's current content against the workspace's
// current template configuration. Compilation is read-only and
// deterministic; the missing record is its only hard failure.
type PlanService interface {
	Compile(ctx context.Context, workspaceID uuid.UUID, recordURI string) (*plan.CompiledPlan, *plan.TemplateConfig, error)
}

type planService struct {
	db        *gorm.DB
	log       *logger.Logger
	records   repos.RecordRepo
	lineItems repos.LineItemRepo
	taxonomy  repos.TaxonomyRepo
	config    TemplateConfigService
}

func NewPlanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	records repos.RecordRepo,
	lineItems repos.LineItemRepo,
	taxonomy repos.TaxonomyRepo,
	config TemplateConfigService,
) PlanService {
	return &planService{
		db:        db,
		log:       baseLog.With("service", "PlanService"),
		records:   records,
		lineItems: lineItems,
		taxonomy:  taxonomy,
		config:    config,
	}
}

func (s *planService) Compile(ctx context.Context, workspaceID uuid.UUID, recordURI string) (*plan.CompiledPlan, *plan.TemplateConfig, error) {
	record, err := s.records.GetByURI(ctx, nil, workspaceID, recordURI)
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, ErrRecordNotFound
	}

	rows, err := s.lineItems.GetByRecordID(ctx, nil, record.ID)
	if err != nil {
		return nil, nil, err
	}

	reg, err := s.loadRegistry(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := s.config.Load(ctx, workspaceID)
	if err != nil {
		return nil, nil, err
	}

	items := make([]plan.LineItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, plan.LineItem{
			URI:            row.URI,
			CategoryKey:    row.CategoryKey,
			DeliverableKey: row.DeliverableKey,
			GroupKey:       row.GroupKey,
			Title:          row.Title,
			Quantity:       row.Quantity,
			Position:       row.Position,
			RawConfig:      []byte(row.Config),
		})
	}

	compiled := plan.Compile(plan.CompileInput{
		WorkspaceID:  workspaceID.String(),
		RecordURI:    record.URI,
		SnapshotHash: record.SnapshotHash,
		Items:        items,
		Registry:     reg,
		Config:       cfg,
	})
	s.log.Debug("Compiled plan",
		"workspace_id", workspaceID,
		"record_uri", recordURI,
		"plan_id", compiled.PlanID,
		"matches", len(compiled.Matches),
		"warnings", len(compiled.Warnings))
	return compiled, cfg, nil
}

func (s *planService) loadRegistry(ctx context.Context, workspaceID uuid.UUID) (plan.Registry, error) {
	reg := plan.Registry{
		Categories:   map[string]plan.RegistryCategory{},
		Deliverables: map[string]plan.RegistryDeliverable{},
	}
	categories, err := s.taxonomy.GetCategories(ctx, nil, workspaceID)
	if err != nil {
		return reg, err
	}
	for _, c := range categories {
		reg.Categories[c.Key] = registryCategory(c)
	}
	deliverables, err := s.taxonomy.GetDeliverables(ctx, nil, workspaceID)
	if err != nil {
		return reg, err
	}
	for _, d := range deliverables {
		reg.Deliverables[d.Key] = plan.RegistryDeliverable{
			Key:         d.Key,
			Title:       d.Title,
			CategoryKey: d.CategoryKey,
			Active:      d.Active,
		}
	}
	return reg, nil
}

func registryCategory(c *types.Category) plan.RegistryCategory {
	return plan.RegistryCategory{
		Key:    c.Key,
		Title:  c.Title,
		Role:   c.Role,
		Active: c.Active,
	}
}
