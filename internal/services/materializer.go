package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/canonical"
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/plan"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/types"
)

const defaultTaskStatus = "todo"

type MaterializeResult struct {
	OK                  bool          `json:"ok"`
	AlreadyMaterialized bool          `json:"already_materialized"`
	DryRun              bool          `json:"dry_run"`
	MaterializationKey  string        `json:"materialization_key"`
	TasksCreated        int           `json:"tasks_created"`
	CreatedTaskIDs      []uuid.UUID   `json:"created_task_ids"`
	TasksPreview        []*types.Task `json:"tasks_preview"`
	Warnings            []string      `json:"warnings,omitempty"`
}

// MaterializeService turns a compiled plan into persisted task rows at most
// once per distinct (record snapshot, template configuration) pair. The
// backing store gives single-statement atomicity only, so the ledger insert
// goes first and its unique index arbitrates concurrent calls.
type MaterializeService interface {
	Materialize(ctx context.Context, projectID uuid.UUID, dryRun bool) (*MaterializeResult, error)
}

type materializeService struct {
	db               *gorm.DB
	log              *logger.Logger
	projects         repos.ProjectRepo
	records          repos.RecordRepo
	tasks            repos.TaskRepo
	materializations repos.MaterializationRepo
	plans            PlanService
	notifier         Notifier
}

func NewMaterializeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	records repos.RecordRepo,
	tasks repos.TaskRepo,
	materializations repos.MaterializationRepo,
	plans PlanService,
	notifier Notifier,
) MaterializeService {
	return &materializeService{
		db:               db,
		log:              baseLog.With("service", "MaterializeService"),
		projects:         projects,
		records:          records,
		tasks:            tasks,
		materializations: materializations,
		plans:            plans,
		notifier:         notifier,
	}
}

func (s *materializeService) Materialize(ctx context.Context, projectID uuid.UUID, dryRun bool) (*MaterializeResult, error) {
	project, err := s.projects.GetByID(ctx, nil, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	record, err := s.records.GetByID(ctx, nil, project.RecordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}

	compiled, cfg, err := s.plans.Compile(ctx, project.WorkspaceID, record.URI)
	if err != nil {
		return nil, err
	}

	key := compiled.MaterializationKey()
	tasks := buildTasks(project, compiled, cfg)
	result := &MaterializeResult{
		OK:                 true,
		DryRun:             dryRun,
		MaterializationKey: key,
		CreatedTaskIDs:     []uuid.UUID{},
		TasksPreview:       tasks,
		Warnings:           compiled.Warnings,
	}

	if dryRun {
		return result, nil
	}

	inserted, err := s.materializations.Insert(ctx, nil, &types.ProjectMaterialization{
		WorkspaceID:        project.WorkspaceID,
		ProjectID:          project.ID,
		MaterializationKey: key,
		RecordURI:          compiled.RecordURI,
		SnapshotHash:       compiled.SnapshotHash,
		ConfigHash:         compiled.ConfigHash,
		TasksCreated:       len(tasks),
		CreatedAt:          time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the race or already materialized earlier. Either way the
		// ledger says this exact plan has been turned into tasks.
		result.AlreadyMaterialized = true
		result.TasksPreview = []*types.Task{}
		if prior, err := s.materializations.GetByKey(ctx, nil, project.WorkspaceID, key); err == nil && prior != nil {
			s.log.Info("Plan already materialized",
				"materialization_key", key,
				"first_materialized_at", prior.CreatedAt,
				"tasks_created_then", prior.TasksCreated)
		}
		return result, nil
	}

	if err := s.tasks.CreateBatch(ctx, nil, tasks); err != nil {
		s.log.Error("Task insert failed after ledger insert",
			"materialization_key", key,
			"project_id", project.ID,
			"error", err)
		return nil, fmt.Errorf("%w: materialization_key=%s: %v", ErrPartialMaterialization, key, err)
	}

	result.TasksCreated = len(tasks)
	for _, t := range tasks {
		result.CreatedTaskIDs = append(result.CreatedTaskIDs, t.ID)
	}

	if err := s.writeDebugSnapshot(ctx, project.ID, compiled); err != nil {
		taskIDs := make([]string, 0, len(tasks))
		for _, t := range tasks {
			taskIDs = append(taskIDs, t.ID.String())
		}
		s.log.Error("Debug snapshot write failed after task insert",
			"materialization_key", key,
			"project_id", project.ID,
			"task_ids", taskIDs,
			"error", err)
		return nil, fmt.Errorf("%w: materialization_key=%s: %v", ErrPartialMaterialization, key, err)
	}

	if s.notifier != nil {
		if err := s.notifier.MaterializationCompleted(ctx, MaterializationEvent{
			WorkspaceID:        project.WorkspaceID.String(),
			ProjectID:          project.ID.String(),
			RecordURI:          compiled.RecordURI,
			MaterializationKey: key,
			TasksCreated:       len(tasks),
		}); err != nil {
			s.log.Warn("Materialization notification failed", "materialization_key", key, "error", err)
		}
	}

	s.log.Info("Materialized plan",
		"project_id", project.ID,
		"materialization_key", key,
		"tasks_created", len(tasks))
	return result, nil
}

// buildTasks derives the ordered task rows for every matched template in
// every context. Positions follow the fixed formula so reruns against the
// same plan produce identical rows.
func buildTasks(project *types.Project, compiled *plan.CompiledPlan, cfg *plan.TemplateConfig) []*types.Task {
	var out []*types.Task
	for _, ctx := range compiled.Contexts.All() {
		matches := compiled.MatchesForContext(ctx)
		ordered := make([]plan.OrderedMatch, 0, len(matches))
		for _, m := range matches {
			tmpl := cfg.Templates[m.TemplateKey]
			ordered = append(ordered, plan.OrderedMatch{Match: m, DefaultPosition: tmpl.DefaultPosition})
		}
		plan.SortMatchesForPosition(ordered)

		lineItemPos := 0
		var lineItemURI *string
		if ctx.Kind == plan.ScopeDeliverable && len(ctx.Items) == 1 {
			lineItemPos = ctx.Items[0].Item.Position
			uri := ctx.Items[0].Item.URI
			lineItemURI = &uri
		}

		for i, om := range ordered {
			tmpl := cfg.Templates[om.Match.TemplateKey]
			status := tmpl.DefaultStatus
			if status == "" {
				status = defaultTaskStatus
			}
			title := tmpl.Title
			if ctx.Kind == plan.ScopeDeliverable && len(ctx.Items) == 1 && ctx.Items[0].Item.Title != "" {
				title = tmpl.Title + ": " + ctx.Items[0].Item.Title
			}
			out = append(out, &types.Task{
				ID:           uuid.New(),
				WorkspaceID:  project.WorkspaceID,
				ProjectID:    project.ID,
				Scope:        ctx.Kind,
				GroupKey:     ctx.GroupKey,
				LineItemURI:  lineItemURI,
				TemplateKey:  tmpl.Key,
				Title:        title,
				Kind:         tmpl.Kind,
				Position:     plan.TaskPosition(ctx.Kind, lineItemPos, tmpl.DefaultPosition, om.Match.RulePriority, i),
				Status:       status,
				InitialState: datatypes.JSON(tmpl.InitialState),
			})
		}
	}
	return out
}

func (s *materializeService) writeDebugSnapshot(ctx context.Context, projectID uuid.UUID, compiled *plan.CompiledPlan) error {
	c, err := canonical.Canonicalize(compiled)
	if err != nil {
		return err
	}
	return s.projects.SetDebugSnapshot(ctx, nil, projectID, datatypes.JSON(c), canonical.ContentHash(c))
}
