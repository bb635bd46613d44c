package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/opsforge/opsforge-backend/internal/db"
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/types"
)

type testEnv struct {
	db        *gorm.DB
	log       *logger.Logger
	workspace *types.Workspace

	workspaces       repos.WorkspaceRepo
	records          repos.RecordRepo
	lineItems        repos.LineItemRepo
	taxonomy         repos.TaxonomyRepo
	templates        repos.TemplateRepo
	rules            repos.RuleRepo
	projects         repos.ProjectRepo
	tasks            repos.TaskRepo
	materializations repos.MaterializationRepo
	events           repos.IngestEventRepo

	config       TemplateConfigService
	plans        PlanService
	ingest       IngestService
	materializer MaterializeService
	notifier     *captureNotifier
}

type captureNotifier struct {
	events []MaterializationEvent
}

func (n *captureNotifier) MaterializationCompleted(_ context.Context, evt MaterializationEvent) error {
	n.events = append(n.events, evt)
	return nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	env := &testEnv{
		db:               gdb,
		log:              log,
		workspaces:       repos.NewWorkspaceRepo(gdb, log),
		records:          repos.NewRecordRepo(gdb, log),
		lineItems:        repos.NewLineItemRepo(gdb, log),
		taxonomy:         repos.NewTaxonomyRepo(gdb, log),
		templates:        repos.NewTemplateRepo(gdb, log),
		rules:            repos.NewRuleRepo(gdb, log),
		projects:         repos.NewProjectRepo(gdb, log),
		tasks:            repos.NewTaskRepo(gdb, log),
		materializations: repos.NewMaterializationRepo(gdb, log),
		events:           repos.NewIngestEventRepo(gdb, log),
		notifier:         &captureNotifier{},
	}
	env.config = NewTemplateConfigService(gdb, log, env.templates, env.rules)
	env.plans = NewPlanService(gdb, log, env.records, env.lineItems, env.taxonomy, env.config)
	env.ingest = NewIngestService(gdb, log, env.events, env.records, env.lineItems, env.projects)
	env.materializer = NewMaterializeService(gdb, log, env.projects, env.records, env.tasks, env.materializations, env.plans, env.notifier)

	ws, err := env.workspaces.Create(context.Background(), nil, &types.Workspace{
		Name:   "Test Workspace",
		Slug:   "test",
		Active: true,
	})
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	env.workspace = ws
	return env
}

func (env *testEnv) seedTaxonomy(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	categories := []*types.Category{
		{WorkspaceID: env.workspace.ID, Key: "furniture", Title: "Furniture", Active: true},
		{WorkspaceID: env.workspace.ID, Key: "delivery", Title: "Delivery", Role: types.CategoryRoleDelivery, Active: true},
		{WorkspaceID: env.workspace.ID, Key: "install", Title: "Installation", Role: types.CategoryRoleInstall, Active: true},
	}
	if err := env.taxonomy.UpsertCategories(ctx, nil, categories); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	deliverables := []*types.Deliverable{
		{WorkspaceID: env.workspace.ID, Key: "dining_table", Title: "Dining Table", CategoryKey: "furniture", Active: true},
		{WorkspaceID: env.workspace.ID, Key: "white_glove", Title: "White Glove Delivery", CategoryKey: "delivery", Active: true},
	}
	if err := env.taxonomy.UpsertDeliverables(ctx, nil, deliverables); err != nil {
		t.Fatalf("seed deliverables: %v", err)
	}
}

func (env *testEnv) seedTemplates(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	pos10, pos20, pos30 := 10, 20, 30
	templates := []*types.TaskTemplate{
		{WorkspaceID: env.workspace.ID, Key: "site_survey", Title: "Site Survey", Kind: "survey", AttachScope: "project", DefaultPosition: &pos10, DefaultStatus: "todo", Active: true},
		{WorkspaceID: env.workspace.ID, Key: "delivery_booking", Title: "Delivery Booking", Kind: "logistics", AttachScope: "shared", DefaultPosition: &pos30, DefaultStatus: "todo", Active: true},
		{WorkspaceID: env.workspace.ID, Key: "design_review", Title: "Design Review", Kind: "design", AttachScope: "deliverable", DefaultPosition: &pos20, DefaultStatus: "todo", Active: true},
	}
	if err := env.templates.Create(ctx, nil, templates); err != nil {
		t.Fatalf("seed templates: %v", err)
	}
	rules := []*types.TemplateRule{
		{WorkspaceID: env.workspace.ID, TemplateKey: "site_survey", Priority: 200, Match: []byte(`{"attach_to":"project"}`), Active: true},
		{WorkspaceID: env.workspace.ID, TemplateKey: "delivery_booking", Priority: 100, Match: []byte(`{"attach_to":"shared","flags_any":["deliveryRequired"]}`), Active: true},
		{WorkspaceID: env.workspace.ID, TemplateKey: "design_review", Priority: 100, Match: []byte(`{"attach_to":"deliverable","flags_all":["requiresDesign"]}`), Active: true},
	}
	if err := env.rules.Create(ctx, nil, rules); err != nil {
		t.Fatalf("seed rules: %v", err)
	}
}

// addApprovalRule extends the template configuration after initial seeding,
// moving the fingerprint and adding one deliverable-scoped match for any
// item carrying requiresApproval.
func (env *testEnv) addApprovalRule(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	pos15 := 15
	templates := []*types.TaskTemplate{
		{WorkspaceID: env.workspace.ID, Key: "approval", Title: "Client Approval", Kind: "approval", AttachScope: "deliverable", DefaultPosition: &pos15, DefaultStatus: "todo", Active: true},
	}
	if err := env.templates.Create(ctx, nil, templates); err != nil {
		t.Fatalf("add template: %v", err)
	}
	rules := []*types.TemplateRule{
		{WorkspaceID: env.workspace.ID, TemplateKey: "approval", Priority: 90, Match: []byte(`{"attach_to":"deliverable","flags_all":["requiresApproval"]}`), Active: true},
	}
	if err := env.rules.Create(ctx, nil, rules); err != nil {
		t.Fatalf("add rule: %v", err)
	}
}

func strPtr(s string) *string { return &s }

// kitchenEvent is the two-line-item scenario: a design-heavy dining table
// and a delivery line sharing group key "kitchen".
func kitchenEvent(idempotencyKey string) RecordUpsertEvent {
	return RecordUpsertEvent{
		IdempotencyKey: idempotencyKey,
		Record: RecordPayload{
			URI:          "rec://orders/1001",
			SourceSystem: "erp",
			Kind:         "order",
			ExternalID:   "SO-1001",
			CustomerName: "Avery Lane",
			Currency:     "USD",
			TotalCents:   450000,
		},
		LineItems: []LineItemPayload{
			{
				URI:            "li://orders/1001/1",
				CategoryKey:    "furniture",
				DeliverableKey: "dining_table",
				GroupKey:       strPtr("kitchen"),
				Title:          "Walnut dining table",
				Quantity:       1,
				Position:       1,
				Config:         json.RawMessage(`{"workflow":{"requiresDesign":true,"requiresApproval":true},"material":"walnut"}`),
			},
			{
				URI:            "li://orders/1001/2",
				CategoryKey:    "delivery",
				DeliverableKey: "white_glove",
				GroupKey:       strPtr("kitchen"),
				Title:          "White glove delivery",
				Quantity:       1,
				Position:       2,
				Config:         json.RawMessage(`{"workflow":{"deliveryRequired":true}}`),
			},
		},
	}
}

func (env *testEnv) ingestKitchen(t *testing.T, idempotencyKey string) *IngestResult {
	t.Helper()
	res, err := env.ingest.HandleRecordUpsert(context.Background(), env.workspace.ID, kitchenEvent(idempotencyKey))
	if err != nil {
		t.Fatalf("HandleRecordUpsert: %v", err)
	}
	return res
}

func (env *testEnv) ledgerCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := env.db.Model(&types.ProjectMaterialization{}).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return count
}

func (env *testEnv) taskCount(t *testing.T, projectID uuid.UUID) int64 {
	t.Helper()
	count, err := env.tasks.CountByProjectID(context.Background(), nil, projectID)
	if err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	return count
}
