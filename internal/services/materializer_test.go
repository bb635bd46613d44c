package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestMaterializeKitchenScenario(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	env.seedTemplates(t)
	ctx := context.Background()

	res := env.ingestKitchen(t, "evt-1")
	out, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !out.OK || out.AlreadyMaterialized {
		t.Fatalf("unexpected result: %+v", out)
	}
	if out.TasksCreated != 3 {
		t.Fatalf("tasks created: want=3 got=%d", out.TasksCreated)
	}
	if len(out.Warnings) != 0 {
		t.Fatalf("clean scenario produced warnings: %v", out.Warnings)
	}

	tasks, err := env.tasks.GetByProjectID(ctx, nil, res.ProjectID)
	if err != nil {
		t.Fatalf("GetByProjectID: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("persisted task count: want=3 got=%d", len(tasks))
	}

	wantTemplates := []string{"site_survey", "delivery_booking", "design_review"}
	for i, want := range wantTemplates {
		if tasks[i].TemplateKey != want {
			t.Fatalf("task[%d] template: want=%s got=%s", i, want, tasks[i].TemplateKey)
		}
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].Position <= tasks[i-1].Position {
			t.Fatalf("positions not strictly increasing: %d then %d", tasks[i-1].Position, tasks[i].Position)
		}
	}

	survey, booking, review := tasks[0], tasks[1], tasks[2]
	if survey.Scope != "project" || survey.GroupKey != nil || survey.LineItemURI != nil {
		t.Fatalf("project task shape: %+v", survey)
	}
	if booking.Scope != "shared" || booking.GroupKey == nil || *booking.GroupKey != "kitchen" {
		t.Fatalf("shared task shape: %+v", booking)
	}
	if review.Scope != "deliverable" || review.LineItemURI == nil || *review.LineItemURI != "li://orders/1001/1" {
		t.Fatalf("deliverable task shape: %+v", review)
	}
	if review.Title != "Design Review: Walnut dining table" {
		t.Fatalf("deliverable task title: got=%s", review.Title)
	}
	for _, task := range tasks {
		if task.Status != "todo" {
			t.Fatalf("task status: want=todo got=%s", task.Status)
		}
	}

	project, err := env.projects.GetByID(ctx, nil, res.ProjectID)
	if err != nil || project == nil {
		t.Fatalf("project lookup: %v", err)
	}
	if len(project.DebugSnapshot) == 0 || project.DebugSnapshotHash == "" {
		t.Fatalf("debug snapshot not written")
	}

	if len(env.notifier.events) != 1 {
		t.Fatalf("notification count: want=1 got=%d", len(env.notifier.events))
	}
	if env.notifier.events[0].MaterializationKey != out.MaterializationKey {
		t.Fatalf("notification key mismatch")
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	env.seedTemplates(t)
	ctx := context.Background()

	res := env.ingestKitchen(t, "evt-1")
	first, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	second, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
	if !second.AlreadyMaterialized {
		t.Fatalf("rerun not flagged already materialized")
	}
	if second.TasksCreated != 0 || len(second.CreatedTaskIDs) != 0 {
		t.Fatalf("rerun created tasks: %+v", second)
	}
	if second.MaterializationKey != first.MaterializationKey {
		t.Fatalf("key moved between identical runs: %s vs %s", first.MaterializationKey, second.MaterializationKey)
	}
	if got := env.taskCount(t, res.ProjectID); got != 3 {
		t.Fatalf("task count after rerun: want=3 got=%d", got)
	}
	if got := env.ledgerCount(t); got != 1 {
		t.Fatalf("ledger count after rerun: want=1 got=%d", got)
	}
	if len(env.notifier.events) != 1 {
		t.Fatalf("rerun sent a notification")
	}
}

func TestMaterializeRetriggersOnSnapshotChange(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	env.seedTemplates(t)
	ctx := context.Background()

	res := env.ingestKitchen(t, "evt-1")
	first, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	evt := kitchenEvent("evt-2")
	evt.LineItems[0].Quantity = 2
	if _, err := env.ingest.HandleRecordUpsert(ctx, env.workspace.ID, evt); err != nil {
		t.Fatalf("HandleRecordUpsert: %v", err)
	}

	second, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
	if second.AlreadyMaterialized {
		t.Fatalf("content change did not re-trigger materialization")
	}
	if second.MaterializationKey == first.MaterializationKey {
		t.Fatalf("distinct snapshots share a materialization key")
	}
	if second.TasksCreated != 3 {
		t.Fatalf("second batch size: want=3 got=%d", second.TasksCreated)
	}
	if got := env.ledgerCount(t); got != 2 {
		t.Fatalf("ledger count: want=2 got=%d", got)
	}
	if got := env.taskCount(t, res.ProjectID); got != 6 {
		t.Fatalf("task count: want=6 got=%d", got)
	}
}

func TestMaterializeRetriggersOnConfigChange(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	env.seedTemplates(t)
	ctx := context.Background()

	res := env.ingestKitchen(t, "evt-1")
	first, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}

	env.addApprovalRule(t)

	second, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("second Materialize: %v", err)
	}
	if second.AlreadyMaterialized {
		t.Fatalf("configuration change did not re-trigger materialization")
	}
	if second.MaterializationKey == first.MaterializationKey {
		t.Fatalf("distinct configurations share a materialization key")
	}
	// The new rule fires on the dining table, so the second batch grows.
	if second.TasksCreated != 4 {
		t.Fatalf("second batch size: want=4 got=%d", second.TasksCreated)
	}
}

func TestMaterializeDryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.seedTaxonomy(t)
	env.seedTemplates(t)
	ctx := context.Background()

	res := env.ingestKitchen(t, "evt-1")
	out, err := env.materializer.Materialize(ctx, res.ProjectID, true)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if !out.DryRun || out.AlreadyMaterialized {
		t.Fatalf("unexpected result: %+v", out)
	}
	if len(out.TasksPreview) != 3 {
		t.Fatalf("preview size: want=3 got=%d", len(out.TasksPreview))
	}
	if out.TasksCreated != 0 {
		t.Fatalf("dry run reported created tasks")
	}
	if out.MaterializationKey == "" {
		t.Fatalf("dry run must still report the key it would claim")
	}

	if got := env.ledgerCount(t); got != 0 {
		t.Fatalf("dry run wrote to the ledger: %d rows", got)
	}
	if got := env.taskCount(t, res.ProjectID); got != 0 {
		t.Fatalf("dry run persisted tasks: %d rows", got)
	}
	if len(env.notifier.events) != 0 {
		t.Fatalf("dry run sent a notification")
	}

	// The real run afterwards still claims the key.
	real, err := env.materializer.Materialize(ctx, res.ProjectID, false)
	if err != nil {
		t.Fatalf("Materialize after dry run: %v", err)
	}
	if real.AlreadyMaterialized {
		t.Fatalf("dry run claimed the materialization key")
	}
	if real.MaterializationKey != out.MaterializationKey {
		t.Fatalf("dry run and real run keys differ")
	}
}

func TestMaterializeUnknownProject(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.materializer.Materialize(context.Background(), uuid.New(), false)
	if err != ErrProjectNotFound {
		t.Fatalf("want ErrProjectNotFound got %v", err)
	}
}
