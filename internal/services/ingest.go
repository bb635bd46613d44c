package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/canonical"
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/types"
)

// RecordUpsertEvent is the validated payload the upstream normalizer
// delivers per upsert. Keys and quantities are structurally valid by the
// time they reach this service.
type RecordUpsertEvent struct {
	IdempotencyKey string            `json:"idempotency_key" binding:"required"`
	Record         RecordPayload     `json:"record" binding:"required"`
	LineItems      []LineItemPayload `json:"line_items"`
}

type RecordPayload struct {
	URI           string     `json:"uri" binding:"required"`
	SourceSystem  string     `json:"source_system"`
	Kind          string     `json:"kind"`
	ExternalID    string     `json:"external_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CommittedAt   *time.Time `json:"committed_at,omitempty"`
	Currency      string     `json:"currency"`
	TotalCents    int64      `json:"total_cents"`
}

type LineItemPayload struct {
	URI            string          `json:"uri" binding:"required"`
	CategoryKey    string          `json:"category_key"`
	DeliverableKey string          `json:"deliverable_key"`
	GroupKey       *string         `json:"group_key,omitempty"`
	Title          string          `json:"title"`
	Quantity       int             `json:"quantity"`
	Position       int             `json:"position"`
	Config         json.RawMessage `json:"config,omitempty"`
}

type IngestResult struct {
	Duplicate    bool      `json:"duplicate"`
	RecordID     uuid.UUID `json:"record_id"`
	ProjectID    uuid.UUID `json:"project_id"`
	SnapshotHash string    `json:"snapshot_hash"`
}

// IngestService applies record upsert events: event-level dedupe, record
// upsert preserving first_seen_at, full line item replacement, and project
// row provisioning.
type IngestService interface {
	HandleRecordUpsert(ctx context.Context, workspaceID uuid.UUID, evt RecordUpsertEvent) (*IngestResult, error)
}

type ingestService struct {
	db        *gorm.DB
	log       *logger.Logger
	events    repos.IngestEventRepo
	records   repos.RecordRepo
	lineItems repos.LineItemRepo
	projects  repos.ProjectRepo
}

func NewIngestService(
	db *gorm.DB,
	baseLog *logger.Logger,
	events repos.IngestEventRepo,
	records repos.RecordRepo,
	lineItems repos.LineItemRepo,
	projects repos.ProjectRepo,
) IngestService {
	return &ingestService{
		db:        db,
		log:       baseLog.With("service", "IngestService"),
		events:    events,
		records:   records,
		lineItems: lineItems,
		projects:  projects,
	}
}

func (s *ingestService) HandleRecordUpsert(ctx context.Context, workspaceID uuid.UUID, evt RecordUpsertEvent) (*IngestResult, error) {
	payloadHash, err := canonical.HashValue(evt)
	if err != nil {
		return nil, err
	}

	inserted, err := s.events.Insert(ctx, nil, &types.IngestEvent{
		WorkspaceID:    workspaceID,
		IdempotencyKey: evt.IdempotencyKey,
		Kind:           "record_upsert",
		PayloadHash:    payloadHash,
		ReceivedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		s.log.Info("Duplicate upsert event ignored",
			"workspace_id", workspaceID,
			"idempotency_key", evt.IdempotencyKey)
		result := &IngestResult{Duplicate: true}
		if record, err := s.records.GetByURI(ctx, nil, workspaceID, evt.Record.URI); err == nil && record != nil {
			result.RecordID = record.ID
			result.SnapshotHash = record.SnapshotHash
			if project, err := s.projects.GetByRecordID(ctx, nil, record.ID); err == nil && project != nil {
				result.ProjectID = project.ID
			}
		}
		return result, nil
	}

	snapshot, err := canonical.Canonicalize(map[string]any{
		"record":     evt.Record,
		"line_items": evt.LineItems,
	})
	if err != nil {
		return nil, err
	}
	snapshotHash := canonical.ContentHash(snapshot)

	record, err := s.records.GetByURI(ctx, nil, workspaceID, evt.Record.URI)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if record == nil {
		record, err = s.records.Create(ctx, nil, &types.CommercialRecord{
			WorkspaceID:   workspaceID,
			URI:           evt.Record.URI,
			SourceSystem:  evt.Record.SourceSystem,
			Kind:          evt.Record.Kind,
			ExternalID:    evt.Record.ExternalID,
			CustomerName:  evt.Record.CustomerName,
			CustomerEmail: evt.Record.CustomerEmail,
			CommittedAt:   evt.Record.CommittedAt,
			Currency:      evt.Record.Currency,
			TotalCents:    evt.Record.TotalCents,
			Snapshot:      datatypes.JSON(snapshot),
			SnapshotHash:  snapshotHash,
			FirstSeenAt:   now,
		})
		if err != nil {
			return nil, err
		}
	} else {
		record.SourceSystem = evt.Record.SourceSystem
		record.Kind = evt.Record.Kind
		record.ExternalID = evt.Record.ExternalID
		record.CustomerName = evt.Record.CustomerName
		record.CustomerEmail = evt.Record.CustomerEmail
		record.CommittedAt = evt.Record.CommittedAt
		record.Currency = evt.Record.Currency
		record.TotalCents = evt.Record.TotalCents
		record.Snapshot = datatypes.JSON(snapshot)
		record.SnapshotHash = snapshotHash
		// FirstSeenAt stays put across upserts.
		if err := s.records.Update(ctx, nil, record); err != nil {
			return nil, err
		}
	}

	rows := make([]*types.RecordLineItem, 0, len(evt.LineItems))
	for _, li := range evt.LineItems {
		configHash := ""
		if len(li.Config) > 0 {
			if h, err := canonical.HashRaw(li.Config); err == nil {
				configHash = h
			}
		}
		rows = append(rows, &types.RecordLineItem{
			RecordID:       record.ID,
			URI:            li.URI,
			CategoryKey:    li.CategoryKey,
			DeliverableKey: li.DeliverableKey,
			GroupKey:       li.GroupKey,
			Title:          li.Title,
			Quantity:       li.Quantity,
			Position:       li.Position,
			Config:         datatypes.JSON(li.Config),
			ConfigHash:     configHash,
		})
	}
	if err := s.lineItems.ReplaceForRecord(ctx, nil, record.ID, rows); err != nil {
		return nil, err
	}

	project, err := s.projects.GetByRecordID(ctx, nil, record.ID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		name := evt.Record.ExternalID
		if name == "" {
			name = evt.Record.URI
		}
		project, err = s.projects.Create(ctx, nil, &types.Project{
			WorkspaceID: workspaceID,
			RecordID:    record.ID,
			Name:        name,
			Status:      "open",
		})
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("Applied record upsert",
		"workspace_id", workspaceID,
		"record_uri", evt.Record.URI,
		"snapshot_hash", snapshotHash,
		"line_items", len(rows))
	return &IngestResult{
		RecordID:     record.ID,
		ProjectID:    project.ID,
		SnapshotHash: snapshotHash,
	}, nil
}
