package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsforge/opsforge-backend/internal/apierr"
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/requestdata"
	"github.com/opsforge/opsforge-backend/internal/server/response"
	"github.com/opsforge/opsforge-backend/internal/services"
)

type EventHandler struct {
	log    *logger.Logger
	ingest services.IngestService
}

func NewEventHandler(log *logger.Logger, ingest services.IngestService) *EventHandler {
	return &EventHandler{
		log:    log.With("handler", "EventHandler"),
		ingest: ingest,
	}
}

// POST /api/events/record-upsert
func (h *EventHandler) RecordUpsert(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkspaceID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "workspace_required", nil)
		return
	}

	var evt services.RecordUpsertEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_event_payload", err)
		return
	}

	result, err := h.ingest.HandleRecordUpsert(c.Request.Context(), rd.WorkspaceID, evt)
	if err != nil {
		h.log.Error("RecordUpsert failed", "error", err, "record_uri", evt.Record.URI)
		response.RespondAPIError(c, apierr.New(http.StatusInternalServerError, "record_upsert_failed", err))
		return
	}
	c.JSON(http.StatusAccepted, result)
}
