package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsforge/opsforge-backend/internal/apierr"
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/requestdata"
	"github.com/opsforge/opsforge-backend/internal/server/response"
	"github.com/opsforge/opsforge-backend/internal/services"
)

type PlanHandler struct {
	log   *logger.Logger
	plans services.PlanService
}

func NewPlanHandler(log *logger.Logger, plans services.PlanService) *PlanHandler {
	return &PlanHandler{
		log:   log.With("handler", "PlanHandler"),
		plans: plans,
	}
}

// GET /api/plan/compile?record_uri=...
//
// Read-only compile preview: returns the full compiled plan with its
// deterministic plan id. Warnings ride along in the payload; only a missing
// record is an error.
func (h *PlanHandler) Compile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkspaceID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "workspace_required", nil)
		return
	}

	recordURI := c.Query("record_uri")
	if recordURI == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_record_uri", nil)
		return
	}

	compiled, _, err := h.plans.Compile(c.Request.Context(), rd.WorkspaceID, recordURI)
	if err != nil {
		e := compileError(err)
		if e.Status >= http.StatusInternalServerError {
			h.log.Error("Compile failed", "error", err, "record_uri", recordURI)
		}
		response.RespondAPIError(c, e)
		return
	}
	response.RespondOK(c, compiled)
}

func compileError(err error) *apierr.Error {
	if errors.Is(err, services.ErrRecordNotFound) {
		return apierr.New(http.StatusNotFound, "record_not_found", err)
	}
	return apierr.New(http.StatusInternalServerError, "compile_failed", err)
}
