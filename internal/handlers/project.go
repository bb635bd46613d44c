package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsforge/opsforge-backend/internal/apierr"
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/requestdata"
	"github.com/opsforge/opsforge-backend/internal/server/response"
	"github.com/opsforge/opsforge-backend/internal/services"
)

type ProjectHandler struct {
	log          *logger.Logger
	materializer services.MaterializeService
	projects     repos.ProjectRepo
	tasks        repos.TaskRepo
}

func NewProjectHandler(
	log *logger.Logger,
	materializer services.MaterializeService,
	projects repos.ProjectRepo,
	tasks repos.TaskRepo,
) *ProjectHandler {
	return &ProjectHandler{
		log:          log.With("handler", "ProjectHandler"),
		materializer: materializer,
		projects:     projects,
		tasks:        tasks,
	}
}

type materializeRequest struct {
	DryRun bool `json:"dry_run"`
}

// POST /api/projects/:id/materialize
func (h *ProjectHandler) Materialize(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkspaceID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "workspace_required", nil)
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil || projectID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}

	var req materializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
			return
		}
	}

	result, err := h.materializer.Materialize(c.Request.Context(), projectID, req.DryRun)
	if err != nil {
		e := materializeError(err)
		if e.Status >= http.StatusInternalServerError {
			h.log.Error("Materialize failed", "error", err, "project_id", projectID)
		}
		response.RespondAPIError(c, e)
		return
	}
	response.RespondOK(c, result)
}

func materializeError(err error) *apierr.Error {
	switch {
	case errors.Is(err, services.ErrProjectNotFound), errors.Is(err, services.ErrRecordNotFound):
		return apierr.New(http.StatusNotFound, "project_not_found", err)
	case errors.Is(err, services.ErrPartialMaterialization):
		return apierr.New(http.StatusInternalServerError, "materialization_partial", err)
	default:
		return apierr.New(http.StatusInternalServerError, "materialize_failed", err)
	}
}

// GET /api/projects/:id/tasks
func (h *ProjectHandler) GetTasks(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.WorkspaceID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "workspace_required", nil)
		return
	}

	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil || projectID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}

	project, err := h.projects.GetByID(c.Request.Context(), nil, projectID)
	if err != nil {
		h.log.Error("GetTasks failed (load project)", "error", err, "project_id", projectID)
		response.RespondError(c, http.StatusInternalServerError, "load_project_failed", err)
		return
	}
	if project == nil || project.WorkspaceID != rd.WorkspaceID {
		response.RespondError(c, http.StatusNotFound, "project_not_found", nil)
		return
	}

	tasks, err := h.tasks.GetByProjectID(c.Request.Context(), nil, projectID)
	if err != nil {
		h.log.Error("GetTasks failed (load tasks)", "error", err, "project_id", projectID)
		response.RespondError(c, http.StatusInternalServerError, "load_tasks_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks})
}
