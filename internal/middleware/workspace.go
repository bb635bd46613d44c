package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/requestdata"
)

const workspaceHeader = "X-Workspace-ID"

// WorkspaceMiddleware resolves the calling workspace from a trusted header
// (an id or a slug) and stashes it on the request context. Authentication
// proper happens upstream of this service.
type WorkspaceMiddleware struct {
	log        *logger.Logger
	workspaces repos.WorkspaceRepo
}

func NewWorkspaceMiddleware(log *logger.Logger, workspaces repos.WorkspaceRepo) *WorkspaceMiddleware {
	return &WorkspaceMiddleware{
		log:        log.With("middleware", "WorkspaceMiddleware"),
		workspaces: workspaces,
	}
}

func (wm *WorkspaceMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(workspaceHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing workspace header"})
			return
		}

		ctx := c.Request.Context()
		var (
			ws  = (*requestdata.RequestData)(nil)
			err error
		)
		if id, parseErr := uuid.Parse(raw); parseErr == nil {
			row, lookupErr := wm.workspaces.GetByID(ctx, nil, id)
			err = lookupErr
			if row != nil {
				ws = &requestdata.RequestData{WorkspaceID: row.ID, WorkspaceSlug: row.Slug}
			}
		} else {
			row, lookupErr := wm.workspaces.GetBySlug(ctx, nil, raw)
			err = lookupErr
			if row != nil {
				ws = &requestdata.RequestData{WorkspaceID: row.ID, WorkspaceSlug: row.Slug}
			}
		}
		if err != nil {
			wm.log.Error("Workspace lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "workspace lookup failed"})
			return
		}
		if ws == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown workspace"})
			return
		}

		c.Request = c.Request.WithContext(requestdata.WithRequestData(ctx, ws))
		c.Next()
	}
}
