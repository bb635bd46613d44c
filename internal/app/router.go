package app

import (
	"github.com/gin-gonic/gin"

	"github.com/opsforge/opsforge-backend/internal/server"
)

func wireRouter(handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		EventHandler:        handlerset.Event,
		PlanHandler:         handlerset.Plan,
		ProjectHandler:      handlerset.Project,
		WorkspaceMiddleware: middlewareset.Workspace,
	})
}
