package app

import (
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/middleware"
)

type Middleware struct {
	Workspace *middleware.WorkspaceMiddleware
}

func wireMiddleware(log *logger.Logger, reposet Repos) Middleware {
	return Middleware{
		Workspace: middleware.NewWorkspaceMiddleware(log, reposet.Workspaces),
	}
}
