package app

import (
	"github.com/opsforge/opsforge-backend/internal/handlers"
	"github.com/opsforge/opsforge-backend/internal/logger"
)

type Handlers struct {
	Event   *handlers.EventHandler
	Plan    *handlers.PlanHandler
	Project *handlers.ProjectHandler
}

func wireHandlers(log *logger.Logger, serviceset Services, reposet Repos) Handlers {
	return Handlers{
		Event:   handlers.NewEventHandler(log, serviceset.Ingest),
		Plan:    handlers.NewPlanHandler(log, serviceset.Plans),
		Project: handlers.NewProjectHandler(log, serviceset.Materializer, reposet.Projects, reposet.Tasks),
	}
}
