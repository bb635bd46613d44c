package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/opsforge/opsforge-backend/internal/handlers"
	"github.com/opsforge/opsforge-backend/internal/middleware"
)

type RouterConfig struct {
	EventHandler        *handlers.EventHandler
	PlanHandler         *handlers.PlanHandler
	ProjectHandler      *handlers.ProjectHandler
	WorkspaceMiddleware *middleware.WorkspaceMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Workspace-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.WorkspaceMiddleware.Resolve())
	{
		api.POST("/events/record-upsert", cfg.EventHandler.RecordUpsert)
		api.GET("/plan/compile", cfg.PlanHandler.Compile)
		api.POST("/projects/:id/materialize", cfg.ProjectHandler.Materialize)
		api.GET("/projects/:id/tasks", cfg.ProjectHandler.GetTasks)
	}

	return router
}
