package app

import (
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/services"
)

type Services struct {
	TemplateConfig services.TemplateConfigService
	Plans          services.PlanService
	Materializer   services.MaterializeService
	Ingest         services.IngestService
	Taxonomy       services.TaxonomyService
	Notifier       services.Notifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) Services {
	notifier, err := services.NewRedisNotifier(log)
	if err != nil {
		log.Warn("Redis notifier unavailable, falling back to no-op", "error", err)
		notifier = services.NewNopNotifier()
	}

	templateConfig := services.NewTemplateConfigService(db, log, reposet.Templates, reposet.Rules)
	plans := services.NewPlanService(db, log, reposet.Records, reposet.LineItems, reposet.Taxonomy, templateConfig)
	materializer := services.NewMaterializeService(db, log, reposet.Projects, reposet.Records, reposet.Tasks, reposet.Materializations, plans, notifier)
	ingest := services.NewIngestService(db, log, reposet.IngestEvents, reposet.Records, reposet.LineItems, reposet.Projects)
	taxonomy := services.NewTaxonomyService(db, log, reposet.Workspaces, reposet.Taxonomy)

	return Services{
		TemplateConfig: templateConfig,
		Plans:          plans,
		Materializer:   materializer,
		Ingest:         ingest,
		Taxonomy:       taxonomy,
		Notifier:       notifier,
	}
}
