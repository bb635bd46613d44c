package app

import (
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/repos"
)

type Repos struct {
	Workspaces       repos.WorkspaceRepo
	Records          repos.RecordRepo
	LineItems        repos.LineItemRepo
	Taxonomy         repos.TaxonomyRepo
	Templates        repos.TemplateRepo
	Rules            repos.RuleRepo
	Projects         repos.ProjectRepo
	Tasks            repos.TaskRepo
	Materializations repos.MaterializationRepo
	IngestEvents     repos.IngestEventRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Workspaces:       repos.NewWorkspaceRepo(db, log),
		Records:          repos.NewRecordRepo(db, log),
		LineItems:        repos.NewLineItemRepo(db, log),
		Taxonomy:         repos.NewTaxonomyRepo(db, log),
		Templates:        repos.NewTemplateRepo(db, log),
		Rules:            repos.NewRuleRepo(db, log),
		Projects:         repos.NewProjectRepo(db, log),
		Tasks:            repos.NewTaskRepo(db, log),
		Materializations: repos.NewMaterializationRepo(db, log),
		IngestEvents:     repos.NewIngestEventRepo(db, log),
	}
}
