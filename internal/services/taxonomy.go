package services

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/repos"
	"github.com/opsforge/opsforge-backend/internal/types"
)

const taxonomyConfigEnv = "TAXONOMY_CONFIG_YAML"

//go:embed taxonomy.yaml
var taxonomySeedFS embed.FS

type taxonomySeed struct {
	Workspaces []workspaceSeed `yaml:"workspaces"`
}

type workspaceSeed struct {
	Slug         string            `yaml:"slug"`
	Name         string            `yaml:"name"`
	Categories   []categorySeed    `yaml:"categories"`
	Deliverables []deliverableSeed `yaml:"deliverables"`
}

type categorySeed struct {
	Key    string `yaml:"key"`
	Title  string `yaml:"title"`
	Role   string `yaml:"role"`
	Active *bool  `yaml:"active"`
}

type deliverableSeed struct {
	Key         string `yaml:"key"`
	Title       string `yaml:"title"`
	CategoryKey string `yaml:"category_key"`
	Active      *bool  `yaml:"active"`
}

// TaxonomyService seeds workspaces and their category/deliverable
// registries from the embedded YAML (or an override file). Seeding is an
// idempotent upsert so restarts never duplicate rows.
type TaxonomyService interface {
	Seed(ctx context.Context) error
}

type taxonomyService struct {
	db         *gorm.DB
	log        *logger.Logger
	workspaces repos.WorkspaceRepo
	taxonomy   repos.TaxonomyRepo
}

func NewTaxonomyService(db *gorm.DB, baseLog *logger.Logger, workspaces repos.WorkspaceRepo, taxonomy repos.TaxonomyRepo) TaxonomyService {
	return &taxonomyService{
		db:         db,
		log:        baseLog.With("service", "TaxonomyService"),
		workspaces: workspaces,
		taxonomy:   taxonomy,
	}
}

func (s *taxonomyService) Seed(ctx context.Context) error {
	seed, err := loadTaxonomySeed()
	if err != nil {
		return err
	}
	for _, ws := range seed.Workspaces {
		if strings.TrimSpace(ws.Slug) == "" {
			continue
		}
		row, err := s.workspaces.GetBySlug(ctx, nil, ws.Slug)
		if err != nil {
			return err
		}
		if row == nil {
			row, err = s.workspaces.Create(ctx, nil, &types.Workspace{
				Name:   ws.Name,
				Slug:   ws.Slug,
				Active: true,
			})
			if err != nil {
				return err
			}
			s.log.Info("Created workspace from taxonomy seed", "slug", ws.Slug)
		}

		categories := make([]*types.Category, 0, len(ws.Categories))
		for _, c := range ws.Categories {
			categories = append(categories, &types.Category{
				WorkspaceID: row.ID,
				Key:         c.Key,
				Title:       c.Title,
				Role:        c.Role,
				Active:      c.Active == nil || *c.Active,
			})
		}
		if err := s.taxonomy.UpsertCategories(ctx, nil, categories); err != nil {
			return err
		}

		deliverables := make([]*types.Deliverable, 0, len(ws.Deliverables))
		for _, d := range ws.Deliverables {
			deliverables = append(deliverables, &types.Deliverable{
				WorkspaceID: row.ID,
				Key:         d.Key,
				Title:       d.Title,
				CategoryKey: d.CategoryKey,
				Active:      d.Active == nil || *d.Active,
			})
		}
		if err := s.taxonomy.UpsertDeliverables(ctx, nil, deliverables); err != nil {
			return err
		}
		s.log.Info("Seeded taxonomy",
			"slug", ws.Slug,
			"categories", len(categories),
			"deliverables", len(deliverables))
	}
	return nil
}

func loadTaxonomySeed() (*taxonomySeed, error) {
	var raw []byte
	if path := strings.TrimSpace(os.Getenv(taxonomyConfigEnv)); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = b
	} else {
		b, err := taxonomySeedFS.ReadFile("taxonomy.yaml")
		if err != nil {
			return nil, fmt.Errorf("read embedded taxonomy seed: %w", err)
		}
		raw = b
	}
	var seed taxonomySeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse taxonomy seed: %w", err)
	}
	return &seed, nil
}
