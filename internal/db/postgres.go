package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/types"
	"github.com/opsforge/opsforge-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "opsforge", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrate(s.db); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

// AutoMigrate is shared with the SQLite-backed tests so both dialects carry
// the same schema.
func AutoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&types.Workspace{},
		&types.CommercialRecord{},
		&types.RecordLineItem{},
		&types.Category{},
		&types.Deliverable{},
		&types.TaskTemplate{},
		&types.TemplateRule{},
		&types.Project{},
		&types.Task{},
		&types.ProjectMaterialization{},
		&types.IngestEvent{},
	)
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
