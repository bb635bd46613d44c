package app

import (
	"github.com/opsforge/opsforge-backend/internal/logger"
	"github.com/opsforge/opsforge-backend/internal/utils"
)

type Config struct {
	HTTPPort     string
	SeedTaxonomy bool
}

func LoadConfig(log *logger.Logger) Config {
	httpPort := utils.GetEnv("HTTP_PORT", "8080", log)
	seedTaxonomy := utils.GetEnvAsInt("SEED_TAXONOMY", 1, log)
	return Config{
		HTTPPort:     httpPort,
		SeedTaxonomy: seedTaxonomy != 0,
	}
}
