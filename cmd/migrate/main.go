package main

import (
	"flag"
	"os"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/app"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/config"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/postgres"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	source := flag.String("source", "file://migrations", "migration source URL")
	down := flag.Int("down", 0, "number of migrations to roll back instead of migrating up")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := app.SetupLogger(cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	if cfg.Database.Driver != "postgres" {
		log.Info().Str("driver", cfg.Database.Driver).Msg("nothing to migrate")
		os.Exit(0)
	}

	log.Info().Str("host", cfg.Database.Host).Int("port", cfg.Database.Port).Msg("Connecting to database")

	if *down > 0 {
		if err := postgres.RollbackMigrations(cfg.Database.DSN(), *source, *down); err != nil {
			log.Fatal().Err(err).Msg("Rollback failed")
		}
		log.Info().Int("steps", *down).Msg("Rollback complete")
		return
	}

	if err := postgres.RunMigrations(cfg.Database.DSN(), *source); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
