package main

import (
	"context"
	"flag"
	"log"

	"github.com/muhammadchandra19/orderbook-recon/pkg/config"
	"github.com/muhammadchandra19/orderbook-recon/pkg/logger"
	"github.com/muhammadchandra19/orderbook-recon/pkg/migration"
	"github.com/muhammadchandra19/orderbook-recon/pkg/questdb"
)

func main() {
	var (
		dir   = flag.String("dir", "internal/infrastructure/questdb/migrations", "Migration directory")
		down  = flag.Bool("down", false, "Revert migrations instead of applying them")
		steps = flag.Int("steps", 0, "Number of migrations to apply or revert (0 applies all pending)")
	)
	flag.Parse()

	appLogger, err := logger.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Only the QuestDB settings are needed here, the feed config is not.
	var cfg struct {
		QuestDB questdb.Config `envPrefix:"QUESTDB_"`
	}
	if err := config.Load(&cfg); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	client, err := questdb.NewClient(ctx, cfg.QuestDB)
	if err != nil {
		log.Fatalf("Failed to initialize QuestDB client: %v", err)
	}
	defer client.Close()

	runner := migration.NewRunner(client, appLogger, *dir)
	if err := runner.EnsureMigrationTable(ctx); err != nil {
		log.Fatalf("Failed to ensure migration table: %v", err)
	}

	if *down {
		if err := runner.MigrateDown(ctx, *steps); err != nil {
			log.Fatalf("Failed to revert migrations: %v", err)
		}
	} else {
		if err := runner.MigrateUp(ctx, *steps); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	log.Println("Migrations completed successfully")
}
