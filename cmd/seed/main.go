package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/nycre/explorer/internal/config"
	"github.com/nycre/explorer/internal/database"
	"github.com/nycre/explorer/internal/ingest"
	"github.com/nycre/explorer/internal/logger"
	"github.com/nycre/explorer/internal/repository"
)

func main() {
	snapshotPath := flag.String("snapshot", "data/combined_data.json", "path to the JSON data snapshot")
	flag.Parse()

	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting snapshot load", map[string]interface{}{
		"snapshot": *snapshotPath,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	snap, err := ingest.ReadSnapshot(*snapshotPath)
	if err != nil {
		log.Fatal("Failed to read snapshot", err, map[string]interface{}{
			"snapshot": *snapshotPath,
		})
	}
	log.Info("Snapshot decoded", map[string]interface{}{
		"properties":     len(snap.Properties),
		"sales":          len(snap.Sales),
		"hpd_violations": len(snap.HPDViolations),
		"dob_violations": len(snap.DOBViolations),
	})

	loader := ingest.NewLoader(
		repository.NewPropertyRepository(db),
		repository.NewSaleRepository(db),
		repository.NewViolationRepository(db),
		log,
	)

	summary, err := loader.Load(ctx, snap)
	if err != nil {
		log.Fatal("Snapshot load failed", err, nil)
	}

	log.Info("Snapshot load complete", map[string]interface{}{
		"properties_upserted": summary.Properties.Succeeded,
		"properties_failed":   summary.Properties.Failed,
		"sales_inserted":      summary.Sales.Succeeded,
		"sales_failed":        summary.Sales.Failed,
		"violations_upserted": summary.Violations.Succeeded,
		"violations_failed":   summary.Violations.Failed,
		"skipped":             summary.Skipped,
	})
}
