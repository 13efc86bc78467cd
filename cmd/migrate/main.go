package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"tamperstat/adapters/archive"
	"tamperstat/domain/run"
	"tamperstat/internal/config"
	"tamperstat/internal/migration"
)

func main() {
	if len(os.Args) > 2 {
		log.Fatal("Usage: migrate [run_export_dir]")
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	log.Printf("Migrating %s archive %s to schema %s", cfg.Archive.Driver, cfg.Archive.DSN, migration.NewRunner().Version())

	// Open applies the schema
	db, err := archive.Open(ctx, cfg.Archive.Driver, cfg.Archive.DSN)
	if err != nil {
		log.Fatalf("Failed to open archive: %v", err)
	}
	defer db.Close()

	if len(os.Args) < 2 {
		log.Printf("Schema is up to date")
		return
	}

	exportDir := os.Args[1]
	files, err := findExportFiles(exportDir)
	if err != nil {
		log.Fatalf("Failed to find run exports: %v", err)
	}
	log.Printf("Found %d run exports to import", len(files))

	repo := archive.NewRunRepository(db)
	imported := 0
	skipped := 0

	for _, file := range files {
		export, err := loadExportFromFile(file)
		if err != nil {
			log.Printf("Failed to load run export from %s: %v", file, err)
			skipped++
			continue
		}

		if _, err := uuid.Parse(export.Run.ID.String()); err != nil {
			log.Printf("Skipping %s: run id %q is not a UUID", filepath.Base(file), export.Run.ID)
			skipped++
			continue
		}

		if existing, err := repo.GetRun(ctx, export.Run.ID); err == nil && existing != nil {
			log.Printf("Run %s already archived, skipping %s", existing.ID, filepath.Base(file))
			skipped++
			continue
		}

		if err := repo.SaveRun(ctx, export.Run, export.Metrics); err != nil {
			log.Printf("Failed to save run %s: %v", export.Run.ID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported run %s (%d metrics) from %s", export.Run.ID, len(export.Metrics), filepath.Base(file))
	}

	log.Printf("Migration complete: %d imported, %d skipped", imported, skipped)
}

func findExportFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadExportFromFile(filePath string) (*run.Export, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var export run.Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, err
	}
	if err := export.Validate(); err != nil {
		return nil, err
	}

	return &export, nil
}
