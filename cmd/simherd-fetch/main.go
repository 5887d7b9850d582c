// Package main implements the simherd-fetch binary.
// It pushes a completed sweep's output tree into object storage or pulls
// an archived sweep back down for reading.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/simherd/simherd/internal/config"
	"github.com/simherd/simherd/internal/storage"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		baseDir    = flag.String("base-dir", "", "Sweep base directory (overrides config)")
		mode       = flag.String("mode", "", "Transfer direction: push or pull")
		prefix     = flag.String("prefix", "", "Object storage prefix for the sweep")
		workers    = flag.Int("workers", 0, "Parallel transfer workers (overrides config)")
	)
	flag.Parse()

	if *mode != "push" && *mode != "pull" {
		log.Fatalf("-mode must be push or pull, got %q", *mode)
	}
	if *prefix == "" {
		log.Fatalf("-prefix is required")
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)
	if *baseDir != "" {
		cfg.Sweep.BaseDir = *baseDir
	}
	if *workers > 0 {
		cfg.Read.Workers = *workers
	}
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create data directories: %v", err)
	}

	ctx := context.Background()
	store := openStorage(ctx, cfg)
	archive := storage.NewSweepArchive(store, cfg.Read.Workers)

	switch *mode {
	case "push":
		n, err := archive.Push(ctx, cfg.Sweep.BaseDir, *prefix)
		if err != nil {
			log.Fatalf("Push failed after %d files: %v", n, err)
		}
		log.Printf("Pushed %d files from %s to %s", n, cfg.Sweep.BaseDir, *prefix)
	case "pull":
		n, err := archive.Pull(ctx, *prefix, cfg.Sweep.BaseDir)
		if err != nil {
			log.Fatalf("Pull failed after %d files: %v", n, err)
		}
		log.Printf("Pulled %d files from %s into %s", n, *prefix, cfg.Sweep.BaseDir)
	}
}

func openStorage(ctx context.Context, cfg *config.Config) storage.ObjectStorage {
	switch cfg.Storage.Type {
	case "s3":
		store, err := storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.UsePathStyle,
		})
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		log.Printf("Using S3 bucket %s", cfg.Storage.S3.Bucket)
		return store
	default:
		store, err := storage.NewLocalStorage(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
		log.Printf("Using local storage at %s", cfg.Storage.Path)
		return store
	}
}
