// Package main implements the simherd-index binary.
// It registers a completed sweep in the catalog, recording one run per
// iteration with its checksum and decoded shape, and can verify a
// previously indexed session against the files on disk.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/simherd/simherd/internal/catalog"
	"github.com/simherd/simherd/internal/config"
	"github.com/simherd/simherd/internal/exodus"
	"github.com/simherd/simherd/internal/sweep"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		baseDir    = flag.String("base-dir", "", "Sweep base directory (overrides config)")
		numDirs    = flag.Int("num-dirs", 0, "Number of working directories (overrides config)")
		verify     = flag.String("verify", "", "Verify the given session instead of indexing")
		list       = flag.Bool("list", false, "List indexed sessions and exit")
	)
	flag.Parse()

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
	if *numDirs > 0 {
		cfg.Sweep.NumDirs = *numDirs
	}
	cfg.Resolve()
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("Failed to create data directories: %v", err)
	}

	cat, err := catalog.NewCatalog(cfg.CatalogPath())
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer cat.Close()
	log.Printf("Catalog opened at %s", cfg.CatalogPath())

	ctx := context.Background()

	if *list {
		sessions, err := cat.ListSessions(ctx)
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
		for _, s := range sessions {
			log.Printf("session %s: %s (%d dirs, indexed %s)",
				s.SessionID, s.BaseDir, s.NumDirs, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	dirs, err := sweep.NewDirectoryManager(cfg.Sweep.NumDirs, cfg.Sweep.BaseDir)
	if err != nil {
		log.Fatalf("Failed to open sweep layout: %v", err)
	}
	indexer := catalog.NewIndexer(cat, dirs, exodus.NewFileDecoder())

	if *verify != "" {
		mismatched, err := indexer.Verify(ctx, *verify)
		if err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		if len(mismatched) > 0 {
			log.Fatalf("Session %s has %d modified iterations: %v", *verify, len(mismatched), mismatched)
		}
		log.Printf("Session %s verified: all runs match the catalog", *verify)
		return
	}

	session, err := indexer.IndexSweep(ctx)
	if err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}
	runs, err := cat.ListRuns(ctx, session.SessionID)
	if err != nil {
		log.Fatalf("Failed to list indexed runs: %v", err)
	}
	log.Printf("Indexed session %s: %d runs from %s", session.SessionID, len(runs), cfg.Sweep.BaseDir)
}
