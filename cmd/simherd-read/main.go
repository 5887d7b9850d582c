// Package main implements the simherd-read binary.
// It reads every output file of a completed parameter sweep and prints a
// per-iteration summary, optionally dumping the decoded records as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/simherd/simherd/internal/config"
	"github.com/simherd/simherd/internal/exodus"
	"github.com/simherd/simherd/internal/sweep"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML or JSON config file")
		baseDir    = flag.String("base-dir", "", "Sweep base directory (overrides config)")
		numDirs    = flag.Int("num-dirs", 0, "Number of working directories (overrides config)")
		workers    = flag.Int("workers", 0, "Parallel read workers (overrides config)")
		outDir     = flag.String("out", "", "Directory to write per-iteration JSON records")
	)
	flag.Parse()

	cfg := loadConfig(*configPath, *baseDir, *numDirs, *workers)

	dirs, err := sweep.NewDirectoryManager(cfg.Sweep.NumDirs, cfg.Sweep.BaseDir)
	if err != nil {
		log.Fatalf("Failed to open sweep layout: %v", err)
	}

	readCfg, err := cfg.ToReadConfig()
	if err != nil {
		log.Fatalf("Invalid variable selection: %v", err)
	}

	reader := sweep.NewReader(dirs, exodus.NewFileDecoder(), sweep.ReaderConfig{
		Workers: cfg.Read.Workers,
		Read:    readCfg,
	})

	n, err := dirs.NumIterations()
	if err != nil {
		log.Fatalf("Failed to count sweep iterations: %v", err)
	}
	log.Printf("Reading %d iterations from %s across %d directories with %d workers",
		n, cfg.Sweep.BaseDir, cfg.Sweep.NumDirs, cfg.Read.Workers)

	records, err := reader.ReadParallel(context.Background(), cfg.Read.Workers)
	if err != nil {
		log.Fatalf("Sweep read failed: %v", err)
	}

	for i, rec := range records {
		log.Printf("iteration %d: %d nodes, %d time steps, %d node vars, %d elem tables, %d glob vars",
			i, rec.NumNodes(), rec.NumTimeSteps(),
			len(rec.NodeVars), len(rec.ElemVars), len(rec.GlobVars))
	}

	if vars, err := dirs.AllSweepVars(); err == nil && vars != nil {
		log.Printf("Sweep recorded %d parameter combinations", len(vars))
	}

	if *outDir != "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		for i, rec := range records {
			path := filepath.Join(*outDir, fmt.Sprintf("record-%d.json", i))
			data, err := json.Marshal(rec)
			if err != nil {
				log.Fatalf("Failed to encode record %d: %v", i, err)
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				log.Fatalf("Failed to write %s: %v", path, err)
			}
		}
		log.Printf("Wrote %d records to %s", len(records), *outDir)
	}

	log.Printf("simherd-read finished")
}

func loadConfig(path, baseDir string, numDirs, workers int) *config.Config {
	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	if baseDir != "" {
		cfg.Sweep.BaseDir = baseDir
	}
	if numDirs > 0 {
		cfg.Sweep.NumDirs = numDirs
	}
	if workers > 0 {
		cfg.Read.Workers = workers
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}
