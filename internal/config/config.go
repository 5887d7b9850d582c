// Package config provides unified configuration for the simherd tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simherd/simherd/pkg/simdata"
)

// Config holds the unified configuration for the simherd tools.
type Config struct {
	// DataDir is the base directory for simherd state (catalog, scratch)
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Sweep describes the sweep output layout to read
	Sweep SweepConfig `json:"sweep" yaml:"sweep"`

	// Read controls decoding of each output file
	Read ReadSettings `json:"read" yaml:"read"`

	// Storage configuration for sweep archives
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// SweepConfig describes where a sweep's output lives.
type SweepConfig struct {
	// BaseDir is the directory holding the workdir-N pool
	BaseDir string `json:"base_dir" yaml:"base_dir"`

	// NumDirs is the number of working directories (1-1024)
	NumDirs int `json:"num_dirs" yaml:"num_dirs"`
}

// ReadSettings controls how output files are decoded.
type ReadSettings struct {
	// Workers is the number of parallel file reads
	Workers int `json:"workers" yaml:"workers"`

	// SideSets selects side-sets by name; both the node and element
	// member lists of each named set are extracted.
	SideSets []string `json:"side_sets" yaml:"side_sets"`

	// NodeVars selects nodal variables by name
	NodeVars []string `json:"node_vars" yaml:"node_vars"`

	// ElemVars selects element variables as "name:block" pairs
	ElemVars []string `json:"elem_vars" yaml:"elem_vars"`

	// GlobVars selects global variables by name
	GlobVars []string `json:"glob_vars" yaml:"glob_vars"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (required for MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DefaultConfig returns the default configuration for local use.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data/simherd",
		Sweep: SweepConfig{
			NumDirs: 4,
		},
		Read: ReadSettings{
			Workers: 4,
		},
		Storage: StorageConfig{
			Type: "local",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/simherd"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Read.Workers < 1 {
		c.Read.Workers = 1
	}
}

// CatalogPath returns the path to the catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Sweep.BaseDir == "" {
		return fmt.Errorf("sweep.base_dir is required")
	}
	if c.Sweep.NumDirs < 1 || c.Sweep.NumDirs > 1024 {
		return fmt.Errorf("sweep.num_dirs must be between 1 and 1024, got %d", c.Sweep.NumDirs)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	for _, spec := range c.Read.ElemVars {
		if _, _, err := splitElemVar(spec); err != nil {
			return err
		}
	}

	return nil
}

// ToReadConfig converts the explicit variable selection to a decoder
// selection. Returns nil when no variables are selected, which means the
// selection should be discovered from the files themselves.
func (c *Config) ToReadConfig() (*simdata.ReadConfig, error) {
	r := c.Read
	if len(r.SideSets) == 0 && len(r.NodeVars) == 0 &&
		len(r.ElemVars) == 0 && len(r.GlobVars) == 0 {
		return nil, nil
	}

	cfg := simdata.ReadConfig{
		SideSets: append([]string(nil), r.SideSets...),
		NodeVars: append([]string(nil), r.NodeVars...),
		GlobVars: append([]string(nil), r.GlobVars...),
	}

	for _, spec := range r.ElemVars {
		name, block, err := splitElemVar(spec)
		if err != nil {
			return nil, err
		}
		cfg.ElemVars = append(cfg.ElemVars, simdata.ElemVarKey{Name: name, Block: block})
	}

	return &cfg, nil
}

func splitElemVar(spec string) (string, int, error) {
	name, blockStr, found := strings.Cut(spec, ":")
	if !found || name == "" {
		return "", 0, fmt.Errorf("element variable selector %q must be name:block", spec)
	}
	var block int
	if _, err := fmt.Sscanf(blockStr, "%d", &block); err != nil || block < 1 {
		return "", 0, fmt.Errorf("element variable selector %q has invalid block %q", spec, blockStr)
	}
	return name, block, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SIMHERD_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SIMHERD_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	if v := os.Getenv("SIMHERD_SWEEP_BASE_DIR"); v != "" {
		cfg.Sweep.BaseDir = v
	}
	if v := os.Getenv("SIMHERD_SWEEP_NUM_DIRS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Sweep.NumDirs)
	}

	if v := os.Getenv("SIMHERD_READ_WORKERS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Read.Workers)
	}

	if v := os.Getenv("SIMHERD_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SIMHERD_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SIMHERD_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("SIMHERD_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("SIMHERD_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
