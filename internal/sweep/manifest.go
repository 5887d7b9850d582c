// Package sweep coordinates reading the output files of a parameter sweep
// scattered across a pool of working directories back into sweep order.
package sweep

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/simherd/simherd/internal/errors"
)

// ManifestFileName is the per-directory index recorded by the sweep driver
// when run outputs are created. It is an external contract shared with the
// producer: file ordering inside it is launch order, which keeps iteration
// resolution stable even when the filesystem's own listing order is not.
const ManifestFileName = "output_keys.json"

// SweepVarsFileName holds the ordered parameter combinations run inside a
// working directory, written by the sweep driver alongside the manifest.
const SweepVarsFileName = "sweep_vars.json"

// Manifest lists the output files produced inside one working directory,
// in launch order.
type Manifest struct {
	OutputFiles []string `json:"output_files"`
}

// LoadManifest reads the manifest inside dir. Fails with a
// MANIFEST_NOT_FOUND condition when the file is absent, signaling that the
// sweep for that directory never completed or was never run.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewManifestError(errors.CodeManifestNotFound,
				"no manifest at "+path, err)
		}
		return nil, errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to read manifest at "+path, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to parse manifest at "+path, err)
	}
	return &m, nil
}

// Save writes the manifest into dir. This is the producer side of the
// contract, used by the sweep driver and by archive restoration.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to encode manifest", err)
	}
	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to write manifest at "+path, err)
	}
	return nil
}

// VarSet is one parameter combination of the sweep, keyed by variable name.
type VarSet map[string]float64

// LoadSweepVars reads the ordered parameter combinations recorded in dir.
// Returns nil with no error when the directory has no sweep-vars file,
// since producers are not required to write one.
func LoadSweepVars(dir string) ([]VarSet, error) {
	path := filepath.Join(dir, SweepVarsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to read sweep vars at "+path, err)
	}

	var vars []VarSet
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to parse sweep vars at "+path, err)
	}
	return vars, nil
}

// SaveSweepVars writes the ordered parameter combinations into dir.
func SaveSweepVars(dir string, vars []VarSet) error {
	data, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to encode sweep vars", err)
	}
	path := filepath.Join(dir, SweepVarsFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewManifestError(errors.CodeManifestMalformed,
			"failed to write sweep vars at "+path, err)
	}
	return nil
}
