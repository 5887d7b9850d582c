package sweep

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/simherd/simherd/internal/errors"
)

// WorkDirPrefix names the working directories under the base path:
// workdir-1 .. workdir-D.
const WorkDirPrefix = "workdir-"

// DirectoryManager owns the mapping from a linear sweep-iteration index to
// one of a fixed number of working directories, and to the manifest of
// output files inside each. It is pure bookkeeping over a filesystem layout
// it does not create: the directory count and base path are immutable after
// construction and the layout is only ever consulted read-only, so a single
// manager is safe to share across concurrent readers.
type DirectoryManager struct {
	numDirs int
	baseDir string

	// Manifests are immutable once written by the producer; they are
	// loaded lazily and memoized.
	mu        sync.RWMutex
	manifests map[int]*Manifest
}

// NewDirectoryManager creates a manager for numDirs working directories
// under baseDir.
func NewDirectoryManager(numDirs int, baseDir string) (*DirectoryManager, error) {
	if numDirs < 1 {
		return nil, errors.NewConfigError(
			fmt.Sprintf("directory count must be at least 1, got %d", numDirs))
	}
	return &DirectoryManager{
		numDirs:   numDirs,
		baseDir:   baseDir,
		manifests: make(map[int]*Manifest),
	}, nil
}

// NumDirs returns the fixed working-directory count.
func (m *DirectoryManager) NumDirs() int { return m.numDirs }

// BaseDir returns the base path holding the working directories.
func (m *DirectoryManager) BaseDir() string { return m.baseDir }

// DirIndex maps a 0-based sweep-iteration index to its 0-based directory
// index. The mapping is a pure function: iteration i always lands in
// directory i mod D, independent of call order or prior reads.
func (m *DirectoryManager) DirIndex(iteration int) int {
	return iteration % m.numDirs
}

// DirPath returns the path of the working directory at the given 0-based
// directory index: base/workdir-<index+1>.
func (m *DirectoryManager) DirPath(dirIndex int) string {
	return filepath.Join(m.baseDir, fmt.Sprintf("%s%d", WorkDirPrefix, dirIndex+1))
}

// OutputFiles returns the ordered output file paths recorded in the
// manifest of the given directory, resolved against the directory path.
func (m *DirectoryManager) OutputFiles(dirIndex int) ([]string, error) {
	manifest, err := m.manifest(dirIndex)
	if err != nil {
		return nil, err
	}

	dir := m.DirPath(dirIndex)
	files := make([]string, len(manifest.OutputFiles))
	for i, f := range manifest.OutputFiles {
		if filepath.IsAbs(f) {
			files[i] = f
		} else {
			files[i] = filepath.Join(dir, f)
		}
	}
	return files, nil
}

// OutputFileForIteration resolves the output file of one sweep iteration.
// Iterations are distributed round-robin, so iteration i is entry i/D in
// the manifest of directory i mod D.
func (m *DirectoryManager) OutputFileForIteration(iteration int) (string, error) {
	if iteration < 0 {
		return "", errors.NewSweepError(errors.CodeIterationOutOfRange,
			fmt.Sprintf("iteration index %d is negative", iteration), nil)
	}

	dirIndex := m.DirIndex(iteration)
	files, err := m.OutputFiles(dirIndex)
	if err != nil {
		return "", err
	}

	pos := iteration / m.numDirs
	if pos >= len(files) {
		return "", errors.NewSweepError(errors.CodeIterationOutOfRange,
			fmt.Sprintf("iteration %d expects entry %d of directory %d, manifest has %d",
				iteration, pos, dirIndex, len(files)), nil)
	}
	return files[pos], nil
}

// NumIterations returns the total number of recorded sweep iterations,
// summed over every directory's manifest.
func (m *DirectoryManager) NumIterations() (int, error) {
	total := 0
	for d := 0; d < m.numDirs; d++ {
		files, err := m.OutputFiles(d)
		if err != nil {
			return 0, err
		}
		total += len(files)
	}
	return total, nil
}

// AllOutputFiles returns every recorded output file in sweep-iteration
// order, interleaving the per-directory manifests round-robin.
func (m *DirectoryManager) AllOutputFiles() ([]string, error) {
	perDir := make([][]string, m.numDirs)
	total := 0
	for d := 0; d < m.numDirs; d++ {
		files, err := m.OutputFiles(d)
		if err != nil {
			return nil, err
		}
		perDir[d] = files
		total += len(files)
	}

	ordered := make([]string, 0, total)
	for pos := 0; len(ordered) < total; pos++ {
		for d := 0; d < m.numDirs; d++ {
			if pos < len(perDir[d]) {
				ordered = append(ordered, perDir[d][pos])
			}
		}
	}
	return ordered, nil
}

// AllSweepVars returns every recorded parameter combination in
// sweep-iteration order, interleaved the same way as AllOutputFiles.
// Returns nil when no directory recorded sweep variables.
func (m *DirectoryManager) AllSweepVars() ([]VarSet, error) {
	perDir := make([][]VarSet, m.numDirs)
	total := 0
	for d := 0; d < m.numDirs; d++ {
		vars, err := LoadSweepVars(m.DirPath(d))
		if err != nil {
			return nil, err
		}
		perDir[d] = vars
		total += len(vars)
	}
	if total == 0 {
		return nil, nil
	}

	ordered := make([]VarSet, 0, total)
	for pos := 0; len(ordered) < total; pos++ {
		for d := 0; d < m.numDirs; d++ {
			if pos < len(perDir[d]) {
				ordered = append(ordered, perDir[d][pos])
			}
		}
	}
	return ordered, nil
}

// manifest loads and memoizes one directory's manifest.
func (m *DirectoryManager) manifest(dirIndex int) (*Manifest, error) {
	if dirIndex < 0 || dirIndex >= m.numDirs {
		return nil, errors.NewSweepError(errors.CodeIterationOutOfRange,
			fmt.Sprintf("directory index %d out of range [0,%d)", dirIndex, m.numDirs), nil)
	}

	m.mu.RLock()
	cached, ok := m.manifests[dirIndex]
	m.mu.RUnlock()
	if ok {
		return cached, nil
	}

	manifest, err := LoadManifest(m.DirPath(dirIndex))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.manifests[dirIndex] = manifest
	m.mu.Unlock()
	return manifest, nil
}
