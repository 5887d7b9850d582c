package sweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_DirectoryAssignment validates that the iteration-to-directory
// mapping is a pure function of the iteration index and the directory count:
// iteration i always lands in directory i mod D, and resolving the same
// iteration repeatedly or in any order never changes the answer.
func TestProperty_DirectoryAssignment(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("iteration i maps to directory i mod D", prop.ForAll(
		func(iteration, numDirs int) bool {
			m, err := NewDirectoryManager(numDirs, "/sweeps/base")
			if err != nil {
				return false
			}
			return m.DirIndex(iteration) == iteration%numDirs
		},
		gen.IntRange(0, 100000),
		gen.IntRange(1, 64),
	))

	properties.Property("assignment is independent of call order", prop.ForAll(
		func(iterations []int, numDirs int) bool {
			m, err := NewDirectoryManager(numDirs, "/sweeps/base")
			if err != nil {
				return false
			}

			first := make([]int, len(iterations))
			for i, it := range iterations {
				first[i] = m.DirIndex(it)
			}
			// Replay in reverse and compare.
			for i := len(iterations) - 1; i >= 0; i-- {
				if m.DirIndex(iterations[i]) != first[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100000)),
		gen.IntRange(1, 64),
	))

	properties.Property("directory paths are distinct and 1-based", prop.ForAll(
		func(numDirs int) bool {
			m, err := NewDirectoryManager(numDirs, "/sweeps/base")
			if err != nil {
				return false
			}
			seen := make(map[string]bool)
			for d := 0; d < numDirs; d++ {
				p := m.DirPath(d)
				if seen[p] {
					return false
				}
				seen[p] = true
				if filepath.Base(p) != fmt.Sprintf("workdir-%d", d+1) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}

// TestProperty_ParallelMatchesSequential validates that for any sweep size,
// directory count and worker count, parallel reads return the same records
// in the same order as sequential reads.
func TestProperty_ParallelMatchesSequential(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("worker count never changes record order", prop.ForAll(
		func(numIterations, numDirs, workers int) bool {
			base, err := os.MkdirTemp("", "sweep-prop-")
			if err != nil {
				return false
			}
			defer os.RemoveAll(base)

			manifests := make([]*Manifest, numDirs)
			for d := 0; d < numDirs; d++ {
				manifests[d] = &Manifest{}
			}
			for i := 0; i < numIterations; i++ {
				d := i % numDirs
				manifests[d].OutputFiles = append(manifests[d].OutputFiles,
					fmt.Sprintf("sim-%d.e", i))
			}
			for d := 0; d < numDirs; d++ {
				dir := filepath.Join(base, fmt.Sprintf("%s%d", WorkDirPrefix, d+1))
				if err := os.MkdirAll(dir, 0755); err != nil {
					return false
				}
				if err := manifests[d].Save(dir); err != nil {
					return false
				}
			}

			dirs, err := NewDirectoryManager(numDirs, base)
			if err != nil {
				return false
			}
			dec := &stubDecoder{fail: make(map[string]bool)}
			reader := NewReader(dirs, dec, ReaderConfig{})

			seq, err := reader.ReadSequential(context.Background())
			if err != nil {
				return false
			}
			par, err := reader.ReadParallel(context.Background(), workers)
			if err != nil {
				return false
			}

			if len(seq) != numIterations || len(par) != numIterations {
				return false
			}
			for i := 0; i < numIterations; i++ {
				if seq[i].Time[0] != par[i].Time[0] {
					return false
				}
				if seq[i].Time[0] != float64(i) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 24),
		gen.IntRange(1, 6),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}
