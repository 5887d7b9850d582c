package sweep

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/simherd/simherd/internal/errors"
	"github.com/simherd/simherd/pkg/simdata"
)

// Decoder turns one output file into a canonical record. Implementations
// must be safe for concurrent use: every call is expected to be a
// self-contained read-only open of the file.
type Decoder interface {
	ReadFile(path string, cfg simdata.ReadConfig) (*simdata.SimData, error)
	DiscoverConfig(path string) (simdata.ReadConfig, error)
}

// ReaderConfig holds configuration for a sweep reader.
type ReaderConfig struct {
	// Workers is the default parallel read worker count (default: 1).
	Workers int

	// Read is the selection applied to every file of the sweep. When nil,
	// the configuration is discovered once from the first output file's
	// declared name tables and then reused unmodified; files that declare
	// different variables get missing-markers rather than a mismatch error.
	Read *simdata.ReadConfig
}

// Reader is the sweep aggregation entry point. It resolves each
// iteration's output file through the directory manager, decodes it, and
// returns records in sweep-iteration order. A Reader holds no cache of
// previously read records and is safe to share across goroutines.
type Reader struct {
	dirs    *DirectoryManager
	decoder Decoder
	workers int

	cfgMu    sync.Mutex
	resolved *simdata.ReadConfig
}

// NewReader creates a sweep reader over the given directory layout.
func NewReader(dirs *DirectoryManager, decoder Decoder, cfg ReaderConfig) *Reader {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Reader{
		dirs:     dirs,
		decoder:  decoder,
		workers:  workers,
		resolved: cfg.Read,
	}
}

// Config returns the read configuration applied to every file, resolving
// it from the first output file on first use.
func (r *Reader) Config() (simdata.ReadConfig, error) {
	r.cfgMu.Lock()
	defer r.cfgMu.Unlock()

	if r.resolved != nil {
		return *r.resolved, nil
	}

	first, err := r.dirs.OutputFileForIteration(0)
	if err != nil {
		return simdata.ReadConfig{}, err
	}
	cfg, err := r.decoder.DiscoverConfig(first)
	if err != nil {
		return simdata.ReadConfig{}, errors.NewSweepError(errors.CodeReadFailed,
			"failed to discover read configuration from "+first, err)
	}
	r.resolved = &cfg
	return cfg, nil
}

// ReadOne decodes the output of a single sweep iteration.
func (r *Reader) ReadOne(ctx context.Context, iteration int) (*simdata.SimData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, err := r.Config()
	if err != nil {
		return nil, err
	}

	path, err := r.dirs.OutputFileForIteration(iteration)
	if err != nil {
		return nil, err
	}

	data, err := r.decoder.ReadFile(path, cfg)
	if err != nil {
		return nil, errors.NewSweepError(errors.CodeReadFailed,
			fmt.Sprintf("iteration %d (%s) failed to decode", iteration, path), err)
	}
	return data, nil
}

// ReadSequential decodes every iteration's output in index order on the
// calling goroutine. On failure it returns the error of the first failed
// iteration, which under the uniform lowest-index failure policy is the
// same iteration ReadParallel would report.
func (r *Reader) ReadSequential(ctx context.Context) ([]*simdata.SimData, error) {
	n, err := r.dirs.NumIterations()
	if err != nil {
		return nil, err
	}

	records := make([]*simdata.SimData, n)
	for i := 0; i < n; i++ {
		data, err := r.ReadOne(ctx, i)
		if err != nil {
			return nil, err
		}
		records[i] = data
	}
	return records, nil
}

// ReadParallel decodes every iteration's output across up to workers
// concurrent readers. Each worker opens its own decoder per file; the only
// shared state is the result slice, which is written at disjoint indexes
// and joined once all workers finish. Records are returned in
// sweep-iteration order regardless of worker completion order, since
// downstream consumers correlate record i with sweep-variable
// combination i.
//
// All iterations are attempted even when some fail; the returned error
// names the lowest failed iteration, so the outcome is deterministic
// regardless of scheduling.
func (r *Reader) ReadParallel(ctx context.Context, workers int) ([]*simdata.SimData, error) {
	if workers < 1 {
		workers = r.workers
	}

	n, err := r.dirs.NumIterations()
	if err != nil {
		return nil, err
	}

	// Resolve the configuration before fanning out so workers never race
	// on discovery.
	if _, err := r.Config(); err != nil {
		return nil, err
	}

	records := make([]*simdata.SimData, n)
	failures := make(map[int]error)

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures[i] = err
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(iteration int) {
			defer sem.Release(1)
			defer wg.Done()

			data, err := r.ReadOne(ctx, iteration)
			if err != nil {
				mu.Lock()
				failures[iteration] = err
				mu.Unlock()
				return
			}
			records[iteration] = data
		}(i)
	}

	wg.Wait()

	if len(failures) > 0 {
		return nil, lowestFailure(failures)
	}
	return records, nil
}

// lowestFailure returns the error of the lowest failed iteration.
func lowestFailure(failures map[int]error) error {
	indexes := make([]int, 0, len(failures))
	for i := range failures {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return failures[indexes[0]]
}
