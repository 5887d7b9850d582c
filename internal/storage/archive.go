package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"golang.org/x/sync/semaphore"
)

// archiveSuffix marks snappy-compressed objects in the store.
const archiveSuffix = ".sz"

// SweepArchive moves a whole sweep base directory in and out of object
// storage. Every file is snappy-compressed on the way up and decompressed
// on the way down, and transfers run in parallel behind a bounded worker
// pool. Manifests travel with the tree, so a pulled sweep is immediately
// readable through the directory manager.
type SweepArchive struct {
	store   ObjectStorage
	workers int
}

// NewSweepArchive creates an archive over the given store with up to
// workers concurrent transfers.
func NewSweepArchive(store ObjectStorage, workers int) *SweepArchive {
	if workers < 1 {
		workers = 1
	}
	return &SweepArchive{store: store, workers: workers}
}

// Push uploads every file under baseDir to the store under prefix,
// compressed. Returns the number of files uploaded. All files are
// attempted; on failure the returned error is that of the first failed
// path in lexicographic order.
func (a *SweepArchive) Push(ctx context.Context, baseDir, prefix string) (int, error) {
	var files []string
	err := filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, errUploadFailed(prefix, err)
	}

	scratch, err := os.MkdirTemp("", "simherd-push-")
	if err != nil {
		return 0, errUploadFailed(prefix, err)
	}
	defer os.RemoveAll(scratch)

	sem := semaphore.NewWeighted(int64(a.workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := make(map[string]error)
	uploaded := 0

	for i, path := range files {
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return 0, errUploadFailed(path, err)
		}
		key := prefix + "/" + filepath.ToSlash(rel) + archiveSuffix
		compressed := filepath.Join(scratch, "part-"+strconv.Itoa(i))

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures[key] = err
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(path, compressed, key string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := compressFile(path, compressed); err != nil {
				mu.Lock()
				failures[key] = errUploadFailed(key, err)
				mu.Unlock()
				return
			}
			if err := a.store.Upload(ctx, compressed, key); err != nil {
				mu.Lock()
				failures[key] = err
				mu.Unlock()
				return
			}
			mu.Lock()
			uploaded++
			mu.Unlock()
		}(path, compressed, key)
	}

	wg.Wait()

	if len(failures) > 0 {
		return uploaded, firstFailure(failures)
	}
	return uploaded, nil
}

// Pull downloads every object under prefix into destDir, decompressed and
// laid out with their original relative paths. Returns the number of files
// restored.
func (a *SweepArchive) Pull(ctx context.Context, prefix, destDir string) (int, error) {
	keys, err := a.store.ListObjects(ctx, prefix)
	if err != nil {
		return 0, errDownloadFailed(prefix, err)
	}

	scratch, err := os.MkdirTemp("", "simherd-pull-")
	if err != nil {
		return 0, errDownloadFailed(prefix, err)
	}
	defer os.RemoveAll(scratch)

	sem := semaphore.NewWeighted(int64(a.workers))
	var wg sync.WaitGroup
	var mu sync.Mutex
	failures := make(map[string]error)
	restored := 0

	for i, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		rel = strings.TrimPrefix(rel, "/")
		rel = strings.TrimSuffix(rel, archiveSuffix)
		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		compressed := filepath.Join(scratch, "part-"+strconv.Itoa(i))

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures[key] = err
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(key, compressed, dest string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := a.store.Download(ctx, key, compressed); err != nil {
				mu.Lock()
				failures[key] = err
				mu.Unlock()
				return
			}
			if err := decompressFile(compressed, dest); err != nil {
				mu.Lock()
				failures[key] = errDownloadFailed(key, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			restored++
			mu.Unlock()
		}(key, compressed, dest)
	}

	wg.Wait()

	if len(failures) > 0 {
		return restored, firstFailure(failures)
	}
	return restored, nil
}

func compressFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, snappy.Encode(nil, data), 0644)
}

func decompressFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	decoded, err := snappy.Decode(nil, data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, decoded, 0644)
}

// firstFailure returns the error of the lexicographically first failed key.
func firstFailure(failures map[string]error) error {
	keys := make([]string, 0, len(failures))
	for k := range failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return failures[keys[0]]
}
