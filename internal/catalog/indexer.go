package catalog

import (
	"context"
	"os"

	"github.com/simherd/simherd/internal/errors"
	"github.com/simherd/simherd/internal/sweep"
	"github.com/simherd/simherd/pkg/simdata"
)

// Indexer walks a completed sweep and records every iteration's output in
// the catalog. Each file is decoded just enough to capture its shape;
// variable selection is left empty so only the always-present mesh and
// time data are read.
type Indexer struct {
	catalog Catalog
	dirs    *sweep.DirectoryManager
	decoder sweep.Decoder
}

// NewIndexer creates an indexer over the given sweep layout.
func NewIndexer(catalog Catalog, dirs *sweep.DirectoryManager, decoder sweep.Decoder) *Indexer {
	return &Indexer{catalog: catalog, dirs: dirs, decoder: decoder}
}

// IndexSweep registers a new session for the sweep and one run per
// iteration. Returns the created session.
func (ix *Indexer) IndexSweep(ctx context.Context) (*Session, error) {
	n, err := ix.dirs.NumIterations()
	if err != nil {
		return nil, err
	}

	session, err := ix.catalog.BeginSession(ctx, ix.dirs.BaseDir(), ix.dirs.NumDirs())
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := ix.dirs.OutputFileForIteration(i)
		if err != nil {
			return nil, err
		}

		rec, err := ix.describeRun(path)
		if err != nil {
			return nil, errors.NewCatalogError(errors.CodeUnexpected,
				"failed to index "+path, err)
		}
		rec.SessionID = session.SessionID
		rec.Iteration = i

		if err := ix.catalog.RegisterRun(ctx, rec); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (ix *Indexer) describeRun(path string) (*RunRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	checksum, err := ChecksumFile(path)
	if err != nil {
		return nil, err
	}

	data, err := ix.decoder.ReadFile(path, simdata.ReadConfig{})
	if err != nil {
		return nil, err
	}

	return &RunRecord{
		FilePath:     path,
		Checksum:     checksum,
		NumNodes:     data.NumNodes(),
		NumTimeSteps: data.NumTimeSteps(),
		SizeBytes:    info.Size(),
	}, nil
}

// Verify compares every indexed run of a session against the files on
// disk, returning the iterations whose checksum no longer matches.
func (ix *Indexer) Verify(ctx context.Context, sessionID string) ([]int, error) {
	runs, err := ix.catalog.ListRuns(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var mismatched []int
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		checksum, err := ChecksumFile(run.FilePath)
		if err != nil {
			mismatched = append(mismatched, run.Iteration)
			continue
		}
		if checksum != run.Checksum {
			mismatched = append(mismatched, run.Iteration)
		}
	}
	return mismatched, nil
}
