package sweep

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	simerrors "github.com/simherd/simherd/internal/errors"
	"github.com/simherd/simherd/pkg/simdata"
)

// stubDecoder fabricates a record whose first time value is the iteration
// number parsed from the file name, so tests can check that record i really
// came from iteration i's file. Failures are keyed by basename.
type stubDecoder struct {
	mu            sync.Mutex
	discoverCalls int
	readCalls     int
	fail          map[string]bool
}

func (d *stubDecoder) ReadFile(path string, cfg simdata.ReadConfig) (*simdata.SimData, error) {
	d.mu.Lock()
	d.readCalls++
	failed := d.fail[filepath.Base(path)]
	d.mu.Unlock()

	if failed {
		return nil, fmt.Errorf("container %s is truncated", filepath.Base(path))
	}

	iter, err := iterationFromName(path)
	if err != nil {
		return nil, err
	}
	return &simdata.SimData{
		Time: []float64{float64(iter)},
		GlobVars: map[string][]float64{
			"react_y": {float64(iter) * 10},
		},
	}, nil
}

func (d *stubDecoder) DiscoverConfig(path string) (simdata.ReadConfig, error) {
	d.mu.Lock()
	d.discoverCalls++
	d.mu.Unlock()
	return simdata.ReadConfig{GlobVars: []string{"react_y"}}, nil
}

func iterationFromName(path string) (int, error) {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, "sim-")
	base = strings.TrimSuffix(base, ".e")
	return strconv.Atoi(base)
}

func newTestReader(t *testing.T, numDirs, numIterations int, cfg ReaderConfig) (*Reader, *stubDecoder) {
	t.Helper()
	base := buildSweepLayout(t, numDirs, numIterations)
	dirs, err := NewDirectoryManager(numDirs, base)
	if err != nil {
		t.Fatalf("NewDirectoryManager failed: %v", err)
	}
	dec := &stubDecoder{fail: make(map[string]bool)}
	return NewReader(dirs, dec, cfg), dec
}

func checkSweepOrder(t *testing.T, records []*simdata.SimData, want int) {
	t.Helper()
	if len(records) != want {
		t.Fatalf("got %d records, want %d", len(records), want)
	}
	for i, rec := range records {
		if rec == nil {
			t.Fatalf("record %d is nil", i)
		}
		if got := int(rec.Time[0]); got != i {
			t.Errorf("record %d came from iteration %d", i, got)
		}
	}
}

func TestReader_ReadOne(t *testing.T) {
	r, _ := newTestReader(t, 4, 8, ReaderConfig{})

	data, err := r.ReadOne(context.Background(), 5)
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	if got := int(data.Time[0]); got != 5 {
		t.Errorf("ReadOne(5) returned record of iteration %d", got)
	}
}

func TestReader_ReadSequentialOrder(t *testing.T) {
	r, _ := newTestReader(t, 4, 8, ReaderConfig{})

	records, err := r.ReadSequential(context.Background())
	if err != nil {
		t.Fatalf("ReadSequential failed: %v", err)
	}
	checkSweepOrder(t, records, 8)
}

func TestReader_ParallelMatchesSequential(t *testing.T) {
	for _, workers := range []int{1, 2, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			r, _ := newTestReader(t, 4, 11, ReaderConfig{})

			records, err := r.ReadParallel(context.Background(), workers)
			if err != nil {
				t.Fatalf("ReadParallel failed: %v", err)
			}
			checkSweepOrder(t, records, 11)
		})
	}
}

func TestReader_ConfigDiscoveredOnce(t *testing.T) {
	r, dec := newTestReader(t, 2, 6, ReaderConfig{})

	if _, err := r.ReadParallel(context.Background(), 4); err != nil {
		t.Fatalf("ReadParallel failed: %v", err)
	}
	if _, err := r.ReadSequential(context.Background()); err != nil {
		t.Fatalf("ReadSequential failed: %v", err)
	}

	if dec.discoverCalls != 1 {
		t.Errorf("DiscoverConfig called %d times, want 1", dec.discoverCalls)
	}
}

func TestReader_ExplicitConfigSkipsDiscovery(t *testing.T) {
	cfg := simdata.ReadConfig{NodeVars: []string{"disp_x"}}
	r, dec := newTestReader(t, 2, 4, ReaderConfig{Read: &cfg})

	got, err := r.Config()
	if err != nil {
		t.Fatalf("Config failed: %v", err)
	}
	if len(got.NodeVars) != 1 || got.NodeVars[0] != "disp_x" {
		t.Errorf("Config = %+v, want the explicit selection", got)
	}
	if dec.discoverCalls != 0 {
		t.Errorf("DiscoverConfig called %d times, want 0", dec.discoverCalls)
	}
}

func TestReader_ParallelReportsLowestFailure(t *testing.T) {
	r, dec := newTestReader(t, 4, 8, ReaderConfig{})
	dec.fail["sim-6.e"] = true
	dec.fail["sim-3.e"] = true

	_, err := r.ReadParallel(context.Background(), 4)
	if err == nil {
		t.Fatal("expected error when iterations fail to decode")
	}
	if code := simerrors.GetCode(err); code != simerrors.CodeReadFailed {
		t.Errorf("error code = %q, want %q", code, simerrors.CodeReadFailed)
	}
	if !strings.Contains(err.Error(), "iteration 3") {
		t.Errorf("error %q does not name the lowest failed iteration 3", err)
	}
}

func TestReader_ParallelAttemptsAllIterations(t *testing.T) {
	r, dec := newTestReader(t, 2, 6, ReaderConfig{})
	dec.fail["sim-0.e"] = true

	if _, err := r.ReadParallel(context.Background(), 3); err == nil {
		t.Fatal("expected error")
	}
	if dec.readCalls != 6 {
		t.Errorf("ReadFile called %d times, want all 6 iterations attempted", dec.readCalls)
	}
}

func TestReader_SequentialStopsAtFirstFailure(t *testing.T) {
	r, dec := newTestReader(t, 2, 6, ReaderConfig{})
	dec.fail["sim-2.e"] = true

	_, err := r.ReadSequential(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "iteration 2") {
		t.Errorf("error %q does not name iteration 2", err)
	}
	if dec.readCalls != 3 {
		t.Errorf("ReadFile called %d times, want 3 (stop at first failure)", dec.readCalls)
	}
}

func TestReader_CancelledContext(t *testing.T) {
	r, _ := newTestReader(t, 2, 4, ReaderConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.ReadSequential(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
	if _, err := r.ReadParallel(ctx, 2); err == nil {
		t.Error("expected error from cancelled context")
	}
}
