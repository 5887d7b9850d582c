// Package exodus decodes the self-describing netCDF container files written
// by mesh-simulation runs into canonical simdata records.
//
// The format has several optional/variable-dimensionality quirks this
// package normalizes: problems may have 1, 2 or 3 spatial axes; element
// output may be absent, appear under nodal storage, or be split per element
// block; side-sets and sub-domains may or may not be present. Block-scoped
// output is never auto-detected — elemental variables are addressed
// explicitly by (name, block) pairs in the read configuration.
package exodus

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/simherd/simherd/internal/errors"
	"github.com/simherd/simherd/pkg/simdata"
)

// FileExtension is the expected container file extension.
const FileExtension = ".e"

// dataset is the slice of the netCDF surface the decoder needs. api.Group
// satisfies it; tests substitute an in-memory implementation.
type dataset interface {
	ListVariables() []string
	GetVariable(name string) (*api.Variable, error)
	Close()
}

// Reader decodes one output container file. It holds the underlying
// container open read-only for its lifetime; a Reader is not safe for
// concurrent use, open one per worker instead.
type Reader struct {
	ds   dataset
	path string
	vars map[string]struct{}
}

// NewReader opens the container at path. It fails with a FILE_NOT_FOUND
// condition if the path does not resolve to an existing file with the
// expected extension.
func NewReader(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, errors.NewDecodeError(errors.CodeFileNotFound,
			"output file not found at "+path, err)
	}
	if filepath.Ext(path) != FileExtension {
		return nil, errors.NewDecodeError(errors.CodeFileNotFound,
			"output file at "+path+" does not have extension "+FileExtension, nil)
	}

	ds, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.NewDecodeError(errors.CodeCorruptContainer,
			"failed to open container "+path, err)
	}

	return newReader(ds, path), nil
}

// newReader wraps an already-open dataset. Split out so tests can inject a
// fake dataset.
func newReader(ds dataset, path string) *Reader {
	vars := make(map[string]struct{})
	for _, name := range ds.ListVariables() {
		vars[name] = struct{}{}
	}
	return &Reader{ds: ds, path: path, vars: vars}
}

// Close releases the underlying container.
func (r *Reader) Close() {
	r.ds.Close()
}

// Path returns the path of the container file this reader was opened on.
func (r *Reader) Path() string {
	return r.path
}

// hasVar reports whether the container declares a variable under key.
func (r *Reader) hasVar(key string) bool {
	_, ok := r.vars[key]
	return ok
}

// value returns the raw decoded value stored under key, or nil if absent.
func (r *Reader) value(key string) interface{} {
	if !r.hasVar(key) {
		return nil
	}
	v, err := r.ds.GetVariable(key)
	if err != nil || v == nil {
		return nil
	}
	return v.Values
}

// names returns the declared name list for a name table, or nil if the
// table does not exist in this file.
func (r *Reader) names(table string) []string {
	v := r.value(table)
	if v == nil {
		return nil
	}
	return toStringList(v)
}

// matrix returns the numeric table stored under key, transposed so the
// first axis is the entity axis and the second the time axis. Returns an
// empty, non-nil table if the key is absent.
func (r *Reader) matrix(key string) [][]float64 {
	v := r.value(key)
	if v == nil {
		return [][]float64{}
	}
	return transposeFloat(toFloatMatrix(v))
}

// vector returns the 1-D numeric sequence stored under key, or an empty
// slice if absent.
func (r *Reader) vector(key string) []float64 {
	v := r.value(key)
	if v == nil {
		return []float64{}
	}
	return toFloatVector(v)
}

// intVector returns the 1-D index sequence stored under key, or an empty
// slice if absent.
func (r *Reader) intVector(key string) []int64 {
	v := r.value(key)
	if v == nil {
		return []int64{}
	}
	return toIntVector(v)
}

// NodeVarNames returns the declared nodal variable names, nil if none.
func (r *Reader) NodeVarNames() []string { return r.names(tableNodeVarNames) }

// ElemVarNames returns the declared elemental variable names, nil if none.
func (r *Reader) ElemVarNames() []string { return r.names(tableElemVarNames) }

// GlobVarNames returns the declared global variable names, nil if none.
func (r *Reader) GlobVarNames() []string { return r.names(tableGlobVarNames) }

// SideSetNames returns the declared side-set names, nil if none.
func (r *Reader) SideSetNames() []string { return r.names(tableSideSetNames) }

// BlockNames returns the declared element-block names, nil if none.
func (r *Reader) BlockNames() []string { return r.names(tableBlockNames) }

// NumElemBlocks returns the declared element-block count.
func (r *Reader) NumElemBlocks() int { return len(r.BlockNames()) }

// Time returns the simulation time steps. May be empty.
func (r *Reader) Time() []float64 {
	return r.vector(keyTime)
}

// Coordinates returns the nodal coordinates as an N x 3 table. Axes absent
// from the source problem are zero-filled. Fails with a
// NO_SPATIAL_DIMENSION condition only when all three axes are absent; a
// problem must be at least 1-dimensional.
func (r *Reader) Coordinates() ([][]float64, error) {
	x := r.vector(keyCoordX)
	y := r.vector(keyCoordY)
	z := r.vector(keyCoordZ)

	n := len(x)
	if len(y) > n {
		n = len(y)
	}
	if len(z) > n {
		n = len(z)
	}
	if n == 0 {
		return nil, errors.NewDecodeError(errors.CodeNoSpatialDimension,
			"no spatial coordinate axes in "+r.path+", problem must be at least 1D", nil)
	}

	x = expandAxis(x, n)
	y = expandAxis(y, n)
	z = expandAxis(z, n)

	coords := make([][]float64, n)
	for i := 0; i < n; i++ {
		coords[i] = []float64{x[i], y[i], z[i]}
	}
	return coords, nil
}

// expandAxis pads an absent coordinate axis with zeros of length n.
func expandAxis(axis []float64, n int) []float64 {
	if len(axis) == 0 {
		return make([]float64, n)
	}
	return axis
}

// Connectivity returns the per-block element connectivity tables, keyed by
// 1-based block number. Probes connect1..connectB where B is the declared
// block count. Returns nil if the file has no connectivity.
func (r *Reader) Connectivity() map[int][][]int64 {
	connect := make(map[int][][]int64)
	for b := 1; b <= r.NumElemBlocks(); b++ {
		key := connectKey(b)
		if !r.hasVar(key) {
			continue
		}
		connect[b] = transposeInt(toIntMatrix(r.value(key)))
	}
	if len(connect) == 0 {
		return nil
	}
	return connect
}

// SideSets returns the node and element member lists of each requested
// side-set, keyed by (name, kind). A requested name the file does not
// declare maps to nil entries for both kinds. Returns nil if the file has
// no side-set name table or no names were requested.
func (r *Reader) SideSets(names []string) map[simdata.SideSetKey][]int64 {
	allNames := r.SideSetNames()
	if allNames == nil || len(names) == 0 {
		return nil
	}

	sets := make(map[simdata.SideSetKey][]int64, 2*len(names))
	for _, name := range names {
		nodeKey := simdata.SideSetKey{Name: name, Kind: simdata.MemberNode}
		elemKey := simdata.SideSetKey{Name: name, Kind: simdata.MemberElem}

		idx, ok := nameIndex(allNames, name)
		if !ok {
			sets[nodeKey] = nil
			sets[elemKey] = nil
			continue
		}
		sets[nodeKey] = r.intVector(valueKey(tagSideSetNodes, idx))
		sets[elemKey] = r.intVector(valueKey(tagSideSetElems, idx))
	}
	return sets
}

// AllSideSets returns every declared side-set.
func (r *Reader) AllSideSets() map[simdata.SideSetKey][]int64 {
	return r.SideSets(r.SideSetNames())
}

// NodeVars returns the requested nodal variables as N x T tables keyed by
// name. A requested name absent from the file maps to nil, so callers can
// distinguish "not present in this simulation" from "not requested".
func (r *Reader) NodeVars(names []string) map[string][][]float64 {
	if len(names) == 0 {
		return nil
	}
	allNames := r.NodeVarNames()

	vars := make(map[string][][]float64, len(names))
	for _, name := range names {
		idx, ok := nameIndex(allNames, name)
		if !ok {
			vars[name] = nil
			continue
		}
		vars[name] = r.matrix(valueKey(tagNodeVals, idx))
	}
	return vars
}

// AllNodeVars returns every declared nodal variable.
func (r *Reader) AllNodeVars() map[string][][]float64 {
	return r.NodeVars(r.NodeVarNames())
}

// ElemVarKeys enumerates every declared elemental variable name against
// every declared block, including combinations the simulation never
// populated.
func (r *Reader) ElemVarKeys() []simdata.ElemVarKey {
	names := r.ElemVarNames()
	blocks := r.NumElemBlocks()
	if names == nil || blocks == 0 {
		return nil
	}

	keys := make([]simdata.ElemVarKey, 0, len(names)*blocks)
	for _, name := range names {
		for b := 1; b <= blocks; b++ {
			keys = append(keys, simdata.ElemVarKey{Name: name, Block: b})
		}
	}
	return keys
}

// ElemVars returns the requested elemental variables keyed by
// (name, block). A pair whose variable name the file does not declare maps
// to nil; a pair whose variable exists but is not populated in that block
// maps to an empty, non-nil table.
func (r *Reader) ElemVars(pairs []simdata.ElemVarKey) map[simdata.ElemVarKey][][]float64 {
	if len(pairs) == 0 {
		return nil
	}
	allNames := r.ElemVarNames()

	vars := make(map[simdata.ElemVarKey][][]float64, len(pairs))
	for _, pair := range pairs {
		idx, ok := nameIndex(allNames, pair.Name)
		if !ok {
			vars[pair] = nil
			continue
		}
		vars[pair] = r.matrix(elemValueKey(idx, pair.Block))
	}
	return vars
}

// AllElemVars returns every declared elemental variable in every block.
func (r *Reader) AllElemVars() map[simdata.ElemVarKey][][]float64 {
	return r.ElemVars(r.ElemVarKeys())
}

// GlobVars returns the requested global variables as length-T sequences
// keyed by name. Global variables share one table and are extracted by
// column rather than by per-name key. Absent names map to nil.
func (r *Reader) GlobVars(names []string) map[string][]float64 {
	if len(names) == 0 {
		return nil
	}
	allNames := r.GlobVarNames()

	// Transposed, so each row is one variable's full time history.
	table := r.matrix(keyGlobVals)

	vars := make(map[string][]float64, len(names))
	for _, name := range names {
		idx, ok := nameIndex(allNames, name)
		if !ok || idx > len(table) {
			vars[name] = nil
			continue
		}
		vars[name] = table[idx-1]
	}
	return vars
}

// AllGlobVars returns every declared global variable.
func (r *Reader) AllGlobVars() map[string][]float64 {
	return r.GlobVars(r.GlobVarNames())
}

// DiscoverConfig builds the read configuration equivalent to "extract
// everything", introspected from the file's own name tables.
func (r *Reader) DiscoverConfig() simdata.ReadConfig {
	return simdata.ReadConfig{
		SideSets: r.SideSetNames(),
		NodeVars: r.NodeVarNames(),
		ElemVars: r.ElemVarKeys(),
		GlobVars: r.GlobVarNames(),
	}
}

// Read extracts one canonical result record per the supplied configuration.
// Time, coordinates and connectivity are always extracted.
func (r *Reader) Read(cfg simdata.ReadConfig) (*simdata.SimData, error) {
	coords, err := r.Coordinates()
	if err != nil {
		return nil, err
	}

	return &simdata.SimData{
		Time:     r.Time(),
		Coords:   coords,
		Connect:  r.Connectivity(),
		SideSets: r.SideSets(cfg.SideSets),
		NodeVars: r.NodeVars(cfg.NodeVars),
		ElemVars: r.ElemVars(cfg.ElemVars),
		GlobVars: r.GlobVars(cfg.GlobVars),
	}, nil
}

// ReadAll is Read with a configuration auto-discovered from the file's own
// name tables: every variable in every category and every side-set.
func (r *Reader) ReadAll() (*simdata.SimData, error) {
	return r.Read(r.DiscoverConfig())
}

// Variables returns the sorted list of raw storage keys declared in the
// container. Useful for inspection tooling.
func (r *Reader) Variables() []string {
	keys := make([]string, 0, len(r.vars))
	for k := range r.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
