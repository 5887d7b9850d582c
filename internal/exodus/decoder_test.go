package exodus

import (
	"errors"
	"fmt"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	simerrors "github.com/simherd/simherd/internal/errors"
	"github.com/simherd/simherd/pkg/simdata"
)

// fakeDataset is an in-memory stand-in for an open container.
type fakeDataset struct {
	vars map[string]interface{}
}

func (f *fakeDataset) ListVariables() []string {
	names := make([]string, 0, len(f.vars))
	for k := range f.vars {
		names = append(names, k)
	}
	return names
}

func (f *fakeDataset) GetVariable(name string) (*api.Variable, error) {
	v, ok := f.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %s not found", name)
	}
	return &api.Variable{Values: v}, nil
}

func (f *fakeDataset) Close() {}

// testContainer builds a 2-D problem: 4 nodes, 2 time steps, two nodal
// variables, one elemental variable populated only in block 2, one global
// variable, two side-sets and one connectivity table.
func testContainer() *fakeDataset {
	return &fakeDataset{vars: map[string]interface{}{
		"time_whole": []float64{0.0, 0.5},
		"coordx":     []float64{0, 1, 0, 1},
		"coordy":     []float64{0, 0, 1, 1},

		// Name tables are fixed-width char data; padding survives decode.
		"name_nod_var":  []string{"disp_x\x00\x00", "disp_y\x00\x00"},
		"name_elem_var": []string{"strain_xx"},
		"name_glo_var":  []string{"react_y"},
		"ss_names":      []string{"bottom", "top"},
		"eb_names":      []string{"block_a", "block_b"},

		// Stored time-major: T x N.
		"vals_nod_var1": [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}},
		"vals_nod_var2": [][]float64{{10, 20, 30, 40}, {50, 60, 70, 80}},

		// strain_xx exists only in block 2.
		"vals_elem_var1eb2": [][]float64{{0.1, 0.2}, {0.3, 0.4}},

		// T x num_glo_var.
		"vals_glo_var": [][]float64{{100}, {200}},

		"node_ns1": []int32{1, 2},
		"elem_ss1": []int32{1},
		"node_ns2": []int32{3, 4},
		"elem_ss2": []int32{2},

		"connect1": [][]int32{{1, 2, 4, 3}, {2, 4, 3, 1}},
	}}
}

func TestReader_Names(t *testing.T) {
	r := newReader(testContainer(), "test.e")

	nodeNames := r.NodeVarNames()
	if len(nodeNames) != 2 || nodeNames[0] != "disp_x" || nodeNames[1] != "disp_y" {
		t.Errorf("NodeVarNames = %v, want [disp_x disp_y] with padding trimmed", nodeNames)
	}
	if names := r.GlobVarNames(); len(names) != 1 || names[0] != "react_y" {
		t.Errorf("GlobVarNames = %v, want [react_y]", names)
	}
	if r.NumElemBlocks() != 2 {
		t.Errorf("NumElemBlocks = %d, want 2", r.NumElemBlocks())
	}
}

func TestReader_NamesAbsentTable(t *testing.T) {
	r := newReader(&fakeDataset{vars: map[string]interface{}{
		"coordx": []float64{0, 1},
	}}, "test.e")

	if names := r.NodeVarNames(); names != nil {
		t.Errorf("NodeVarNames on file without table = %v, want nil", names)
	}
}

func TestReader_Time(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	tm := r.Time()
	if len(tm) != 2 || tm[0] != 0.0 || tm[1] != 0.5 {
		t.Errorf("Time = %v, want [0 0.5]", tm)
	}
}

func TestReader_Coordinates2D(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates failed: %v", err)
	}
	if len(coords) != 4 {
		t.Fatalf("got %d nodes, want 4", len(coords))
	}
	for i, row := range coords {
		if len(row) != 3 {
			t.Fatalf("row %d has %d columns, want 3", i, len(row))
		}
		if row[2] != 0 {
			t.Errorf("row %d: z = %v, want 0 (axis absent from file)", i, row[2])
		}
	}
	if coords[1][0] != 1 || coords[2][1] != 1 {
		t.Errorf("coordinate values misplaced: %v", coords)
	}
}

func TestReader_CoordinatesLargeZeroFill(t *testing.T) {
	x := make([]float64, 100)
	y := make([]float64, 100)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(i) * 2
	}
	r := newReader(&fakeDataset{vars: map[string]interface{}{
		"coordx": x,
		"coordy": y,
	}}, "test.e")

	coords, err := r.Coordinates()
	if err != nil {
		t.Fatalf("Coordinates failed: %v", err)
	}
	if len(coords) != 100 || len(coords[0]) != 3 {
		t.Fatalf("shape = (%d, %d), want (100, 3)", len(coords), len(coords[0]))
	}
	for i, row := range coords {
		if row[2] != 0 {
			t.Fatalf("node %d: z = %v, want 0", i, row[2])
		}
	}
}

func TestReader_CoordinatesNoAxes(t *testing.T) {
	r := newReader(&fakeDataset{vars: map[string]interface{}{
		"time_whole": []float64{0},
	}}, "test.e")

	_, err := r.Coordinates()
	if err == nil {
		t.Fatal("expected error for file with no coordinate axes")
	}
	if code := simerrors.GetCode(err); code != simerrors.CodeNoSpatialDimension {
		t.Errorf("error code = %q, want %q", code, simerrors.CodeNoSpatialDimension)
	}
}

func TestReader_Connectivity(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	connect := r.Connectivity()
	if connect == nil {
		t.Fatal("expected connectivity for block 1")
	}
	table, ok := connect[1]
	if !ok {
		t.Fatal("missing connectivity for block 1")
	}
	// Stored 2 elements x 4 nodes, returned transposed.
	if len(table) != 4 || len(table[0]) != 2 {
		t.Fatalf("connect1 shape = (%d, %d), want (4, 2)", len(table), len(table[0]))
	}
	if _, ok := connect[2]; ok {
		t.Error("block 2 has no connectivity table, should be absent")
	}
}

func TestReader_ConnectivityAbsent(t *testing.T) {
	r := newReader(&fakeDataset{vars: map[string]interface{}{
		"coordx": []float64{0, 1},
	}}, "test.e")
	if connect := r.Connectivity(); connect != nil {
		t.Errorf("Connectivity = %v, want nil for file without connectivity", connect)
	}
}

func TestReader_NodeVarsTransposed(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	vars := r.NodeVars([]string{"disp_x"})

	table := vars["disp_x"]
	if table == nil {
		t.Fatal("disp_x should be present")
	}
	// N x T: 4 nodes, 2 time steps.
	if len(table) != 4 || len(table[0]) != 2 {
		t.Fatalf("disp_x shape = (%d, %d), want (4, 2)", len(table), len(table[0]))
	}
	if table[0][0] != 1 || table[0][1] != 5 || table[3][0] != 4 {
		t.Errorf("disp_x values misplaced after transpose: %v", table)
	}
}

func TestReader_NodeVarsMissingMarker(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	vars := r.NodeVars([]string{"disp_x", "disp_z"})

	if _, ok := vars["disp_z"]; !ok {
		t.Fatal("disp_z must appear as a key even though absent from the file")
	}
	if vars["disp_z"] != nil {
		t.Errorf("disp_z = %v, want nil missing-marker", vars["disp_z"])
	}
	if vars["disp_x"] == nil {
		t.Error("disp_x should carry data")
	}
}

func TestReader_NodeVarsNotRequested(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	if vars := r.NodeVars(nil); vars != nil {
		t.Errorf("NodeVars(nil) = %v, want nil (empty selection extracts nothing)", vars)
	}
}

func TestReader_ElemVarsUnpopulatedBlock(t *testing.T) {
	r := newReader(testContainer(), "test.e")

	pair := simdata.ElemVarKey{Name: "strain_xx", Block: 1}
	vars := r.ElemVars([]simdata.ElemVarKey{pair})

	table, ok := vars[pair]
	if !ok {
		t.Fatal("(strain_xx, 1) must be a present key")
	}
	if table == nil {
		t.Fatal("(strain_xx, 1) = nil, want empty non-nil table: the variable is declared, just not populated in block 1")
	}
	if len(table) != 0 {
		t.Errorf("(strain_xx, 1) has %d rows, want 0", len(table))
	}
}

func TestReader_ElemVarsPopulatedBlock(t *testing.T) {
	r := newReader(testContainer(), "test.e")

	pair := simdata.ElemVarKey{Name: "strain_xx", Block: 2}
	vars := r.ElemVars([]simdata.ElemVarKey{pair})
	table := vars[pair]
	if len(table) != 2 || len(table[0]) != 2 {
		t.Fatalf("(strain_xx, 2) shape = (%d, %d), want (2, 2)", len(table), len(table[0]))
	}
}

func TestReader_ElemVarsUnknownName(t *testing.T) {
	r := newReader(testContainer(), "test.e")

	pair := simdata.ElemVarKey{Name: "stress_yy", Block: 1}
	vars := r.ElemVars([]simdata.ElemVarKey{pair})
	if table, ok := vars[pair]; !ok || table != nil {
		t.Errorf("(stress_yy, 1) = (%v, %v), want present nil missing-marker", table, ok)
	}
}

func TestReader_GlobVars(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	vars := r.GlobVars([]string{"react_y", "not_there"})

	seq := vars["react_y"]
	if len(seq) != 2 || seq[0] != 100 || seq[1] != 200 {
		t.Errorf("react_y = %v, want [100 200] (one value per time step)", seq)
	}
	if v, ok := vars["not_there"]; !ok || v != nil {
		t.Errorf("not_there = (%v, %v), want present nil missing-marker", v, ok)
	}
}

func TestReader_SideSets(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	sets := r.SideSets([]string{"bottom", "missing_set"})

	nodes := sets[simdata.SideSetKey{Name: "bottom", Kind: simdata.MemberNode}]
	if len(nodes) != 2 || nodes[0] != 1 || nodes[1] != 2 {
		t.Errorf("bottom nodes = %v, want [1 2]", nodes)
	}
	elems := sets[simdata.SideSetKey{Name: "bottom", Kind: simdata.MemberElem}]
	if len(elems) != 1 || elems[0] != 1 {
		t.Errorf("bottom elems = %v, want [1]", elems)
	}

	missingKey := simdata.SideSetKey{Name: "missing_set", Kind: simdata.MemberNode}
	if v, ok := sets[missingKey]; !ok || v != nil {
		t.Errorf("missing_set = (%v, %v), want present nil missing-marker", v, ok)
	}
}

func TestReader_SideSetsNoneRequested(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	if sets := r.SideSets(nil); sets != nil {
		t.Errorf("SideSets(nil) = %v, want nil", sets)
	}
}

func TestReader_ReadAllKeysMatchNameTables(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	data, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	// Nodal keys exactly match name_nod_var: no extra, no missing.
	if len(data.NodeVars) != 2 {
		t.Errorf("NodeVars has %d keys, want 2", len(data.NodeVars))
	}
	for _, name := range []string{"disp_x", "disp_y"} {
		if _, ok := data.NodeVars[name]; !ok {
			t.Errorf("NodeVars missing declared variable %q", name)
		}
	}

	// Elemental keys are every declared name crossed with every block.
	if len(data.ElemVars) != 2 {
		t.Errorf("ElemVars has %d keys, want 2 (1 name x 2 blocks)", len(data.ElemVars))
	}

	if len(data.GlobVars) != 1 {
		t.Errorf("GlobVars has %d keys, want 1", len(data.GlobVars))
	}

	// Side-set keys: 2 names x 2 member kinds.
	if len(data.SideSets) != 4 {
		t.Errorf("SideSets has %d keys, want 4", len(data.SideSets))
	}

	if data.NumNodes() != 4 || data.NumTimeSteps() != 2 {
		t.Errorf("record shape = (%d nodes, %d steps), want (4, 2)",
			data.NumNodes(), data.NumTimeSteps())
	}
}

func TestReader_ReadSelective(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	data, err := r.Read(simdata.ReadConfig{
		NodeVars: []string{"disp_y"},
	})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(data.NodeVars) != 1 {
		t.Errorf("NodeVars has %d keys, want 1", len(data.NodeVars))
	}
	if data.GlobVars != nil || data.SideSets != nil || data.ElemVars != nil {
		t.Error("categories with empty selection must be absent, not populated")
	}
	if data.Connect == nil {
		t.Error("connectivity is always extracted")
	}
}

func TestReader_DiscoverConfig(t *testing.T) {
	r := newReader(testContainer(), "test.e")
	cfg := r.DiscoverConfig()

	if len(cfg.NodeVars) != 2 || len(cfg.GlobVars) != 1 || len(cfg.SideSets) != 2 {
		t.Errorf("DiscoverConfig = %+v, want all declared names", cfg)
	}
	if len(cfg.ElemVars) != 2 {
		t.Errorf("DiscoverConfig.ElemVars has %d pairs, want 2", len(cfg.ElemVars))
	}
}

func TestNewReader_MissingFile(t *testing.T) {
	_, err := NewReader("/nonexistent/path/output.e")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	want := simerrors.New(simerrors.ErrCategoryDecode, simerrors.CodeFileNotFound, "")
	if !errors.Is(err, want) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestNewReader_WrongExtension(t *testing.T) {
	// A file that exists but is not a container.
	_, err := NewReader("decoder_test.go")
	if err == nil {
		t.Fatal("expected error for wrong extension")
	}
	if code := simerrors.GetCode(err); code != simerrors.CodeFileNotFound {
		t.Errorf("error code = %q, want %q", code, simerrors.CodeFileNotFound)
	}
}
