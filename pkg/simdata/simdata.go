// Package simdata defines the canonical in-memory representation of one
// decoded simulation output file, plus the read configuration that selects
// which parts of a file to extract.
package simdata

// MemberKind identifies which member list of a side-set is addressed.
type MemberKind string

const (
	MemberNode MemberKind = "node"
	MemberElem MemberKind = "elem"
)

// SideSetKey addresses one member list of a named side-set.
type SideSetKey struct {
	Name string
	Kind MemberKind
}

// ElemVarKey addresses an elemental variable within one element block.
// The same variable name is stored once per block, so the block number is
// part of the address. Blocks are numbered from 1.
type ElemVarKey struct {
	Name  string
	Block int
}

// SimData is the canonical result record for one decoded output file.
// It is a plain value object: once returned it holds no reference to the
// file it came from.
//
// Mapping values follow a missing-marker convention: a requested name that
// is not declared in the source file appears as a key with a nil value.
// Callers can therefore distinguish "not present in this simulation" (key
// present, value nil) from "not requested" (key absent).
type SimData struct {
	// Time holds one entry per simulation time step. May be empty.
	Time []float64

	// Coords is an N x 3 table, one row per mesh node, columns (x, y, z).
	// Axes absent from the source problem are zero-filled.
	Coords [][]float64

	// Connect maps an element-block number (1-based) to its connectivity
	// table. Nil if the file declares no connectivity.
	Connect map[int][][]int64

	// SideSets maps (side-set name, member kind) to an index sequence.
	// Nil if the file declares no side-sets or none were requested.
	SideSets map[SideSetKey][]int64

	// NodeVars maps a nodal variable name to an N x T table
	// (N nodes, T time steps).
	NodeVars map[string][][]float64

	// ElemVars maps (variable name, block) to a numeric table. A pair whose
	// variable exists but is not populated in that block maps to an empty,
	// non-nil table.
	ElemVars map[ElemVarKey][][]float64

	// GlobVars maps a global variable name to a length-T sequence.
	GlobVars map[string][]float64
}

// NumNodes returns the number of mesh nodes, derived from the coordinate
// table.
func (d *SimData) NumNodes() int {
	return len(d.Coords)
}

// NumTimeSteps returns the number of time samples in the record.
func (d *SimData) NumTimeSteps() int {
	return len(d.Time)
}

// ReadConfig selects which parts of an output file to extract. It is
// immutable per decode call. An empty list for a category means "extract
// nothing in that category"; full extraction is requested through the
// decoder's read-all mode instead.
type ReadConfig struct {
	SideSets []string
	NodeVars []string
	ElemVars []ElemVarKey
	GlobVars []string
}

// IsEmpty reports whether the configuration selects nothing at all.
// Time, coordinates and connectivity are always extracted and do not
// count toward this.
func (c ReadConfig) IsEmpty() bool {
	return len(c.SideSets) == 0 && len(c.NodeVars) == 0 &&
		len(c.ElemVars) == 0 && len(c.GlobVars) == 0
}
