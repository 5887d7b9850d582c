package exodus

import "strconv"

// Name tables declared inside an output container. Each is a sequence of
// fixed-width strings naming the variables of one category.
const (
	tableNodeVarNames = "name_nod_var"
	tableElemVarNames = "name_elem_var"
	tableGlobVarNames = "name_glo_var"
	tableSideSetNames = "ss_names"
	tableBlockNames   = "eb_names"
)

// Key tags for per-category value storage. The full storage key is the tag
// followed by the 1-based position of the variable name in its name table.
const (
	tagNodeVals     = "vals_nod_var"
	tagElemVals     = "vals_elem_var"
	keyGlobVals     = "vals_glo_var"
	tagSideSetNodes = "node_ns"
	tagSideSetElems = "elem_ss"

	keyTime       = "time_whole"
	keyCoordX     = "coordx"
	keyCoordY     = "coordy"
	keyCoordZ     = "coordz"
	tagConnect    = "connect"
	elemBlockPart = "eb"
)

// nameIndex returns the 1-based position of target within names, or
// (0, false) when the name is not declared. Unresolved names are never an
// error; callers decide whether a missing variable is fatal.
func nameIndex(names []string, target string) (int, bool) {
	for i, n := range names {
		if n == target {
			return i + 1, true
		}
	}
	return 0, false
}

// valueKey builds the storage key for a positional variable, e.g.
// valueKey("vals_nod_var", 2) == "vals_nod_var2".
func valueKey(tag string, idx int) string {
	return tag + strconv.Itoa(idx)
}

// elemValueKey builds the storage key for an elemental variable, which is
// additionally scoped by element block: "vals_elem_var<idx>eb<block>".
func elemValueKey(idx, block int) string {
	return tagElemVals + strconv.Itoa(idx) + elemBlockPart + strconv.Itoa(block)
}

// connectKey builds the connectivity key for a 1-based element block.
func connectKey(block int) string {
	return tagConnect + strconv.Itoa(block)
}
