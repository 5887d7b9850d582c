package exodus

import "strings"

// The netCDF layer hands back typed Go slices whose element type depends on
// the on-disk storage type. These helpers normalize every numeric shape the
// format uses to float64/int64 tables so the rest of the decoder deals with
// exactly one representation.

// toStringList converts a char-table value to a list of names, trimming the
// fixed-width NUL/space padding.
func toStringList(v interface{}) []string {
	var raw []string
	switch s := v.(type) {
	case []string:
		raw = s
	case string:
		raw = []string{s}
	default:
		return nil
	}

	names := make([]string, len(raw))
	for i, s := range raw {
		names[i] = strings.TrimRight(s, "\x00 ")
	}
	return names
}

// toFloatVector converts a 1-D numeric value to []float64.
// Unknown shapes yield an empty, non-nil slice.
func toFloatVector(v interface{}) []float64 {
	switch s := v.(type) {
	case []float64:
		return s
	case []float32:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out
	case []int64:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out
	case []int32:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out
	case []int16:
		out := make([]float64, len(s))
		for i, x := range s {
			out[i] = float64(x)
		}
		return out
	}
	return []float64{}
}

// toFloatMatrix converts a 2-D numeric value to [][]float64. A 1-D value is
// wrapped as a single row, matching how the format stores single-step data.
func toFloatMatrix(v interface{}) [][]float64 {
	switch s := v.(type) {
	case [][]float64:
		return s
	case [][]float32:
		out := make([][]float64, len(s))
		for i, row := range s {
			out[i] = toFloatVector(row)
		}
		return out
	case [][]int64:
		out := make([][]float64, len(s))
		for i, row := range s {
			out[i] = toFloatVector(row)
		}
		return out
	case [][]int32:
		out := make([][]float64, len(s))
		for i, row := range s {
			out[i] = toFloatVector(row)
		}
		return out
	case []float64, []float32, []int64, []int32, []int16:
		row := toFloatVector(v)
		if len(row) == 0 {
			return [][]float64{}
		}
		return [][]float64{row}
	}
	return [][]float64{}
}

// toIntVector converts a 1-D integer value to []int64.
func toIntVector(v interface{}) []int64 {
	switch s := v.(type) {
	case []int64:
		return s
	case []int32:
		out := make([]int64, len(s))
		for i, x := range s {
			out[i] = int64(x)
		}
		return out
	case []int16:
		out := make([]int64, len(s))
		for i, x := range s {
			out[i] = int64(x)
		}
		return out
	case []float64:
		out := make([]int64, len(s))
		for i, x := range s {
			out[i] = int64(x)
		}
		return out
	}
	return []int64{}
}

// toIntMatrix converts a 2-D integer value to [][]int64.
func toIntMatrix(v interface{}) [][]int64 {
	switch s := v.(type) {
	case [][]int64:
		return s
	case [][]int32:
		out := make([][]int64, len(s))
		for i, row := range s {
			out[i] = toIntVector(row)
		}
		return out
	case [][]int16:
		out := make([][]int64, len(s))
		for i, row := range s {
			out[i] = toIntVector(row)
		}
		return out
	case []int64, []int32, []int16:
		row := toIntVector(v)
		if len(row) == 0 {
			return [][]int64{}
		}
		return [][]int64{row}
	}
	return [][]int64{}
}

// transposeFloat returns the transpose of m. Tables are stored with the
// time axis first; transposing puts the entity (node/element) axis first.
func transposeFloat(m [][]float64) [][]float64 {
	if len(m) == 0 || len(m[0]) == 0 {
		return [][]float64{}
	}
	out := make([][]float64, len(m[0]))
	for i := range out {
		out[i] = make([]float64, len(m))
		for j := range m {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// transposeInt returns the transpose of m.
func transposeInt(m [][]int64) [][]int64 {
	if len(m) == 0 || len(m[0]) == 0 {
		return [][]int64{}
	}
	out := make([][]int64, len(m[0]))
	for i := range out {
		out[i] = make([]int64, len(m))
		for j := range m {
			out[i][j] = m[j][i]
		}
	}
	return out
}
