package domain

import "fmt"

type MergeMode string

const (
	MergeModeMerge         MergeMode = "merge"
	MergeModeReplaceActive MergeMode = "replace_active"
)

func (m MergeMode) Valid() bool {
	switch m {
	case MergeModeMerge, MergeModeReplaceActive:
		return true
	default:
		return false
	}
}

// ParamChange is a single normalized parameter write. Value is expected in
// [0,1] once sanitized.
type ParamChange struct {
	Index int
	Value float64
}

// AppliedParam pairs a requested write with the value the host reports after
// the write. Index and Requested are what the client sent; HostIndex is the
// parameter actually written, which differs from Index when remapped.
type AppliedParam struct {
	Index     int
	HostIndex int
	Requested float64
	Applied   float64
	Formatted string
}

// IndexRemap maps logical parameter indices to the indices the loaded plugin
// build actually uses. Only differing entries are present.
type IndexRemap map[int]int

func (r IndexRemap) Resolve(index int) int {
	if actual, ok := r[index]; ok {
		return actual
	}

	return index
}

func (r IndexRemap) Validate() error {
	for logical, actual := range r {
		if logical < 0 || actual < 0 {
			return fmt.Errorf("remap %d -> %d uses a negative index", logical, actual)
		}
	}

	return nil
}

// Clone returns a copy that callers may keep after the source is swapped.
func (r IndexRemap) Clone() IndexRemap {
	out := make(IndexRemap, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}
