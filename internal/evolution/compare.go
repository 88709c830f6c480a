package evolution

import (
	"sort"

	"debugnerd/internal/memory"
)

// Comparison describes how the current error relates to the previous one.
type Comparison int

const (
	// NoChange means neither observation contained an error.
	NoChange Comparison = iota

	// SameError means type, message and file set all match.
	SameError

	// Progression means the same files now fail with a different type.
	Progression

	// NewError means an unrelated error appeared.
	NewError

	// Resolved means the previous error no longer appears.
	Resolved
)

// String returns the comparison name.
func (c Comparison) String() string {
	names := []string{"no_change", "same_error", "progression", "new_error", "resolved"}
	if int(c) < len(names) {
		return names[c]
	}
	return "no_change"
}

// Compare classifies the relationship between the previous and current
// error observations.
func Compare(prev, cur *memory.ErrorRecord) Comparison {
	switch {
	case prev == nil && cur == nil:
		return NoChange
	case cur == nil:
		return Resolved
	case prev == nil:
		return NewError
	}

	sameFiles := sameFileSet(prev.FileRefs, cur.FileRefs)
	if prev.Type == cur.Type && prev.Message == cur.Message && sameFiles {
		return SameError
	}
	if sameFiles && prev.Type != cur.Type {
		return Progression
	}
	return NewError
}

func sameFileSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
