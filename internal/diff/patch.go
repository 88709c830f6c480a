// Package diff converts structured patch changes into new file content and
// renders unified diffs with the sergi/go-diff engine.
package diff

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Sentinel errors for patch handling.
var (
	ErrBadChange       = errors.New("malformed patch change")
	ErrLineOutOfRange  = errors.New("line number out of range")
	ErrContentMismatch = errors.New("old content does not match file")
)

// Change is one structured edit in a proposed patch. Line numbers are
// 1-based against the original file.
type Change struct {
	LineNumber int    `json:"line_number"`
	Action     string `json:"action"` // replace, delete, insert
	OldContent string `json:"old_content"`
	NewContent string `json:"new_content"`
}

// ParseChanges decodes the planner-supplied patch content. It accepts a JSON
// array string, a single change object, or an already-decoded []any.
func ParseChanges(raw any) ([]Change, error) {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(strings.TrimSpace(v))
	case []any, map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadChange, err)
		}
		data = encoded
	case nil:
		return nil, fmt.Errorf("%w: empty patch content", ErrBadChange)
	default:
		return nil, fmt.Errorf("%w: unsupported patch content type %T", ErrBadChange, raw)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty patch content", ErrBadChange)
	}

	var changes []Change
	if data[0] == '{' {
		var single Change
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadChange, err)
		}
		changes = []Change{single}
	} else {
		if err := json.Unmarshal(data, &changes); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadChange, err)
		}
	}

	for i, c := range changes {
		switch c.Action {
		case "replace", "delete", "insert":
		default:
			return nil, fmt.Errorf("%w: unknown action %q", ErrBadChange, c.Action)
		}
		if c.LineNumber < 1 {
			return nil, fmt.Errorf("%w: change %d has line_number %d", ErrBadChange, i, c.LineNumber)
		}
	}
	return changes, nil
}

// Apply produces the patched content. Changes are applied bottom-up so line
// numbers stay valid throughout.
func Apply(original string, changes []Change) (string, error) {
	lines := strings.Split(original, "\n")

	ordered := append([]Change(nil), changes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LineNumber > ordered[j].LineNumber
	})

	for _, c := range ordered {
		idx := c.LineNumber - 1
		switch c.Action {
		case "replace", "delete":
			if idx >= len(lines) {
				return "", fmt.Errorf("%w: %s at line %d, file has %d lines", ErrLineOutOfRange, c.Action, c.LineNumber, len(lines))
			}
			if c.OldContent != "" && strings.TrimSpace(lines[idx]) != strings.TrimSpace(c.OldContent) {
				return "", fmt.Errorf("%w: line %d is %q, expected %q", ErrContentMismatch, c.LineNumber, strings.TrimSpace(lines[idx]), strings.TrimSpace(c.OldContent))
			}
			if c.Action == "replace" {
				lines[idx] = c.NewContent
			} else {
				lines = append(lines[:idx], lines[idx+1:]...)
			}
		case "insert":
			if idx > len(lines) {
				return "", fmt.Errorf("%w: insert at line %d, file has %d lines", ErrLineOutOfRange, c.LineNumber, len(lines))
			}
			lines = append(lines[:idx], append([]string{c.NewContent}, lines[idx:]...)...)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// Unified renders a unified-style diff between two versions of a file.
func Unified(path, oldContent, newContent string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldContent, newContent)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range splitKeepNonEmpty(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func splitKeepNonEmpty(text string) []string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return lines
}
