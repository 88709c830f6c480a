package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChanges_JSONArrayString(t *testing.T) {
	raw := `[{"line_number": 42, "action": "replace", "old_content": "x = row[\"customer_id\"]", "new_content": "x = row[\"CustomerID\"]"}]`

	changes, err := ParseChanges(raw)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, 42, changes[0].LineNumber)
	assert.Equal(t, "replace", changes[0].Action)
}

func TestParseChanges_SingleObject(t *testing.T) {
	changes, err := ParseChanges(map[string]any{
		"line_number": float64(3),
		"action":      "insert",
		"new_content": "import requests",
	})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "insert", changes[0].Action)
}

func TestParseChanges_Rejections(t *testing.T) {
	_, err := ParseChanges(`[{"line_number": 1, "action": "rewrite"}]`)
	assert.ErrorIs(t, err, ErrBadChange)

	_, err = ParseChanges(`[{"line_number": 0, "action": "delete"}]`)
	assert.ErrorIs(t, err, ErrBadChange)

	_, err = ParseChanges(nil)
	assert.ErrorIs(t, err, ErrBadChange)

	_, err = ParseChanges("not json")
	assert.ErrorIs(t, err, ErrBadChange)
}

func TestApply_Replace(t *testing.T) {
	original := "a\nb\nc"

	got, err := Apply(original, []Change{
		{LineNumber: 2, Action: "replace", OldContent: "b", NewContent: "B"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a\nB\nc", got)
}

func TestApply_DeleteAndInsertBottomUp(t *testing.T) {
	original := "one\ntwo\nthree\nfour"

	got, err := Apply(original, []Change{
		{LineNumber: 1, Action: "insert", NewContent: "zero"},
		{LineNumber: 3, Action: "delete", OldContent: "three"},
	})
	require.NoError(t, err)
	assert.Equal(t, "zero\none\ntwo\nfour", got)
}

func TestApply_ContentMismatch(t *testing.T) {
	_, err := Apply("a\nb", []Change{
		{LineNumber: 1, Action: "replace", OldContent: "z", NewContent: "A"},
	})
	assert.ErrorIs(t, err, ErrContentMismatch)
}

func TestApply_LineOutOfRange(t *testing.T) {
	_, err := Apply("a", []Change{
		{LineNumber: 9, Action: "delete"},
	})
	assert.ErrorIs(t, err, ErrLineOutOfRange)
}

func TestUnified_MarksChangedLines(t *testing.T) {
	oldContent := "x = row[\"customer_id\"]\nprint(x)\n"
	newContent := "x = row[\"CustomerID\"]\nprint(x)\n"

	out := Unified("etl.py", oldContent, newContent)

	assert.True(t, strings.HasPrefix(out, "--- a/etl.py\n+++ b/etl.py\n"))
	assert.Contains(t, out, "-x = row[\"customer_id\"]")
	assert.Contains(t, out, "+x = row[\"CustomerID\"]")
	assert.Contains(t, out, " print(x)")
}
