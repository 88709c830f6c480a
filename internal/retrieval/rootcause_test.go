package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRootCause_FilenameInLogWins(t *testing.T) {
	results := []Result{
		{ID: "a", Score: 0.9, Content: "unrelated helper", Metadata: map[string]any{"file": "utils/helper.py"}},
		{ID: "b", Score: 0.6, Content: "loads the customer csv", Metadata: map[string]any{"file": "etl.py"}},
	}
	log := "Traceback (most recent call last):\n  File \"etl.py\", line 42\nKeyError: 'CustomerID'"

	best, ok := FindRootCause(results, log, nil)
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)
}

func TestFindRootCause_TokenOverlapBoost(t *testing.T) {
	results := []Result{
		{ID: "plain", Score: 1.0, Content: "nothing shared with the log"},
		{ID: "rich", Score: 1.0, Content: "keyerror raised for customerid during groupby"},
	}
	log := "KeyError: 'CustomerID' while running groupby"

	best, ok := FindRootCause(results, log, nil)
	require.True(t, ok)
	assert.Equal(t, "rich", best.ID)
}

func TestFindRootCause_EmptyResults(t *testing.T) {
	_, ok := FindRootCause(nil, "error: anything", nil)
	assert.False(t, ok)
}

func TestGroupByFile_SortedByMaxScore(t *testing.T) {
	results := []Result{
		{ID: "1", Score: 0.2, Metadata: map[string]any{"file": "a.py"}},
		{ID: "2", Score: 0.9, Metadata: map[string]any{"file": "b.py"}},
		{ID: "3", Score: 0.5, Metadata: map[string]any{"file": "a.py"}},
	}

	groups := GroupByFile(results)
	require.Len(t, groups, 2)
	assert.Equal(t, "b.py", groups[0].FilePath)
	assert.Equal(t, 0.9, groups[0].MaxScore)
	assert.Equal(t, "a.py", groups[1].FilePath)
	assert.Equal(t, 0.5, groups[1].MaxScore)
	assert.InDelta(t, 0.7, groups[1].TotalScore, 1e-9)
	assert.Len(t, groups[1].Results, 2)
}

func TestGroupByFile_FallsBackToID(t *testing.T) {
	groups := GroupByFile([]Result{{ID: "orphan", Score: 1.0}})
	require.Len(t, groups, 1)
	assert.Equal(t, "orphan", groups[0].FilePath)
}
