package memory

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithSteps(n int) *AgentContext {
	ctx := newTestContext()
	for i := 0; i < n; i++ {
		ctx.AppendStep("t", Action{Tool: "read_file_content", Parameters: map[string]any{"file_path": "a.py"}},
			map[string]any{"status": "success"}, "sig")
	}
	return ctx
}

func TestOptimize_IsPure(t *testing.T) {
	ctx := contextWithSteps(8)
	ctx.InstallCurrentError(&ErrorRecord{Type: "KeyError", Message: "'customer_id'", FileRefs: []string{"etl.py"}}, 8)
	ctx.CacheFileRead("etl.py", strings.Repeat("x", 5000), 8, ctx.StartedAt)
	ctx.CacheFileRead("other.py", "y", 8, ctx.StartedAt)
	before := ctx.Clone()

	NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	if diff := cmp.Diff(before, ctx); diff != "" {
		t.Errorf("authoritative context mutated by optimization (-want +got):\n%s", diff)
	}
}

func TestOptimize_FocusModeKeepsRecentAndProposals(t *testing.T) {
	ctx := newTestContext()
	for i := 0; i < 10; i++ {
		tool := "read_file_content"
		if i == 1 {
			tool = "propose_fix_by_command"
		}
		ctx.AppendStep("t", Action{Tool: tool}, map[string]any{"status": "success"}, "sig")
	}
	ctx.InstallCurrentError(&ErrorRecord{Type: "KeyError", FileRefs: []string{"etl.py"}}, 10)

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	var steps []int
	for _, s := range opt.SessionHistory {
		steps = append(steps, s.StepNo)
	}
	// Last 5 steps plus the proposal at step 2.
	assert.Equal(t, []int{2, 6, 7, 8, 9, 10}, steps)
	assert.LessOrEqual(t, len(opt.RecentActions), 5)
}

func TestOptimize_FocusModeFiltersFilesToError(t *testing.T) {
	ctx := contextWithSteps(3)
	ctx.InstallCurrentError(&ErrorRecord{Type: "KeyError", FileRefs: []string{"etl.py"}}, 3)
	ctx.CacheFileRead("etl.py", "df['customer_id']", 3, ctx.StartedAt)
	ctx.CacheFileRead("unrelated.py", "pass", 3, ctx.StartedAt)

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	_, hasError := opt.KnowledgeBase.FilesRead["etl.py"]
	_, hasUnrelated := opt.KnowledgeBase.FilesRead["unrelated.py"]
	assert.True(t, hasError)
	assert.False(t, hasUnrelated)
}

func TestOptimize_DriftModeSummarizes(t *testing.T) {
	ctx := contextWithSteps(9)

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	require.Len(t, opt.SessionHistory, 4)
	assert.Equal(t, "summary", opt.SessionHistory[0].ActionTaken.Tool)
	assert.Contains(t, opt.SessionHistory[0].Thought, "step 1: read_file_content (success)")
	assert.Equal(t, 7, opt.SessionHistory[1].StepNo)
}

func TestOptimize_DriftModeLeavesShortHistory(t *testing.T) {
	ctx := contextWithSteps(4)

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	assert.Len(t, opt.SessionHistory, 4)
}

func TestOptimize_TruncatesLargeFiles(t *testing.T) {
	ctx := contextWithSteps(1)
	content := strings.Repeat("a", 1500) + strings.Repeat("b", 1500)
	ctx.CacheFileRead("big.py", content, 1, ctx.StartedAt)

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	got := opt.KnowledgeBase.FilesRead["big.py"].Content
	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", 1000)))
	assert.True(t, strings.HasSuffix(got, strings.Repeat("b", 1000)))
	assert.Contains(t, got, TruncationMarker)
	// Raw context keeps the full content.
	assert.Len(t, ctx.KnowledgeBase.FilesRead["big.py"].Content, 3000)
}

func TestOptimize_ConsolidatesNotes(t *testing.T) {
	ctx := contextWithSteps(1)
	for i := 0; i < 6; i++ {
		ctx.AddNote("analysis", strings.Repeat("n", 400))
	}

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	require.Len(t, opt.KnowledgeBase.ErrorAnalysisNotes, 1)
	note := opt.KnowledgeBase.ErrorAnalysisNotes[0]
	assert.Equal(t, "consolidated", note.Type)
	assert.LessOrEqual(t, len(note.Content), 1500)
	// Authoritative notes untouched.
	assert.Len(t, ctx.KnowledgeBase.ErrorAnalysisNotes, 6)
}

func TestOptimize_CapsProgression(t *testing.T) {
	ctx := contextWithSteps(1)
	for i := 1; i <= 14; i++ {
		ctx.AppendProgression(i, &ErrorRecord{Type: "KeyError"}, nil)
	}

	opt := NewOptimizer(DefaultOptimizerConfig()).Optimize(ctx)

	assert.Len(t, opt.ErrorProgression, 10)
	assert.Len(t, ctx.ErrorProgression, 14)
}
