package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() *AgentContext {
	return NewAgentContext("test-session", "fix my build", CommandResult{
		CommandString: "python app.py",
		Stderr:        "ModuleNotFoundError: No module named 'requests'",
		ExitCode:      1,
	}, "/tmp/project", Constraints{
		MaxSessionSteps:  20,
		RecentActionsCap: 10,
		DedupWindow:      3,
	})
}

func TestAppendStep_RecordsRecentAction(t *testing.T) {
	ctx := newTestContext()

	step := ctx.AppendStep("look around", Action{Tool: "list_directory_contents", Parameters: map[string]any{}},
		map[string]any{"status": "success"}, "sig-1")

	assert.Equal(t, 1, step.StepNo)
	require.Len(t, ctx.SessionHistory, 1)
	require.Len(t, ctx.RecentActions, 1)
	assert.Equal(t, "sig-1", ctx.RecentActions[0].Signature)
	assert.Equal(t, 1, ctx.RecentActions[0].StepNo)
}

func TestRecentActions_NeverExceedCap(t *testing.T) {
	ctx := newTestContext()

	for i := 0; i < 25; i++ {
		ctx.AppendStep("t", Action{Tool: "read_file_content"}, map[string]any{"status": "success"}, "sig")
	}

	assert.Len(t, ctx.RecentActions, 10)
	assert.Equal(t, 16, ctx.RecentActions[0].StepNo)
	assert.Equal(t, 25, ctx.RecentActions[9].StepNo)
}

func TestFindDuplicate_WindowOfThree(t *testing.T) {
	ctx := newTestContext()

	ctx.AppendStep("t", Action{Tool: "list_directory_contents"}, map[string]any{"status": "success"}, "dup")
	// Upcoming step is 2, window covers steps > 2-3, so step 1 matches.
	prior, found := ctx.FindDuplicate("dup")
	require.True(t, found)
	assert.Equal(t, 1, prior.StepNo)

	ctx.AppendStep("t", Action{Tool: "read_file_content"}, map[string]any{"status": "success"}, "other-1")
	ctx.AppendStep("t", Action{Tool: "read_file_content"}, map[string]any{"status": "success"}, "other-2")
	// Upcoming step is 4; step 1 is now outside the window.
	_, found = ctx.FindDuplicate("dup")
	assert.False(t, found)
}

func TestErrorTransitions_InstallAndArchive(t *testing.T) {
	ctx := newTestContext()

	ctx.InstallCurrentError(&ErrorRecord{
		Type:    "ModuleNotFoundError",
		Message: "No module named 'requests'",
	}, 1)

	require.NotNil(t, ctx.CurrentBlockingError)
	assert.Equal(t, 1, ctx.CurrentBlockingError.FirstSeenStep)
	assert.Equal(t, "active", ctx.CurrentBlockingError.Status)

	ctx.ArchiveSolved(4)
	assert.Nil(t, ctx.CurrentBlockingError)
	require.Len(t, ctx.SolvedIssues, 1)
	assert.Equal(t, 4, ctx.SolvedIssues[0].ResolutionStep)
	assert.Equal(t, "resolved", ctx.SolvedIssues[0].Error.Status)
}

func TestEvictOldProgression(t *testing.T) {
	ctx := newTestContext()
	for i := 1; i <= 15; i++ {
		ctx.AppendProgression(i, &ErrorRecord{Type: "KeyError"}, nil)
	}

	ctx.EvictOldProgression(10)

	require.Len(t, ctx.ErrorProgression, 10)
	assert.Equal(t, 6, ctx.ErrorProgression[0].Step)
	assert.Equal(t, 15, ctx.ErrorProgression[9].Step)
}

func TestCachedFileRead_RecencyAndMTime(t *testing.T) {
	ctx := newTestContext()
	mtime := time.Now().Truncate(time.Second)

	ctx.AppendStep("t", Action{Tool: "read_file_content"}, map[string]any{"status": "success"}, "s1")
	ctx.CacheFileRead("etl.py", "print('hi')", 1, mtime)

	got, ok := ctx.CachedFileRead("etl.py", 3, mtime)
	require.True(t, ok)
	assert.Equal(t, "print('hi')", got)

	// Changed mtime invalidates.
	_, ok = ctx.CachedFileRead("etl.py", 3, mtime.Add(time.Second))
	assert.False(t, ok)

	// Too many steps later invalidates.
	for i := 0; i < 4; i++ {
		ctx.AppendStep("t", Action{Tool: "list_directory_contents"}, map[string]any{"status": "success"}, "s")
	}
	_, ok = ctx.CachedFileRead("etl.py", 3, mtime)
	assert.False(t, ok)
}

func TestRelativePath_NormalizesAgainstSessionCwd(t *testing.T) {
	ctx := newTestContext()

	assert.Equal(t, "src/app.py", ctx.RelativePath("/tmp/project/src/app.py"))
	assert.Equal(t, "src/app.py", ctx.RelativePath("src/app.py"))
	assert.Equal(t, "/elsewhere/app.py", ctx.RelativePath("/elsewhere/app.py"))
}
