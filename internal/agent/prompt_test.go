package agent

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugnerd/internal/memory"
)

func newPromptContext() *memory.AgentContext {
	agent := memory.NewAgentContext("sess-prompt", "fix the pipeline", memory.CommandResult{
		CommandString: "python etl.py",
	}, "/work/project", memory.Constraints{
		MaxSessionSteps:  20,
		RecentActionsCap: 10,
		DedupWindow:      3,
	})
	agent.AvailableTools = []memory.ToolDescriptor{
		{Name: "read_file_content", Description: "Read a file"},
		{Name: "finish_debugging", Description: "End the session"},
	}
	return agent
}

func TestBuildPrompt_FirstStepDirective(t *testing.T) {
	agent := newPromptContext()

	prompt, err := BuildPrompt(agent)
	require.NoError(t, err)

	assert.Contains(t, prompt, "exactly one JSON object")
	assert.Contains(t, prompt, "- read_file_content: Read a file")
	assert.Contains(t, prompt, "- finish_debugging: End the session")
	assert.Contains(t, prompt, "Current blocking error: none")
	assert.Contains(t, prompt, "FIRST step")
	assert.Contains(t, prompt, "FULL CONTEXT (JSON):")
}

func TestBuildPrompt_StatusSummaryReflectsState(t *testing.T) {
	agent := newPromptContext()
	agent.InstallCurrentError(&memory.ErrorRecord{
		Type:     "key_error",
		Message:  "'CustomerID'",
		FileRefs: []string{"etl.py"},
	}, 0)
	agent.DeriveFileState([]string{"etl.py", "utils/helper.py"})
	agent.AppendStep("looked around", memory.Action{Tool: "list_directory_contents"},
		map[string]any{"status": "success"}, "list_directory_contents")

	prompt, err := BuildPrompt(agent)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Current blocking error: [key_error] 'CustomerID'")
	assert.Contains(t, prompt, "Files involved: etl.py")
	assert.Contains(t, prompt, "Available files: etl.py, utils/helper.py")
	assert.Contains(t, prompt, "Primary error file: etl.py")
	assert.Contains(t, prompt, "This is step 2.")
	assert.NotContains(t, prompt, "FIRST step")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	agent := newPromptContext()
	agent.DeriveFileState([]string{"etl.py"})

	a, err := BuildPrompt(agent)
	require.NoError(t, err)
	b, err := BuildPrompt(agent)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSignature_NormalizesPathParameters(t *testing.T) {
	agent := newPromptContext()

	plain := Signature(agent, "read_file_content", map[string]any{"file_path": "etl.py"})
	dotted := Signature(agent, "read_file_content", map[string]any{"file_path": "./etl.py"})
	absolute := Signature(agent, "read_file_content", map[string]any{
		"file_path": filepath.Join("/work/project", "etl.py"),
	})

	assert.Equal(t, plain, dotted)
	assert.Equal(t, plain, absolute)
}

func TestSignature_NonPathParametersUntouched(t *testing.T) {
	agent := newPromptContext()

	a := Signature(agent, "search_file_content", map[string]any{"search_pattern": "a/b"})
	b := Signature(agent, "search_file_content", map[string]any{"search_pattern": "./a/b"})
	assert.NotEqual(t, a, b)
}
