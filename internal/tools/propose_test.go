package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugnerd/internal/tactile"
	"debugnerd/internal/ux"
)

const patchContent = `[{"line_number": 2, "action": "replace", "old_content": "x = row[\"customer_id\"]", "new_content": "x = row[\"CustomerID\"]"}]`

func TestProposePatch_AppliedOnConfirm(t *testing.T) {
	deps, root := newTestDeps(t)
	scripted := &ux.Scripted{YesNoAnswers: []bool{true}}
	deps.UX = scripted

	result := executeProposePatch(deps, map[string]any{
		"file_path":         "main.py",
		"patch_content":     patchContent,
		"patch_description": "Match the renamed CSV column",
	})

	require.Equal(t, StatusSuccess, ResultStatus(result))
	assert.Equal(t, true, result["user_confirmation"])
	assert.Equal(t, true, result["patch_applied"])
	assert.Contains(t, result["diff"].(string), "+x = row[\"CustomerID\"]")

	onDisk, err := os.ReadFile(filepath.Join(root, "main.py"))
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "CustomerID")
	assert.NotContains(t, string(onDisk), "customer_id")

	require.Len(t, scripted.Blocks, 1)
	assert.Contains(t, scripted.Blocks[0], "Match the renamed CSV column")
}

func TestProposePatch_DeclinedLeavesFileUntouched(t *testing.T) {
	deps, root := newTestDeps(t)
	deps.UX = &ux.Scripted{YesNoAnswers: []bool{false}}

	result := executeProposePatch(deps, map[string]any{
		"file_path":         "main.py",
		"patch_content":     patchContent,
		"patch_description": "Match the renamed CSV column",
	})

	require.Equal(t, StatusSkipped, ResultStatus(result))
	assert.Equal(t, false, result["user_confirmation"])
	assert.Equal(t, false, result["patch_applied"])

	onDisk, err := os.ReadFile(filepath.Join(root, "main.py"))
	require.NoError(t, err)
	assert.Contains(t, string(onDisk), "customer_id")
}

func TestProposePatch_ModificationsDisabled(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Agent.Constraints.AllowedFileModifications = false

	result := executeProposePatch(deps, map[string]any{
		"file_path":         "main.py",
		"patch_content":     patchContent,
		"patch_description": "x",
	})
	assert.Equal(t, StatusError, ResultStatus(result))
}

func TestProposePatch_MissingFile(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.UX = &ux.Scripted{YesNoAnswers: []bool{true}}

	result := executeProposePatch(deps, map[string]any{
		"file_path":         "ghost.py",
		"patch_content":     patchContent,
		"patch_description": "x",
	})

	require.Equal(t, StatusError, ResultStatus(result))
	assert.Contains(t, result["message"].(string), "File not found")
}

func TestProposePatch_InvalidPatch(t *testing.T) {
	deps, _ := newTestDeps(t)

	result := executeProposePatch(deps, map[string]any{
		"file_path":         "main.py",
		"patch_content":     `[{"line_number": 2, "action": "rewrite"}]`,
		"patch_description": "x",
	})
	assert.Equal(t, StatusError, ResultStatus(result))
}

func TestProposeCommand_RunsOnConfirm(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.UX = &ux.Scripted{YesNoAnswers: []bool{true}}
	fake := &tactile.FakeRunner{
		Responses: map[string]tactile.Result{
			"pip install requests": {Ok: true, Output: "Successfully installed requests", ExitCode: 0},
		},
	}
	deps.Runner = fake

	result := executeProposeCommand(context.Background(), deps, map[string]any{
		"command_to_propose":  "pip install requests",
		"command_description": "Install the missing dependency",
	})

	require.Equal(t, StatusSuccess, ResultStatus(result))
	assert.Equal(t, true, result["user_confirmation"])
	assert.Contains(t, result["output"].(string), "Successfully installed")
	assert.Equal(t, []string{"pip install requests"}, fake.Calls)
}

func TestProposeCommand_Declined(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.UX = &ux.Scripted{YesNoAnswers: []bool{false}}
	fake := &tactile.FakeRunner{}
	deps.Runner = fake

	result := executeProposeCommand(context.Background(), deps, map[string]any{
		"command_to_propose":  "pip install requests",
		"command_description": "Install the missing dependency",
	})

	require.Equal(t, StatusSkipped, ResultStatus(result))
	assert.Equal(t, false, result["user_confirmation"])
	assert.Empty(t, fake.Calls)
}

func TestProposeCommand_ExecutionDisabled(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Agent.Constraints.AllowedCommandExecution = false

	result := executeProposeCommand(context.Background(), deps, map[string]any{
		"command_to_propose":  "pip install requests",
		"command_description": "x",
	})
	assert.Equal(t, StatusError, ResultStatus(result))
}
