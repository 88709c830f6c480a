package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugnerd/internal/tactile"
)

func TestRunDiagnostic_DeniedCommands(t *testing.T) {
	deps, _ := newTestDeps(t)
	fake := deps.Runner.(*tactile.FakeRunner)

	for _, cmd := range []string{"rm -rf build", "sudo pip install x", "echo hi > out.txt", "mv a b"} {
		result := executeRunDiagnostic(context.Background(), deps, map[string]any{"command_string": cmd})
		assert.Equal(t, StatusError, ResultStatus(result), cmd)
	}
	assert.Empty(t, fake.Calls)
}

func TestRunDiagnostic_RunsAllowedCommand(t *testing.T) {
	deps, _ := newTestDeps(t)
	deps.Runner = &tactile.FakeRunner{
		Responses: map[string]tactile.Result{
			"python etl.py": {Ok: false, Output: "KeyError: 'CustomerID'", ExitCode: 1},
		},
		Default: tactile.Result{Ok: true, Output: "ok"},
	}

	result := executeRunDiagnostic(context.Background(), deps, map[string]any{"command_string": "python etl.py"})

	require.Equal(t, StatusSuccess, ResultStatus(result))
	assert.Equal(t, "KeyError: 'CustomerID'", result["output"])
	assert.Equal(t, 1, result["exit_code"])
	assert.Equal(t, false, result["ok"])
	assert.Equal(t, false, result["timed_out"])
}
