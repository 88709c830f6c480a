package tactile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunner_CapturesCombinedOutput(t *testing.T) {
	r := NewShellRunner(t.TempDir())

	res := r.Run(context.Background(), "echo out && echo err 1>&2", 5*time.Second)

	assert.True(t, res.Ok)
	assert.Contains(t, res.Output, "out")
	assert.Contains(t, res.Output, "err")
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestShellRunner_NonZeroExit(t *testing.T) {
	r := NewShellRunner(t.TempDir())

	res := r.Run(context.Background(), "exit 3", 5*time.Second)

	assert.False(t, res.Ok)
	assert.Equal(t, 3, res.ExitCode)
	assert.False(t, res.TimedOut)
}

func TestShellRunner_TimeoutKillsProcess(t *testing.T) {
	r := NewShellRunner(t.TempDir())

	start := time.Now()
	res := r.Run(context.Background(), "echo started && sleep 10", 300*time.Millisecond)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, res.Ok)
	assert.True(t, res.TimedOut)
	assert.Contains(t, res.Output, "started")
}

func TestCheckDiagnostic(t *testing.T) {
	tests := []struct {
		command string
		denied  bool
	}{
		{"ls -la", false},
		{"cat main.py", false},
		{"grep -rn TODO .", false},
		{"rm -rf /", true},
		{"sudo apt install x", true},
		{"echo hi > out.txt", true},
		{"dd if=/dev/zero", true},
		{"scp file host:", true}, // substring match on cp
		{"mv a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			err := CheckDiagnostic(tt.command, DefaultDenylist)
			if tt.denied {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrCommandDenied)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFakeRunner_Scripted(t *testing.T) {
	f := &FakeRunner{
		Responses: map[string]Result{
			"pytest": {Ok: false, Output: "KeyError: 'id'", ExitCode: 1},
		},
		Default: Result{Ok: true, Output: "ok"},
	}

	res := f.Run(context.Background(), "pytest", time.Second)
	assert.Equal(t, 1, res.ExitCode)

	res = f.Run(context.Background(), "ls", time.Second)
	assert.True(t, res.Ok)
	assert.Equal(t, []string{"pytest", "ls"}, f.Calls)
}
