package agent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugnerd/internal/memory"
	"debugnerd/internal/store"
)

func TestWriteSessionLog(t *testing.T) {
	dir := t.TempDir()
	agent := memory.NewAgentContext("sess-log", "fix it", memory.CommandResult{
		CommandString: "python etl.py",
	}, dir, memory.Constraints{MaxSessionSteps: 20, RecentActionsCap: 10, DedupWindow: 3})
	agent.AppendStep("done", memory.Action{Tool: "finish_debugging"},
		map[string]any{"status": "finished"}, "finish_debugging")

	outcome := Outcome{Status: StatusResolved, Conclusion: "fixed", StepsTaken: 1}
	path, err := WriteSessionLog(agent, outcome, filepath.Join(dir, "sessions"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sessions", "sess-log.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "agentic", decoded["session_type"])
	assert.Equal(t, "python etl.py", decoded["initial_command"])
	assert.Equal(t, "fix it", decoded["user_context"])
	assert.Equal(t, "resolved", decoded["final_status"])
	assert.Equal(t, float64(1), decoded["steps_taken"])
	assert.NotNil(t, decoded["final_context"])
}

func TestPersistSession_MirrorsIntoStore(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "debugnerd.db"), 3)
	require.NoError(t, err)
	defer st.Close()

	agent := memory.NewAgentContext("sess-persist", "fix it", memory.CommandResult{
		CommandString: "python etl.py",
	}, dir, memory.Constraints{MaxSessionSteps: 20, RecentActionsCap: 10, DedupWindow: 3})

	outcome := Outcome{Status: StatusGuidanceProvided, Conclusion: "read the docs", StepsTaken: 4}
	_, err = PersistSession(agent, outcome, filepath.Join(dir, "sessions"), st)
	require.NoError(t, err)

	rec, err := st.GetSession("sess-persist")
	require.NoError(t, err)
	assert.Equal(t, "fix it", rec.UserRequest)
	assert.Equal(t, StatusGuidanceProvided, rec.FinalStatus)
	assert.Equal(t, 4, rec.Steps)
	assert.NotEmpty(t, rec.Log)
}
