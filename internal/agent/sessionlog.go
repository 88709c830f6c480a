package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"debugnerd/internal/logging"
	"debugnerd/internal/memory"
	"debugnerd/internal/store"
)

// =============================================================================
// SESSION LOG PERSISTENCE
// =============================================================================

// sessionLog is the on-disk record of a finished agentic session.
type sessionLog struct {
	SessionType    string               `json:"session_type"`
	Timestamp      time.Time            `json:"timestamp"`
	InitialCommand string               `json:"initial_command"`
	UserContext    string               `json:"user_context"`
	FinalStatus    string               `json:"final_status"`
	StepsTaken     int                  `json:"steps_taken"`
	FinalContext   *memory.AgentContext `json:"final_context"`
}

// WriteSessionLog serializes the finished session to
// <sessionsDir>/<session-id>.json and returns the written path.
func WriteSessionLog(agent *memory.AgentContext, outcome Outcome, sessionsDir string) (string, error) {
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create sessions directory: %w", err)
	}

	record := sessionLog{
		SessionType:    "agentic",
		Timestamp:      time.Now().UTC(),
		InitialCommand: agent.InitialCommandRun.CommandString,
		UserContext:    agent.InitialUserRequest,
		FinalStatus:    outcome.Status,
		StepsTaken:     outcome.StepsTaken,
		FinalContext:   agent,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize session log: %w", err)
	}

	path := filepath.Join(sessionsDir, agent.SessionID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write session log: %w", err)
	}

	logging.Session("session log written: %s (%d bytes)", path, len(data))
	return path, nil
}

// PersistSession writes the session log file and mirrors the record into
// the store's sessions table. A nil store skips the database half.
func PersistSession(agent *memory.AgentContext, outcome Outcome, sessionsDir string, st *store.Store) (string, error) {
	path, err := WriteSessionLog(agent, outcome, sessionsDir)
	if err != nil {
		return "", err
	}
	if st == nil {
		return path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return path, fmt.Errorf("failed to re-read session log: %w", err)
	}
	rec := store.SessionRecord{
		ID:          agent.SessionID,
		UserRequest: agent.InitialUserRequest,
		FinalStatus: outcome.Status,
		Steps:       outcome.StepsTaken,
		StartedAt:   agent.StartedAt,
		FinishedAt:  time.Now().UTC(),
		Log:         json.RawMessage(data),
	}
	if err := st.SaveSession(rec); err != nil {
		return path, fmt.Errorf("failed to save session record: %w", err)
	}
	return path, nil
}
