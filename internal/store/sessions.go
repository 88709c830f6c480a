package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"debugnerd/internal/logging"
)

// =============================================================================
// SESSIONS
// =============================================================================

// SessionRecord is one finished debugging session.
type SessionRecord struct {
	ID          string          `json:"id"`
	UserRequest string          `json:"user_request"`
	FinalStatus string          `json:"final_status"`
	Steps       int             `json:"steps"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Log         json.RawMessage `json:"log"`
}

// SaveSession upserts a finished session record.
func (s *Store) SaveSession(rec SessionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("store: session id required")
	}
	logJSON := rec.Log
	if logJSON == nil {
		logJSON = json.RawMessage("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sessions (id, user_request, final_status, steps, started_at, finished_at, log)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_request = excluded.user_request,
			final_status = excluded.final_status,
			steps = excluded.steps,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			log = excluded.log`,
		rec.ID, rec.UserRequest, rec.FinalStatus, rec.Steps,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), string(logJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	logging.Store("session %s saved: status=%s steps=%d", rec.ID, rec.FinalStatus, rec.Steps)
	return nil
}

// GetSession loads one session by id.
func (s *Store) GetSession(id string) (SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec     SessionRecord
		rawLog  string
		started time.Time
		ended   time.Time
	)
	err := s.db.QueryRow(
		"SELECT id, user_request, final_status, steps, started_at, finished_at, log FROM sessions WHERE id = ?", id,
	).Scan(&rec.ID, &rec.UserRequest, &rec.FinalStatus, &rec.Steps, &started, &ended, &rawLog)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	if err != nil {
		return SessionRecord{}, fmt.Errorf("failed to load session: %w", err)
	}
	rec.StartedAt = started
	rec.FinishedAt = ended
	rec.Log = json.RawMessage(rawLog)
	return rec, nil
}

// ListSessions returns recent sessions, newest first, without their
// full logs.
func (s *Store) ListSessions(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT id, user_request, final_status, steps, started_at, finished_at FROM sessions ORDER BY finished_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.ID, &rec.UserRequest, &rec.FinalStatus, &rec.Steps, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
