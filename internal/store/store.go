// Package store persists indexed project chunks, their embeddings, and
// finished session logs in a single SQLite database. When the sqlite-vec
// extension is compiled in, vector search runs through a vec0 virtual
// table; otherwise recall falls back to a brute-force cosine scan over
// the stored blobs.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"debugnerd/internal/logging"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDimensionMismatch indicates an embedding whose length does not
	// match the store's configured dimensionality.
	ErrDimensionMismatch = errors.New("store: embedding dimension mismatch")
)

// =============================================================================
// STORE
// =============================================================================

// Store wraps the SQLite database backing chunk retrieval and session
// persistence.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
	dims int

	// vecAvailable is true when the vec0 virtual table could be created.
	vecAvailable bool
}

// Open creates or opens the database at path and ensures the schema
// exists. dims fixes the embedding dimensionality for the chunk index.
func Open(path string, dims int) (*Store, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("store: invalid dimensions %d", dims)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent indexing.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path, dims: dims}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	s.vecAvailable = s.detectVecExtension()

	logging.Store("opened %s (dims=%d vec0=%v)", path, dims, s.vecAvailable)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Dimensions returns the configured embedding dimensionality.
func (s *Store) Dimensions() int { return s.dims }

// VecEnabled reports whether the vec0 virtual table is in use.
func (s *Store) VecEnabled() bool { return s.vecAvailable }

func (s *Store) ensureSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			path TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			content TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			embedding BLOB,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_request TEXT NOT NULL,
			final_status TEXT NOT NULL,
			steps INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			log TEXT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// detectVecExtension probes for sqlite-vec and creates the virtual table
// when available.
func (s *Store) detectVecExtension() bool {
	var version string
	if err := s.db.QueryRow("SELECT vec_version()").Scan(&version); err != nil {
		logging.StoreDebug("vec extension unavailable: %v", err)
		return false
	}

	create := fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS chunk_vec USING vec0(chunk_id INTEGER PRIMARY KEY, embedding float[%d])",
		s.dims,
	)
	if _, err := s.db.Exec(create); err != nil {
		logging.Get(logging.CategoryStore).Warn("vec0 table creation failed: %v", err)
		return false
	}
	logging.Store("sqlite-vec %s active", version)
	return true
}
