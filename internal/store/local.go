// Package store persists the research pipeline state in SQLite: the
// failures catalog, the work queue, scored results, and the execution
// history audit trail.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Sentinel errors surfaced by store operations.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicateHash = errors.New("store: duplicate content hash")
)

// LocalStore wraps the SQLite database holding all persistent pipeline
// state. A single connection with WAL mode keeps writes serialized; the
// mutex guards multi-statement operations such as claim.
type LocalStore struct {
	db     *sql.DB
	mu     sync.Mutex
	dbPath string
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocalStore")
	defer timer.Stop()

	logging.Store("Initializing LocalStore at path: %s", path)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable sqlite foreign_keys: %v", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("LocalStore initialization complete (failures, queue, results, history)")
	return store, nil
}

// initialize creates the required tables.
func (s *LocalStore) initialize() error {
	failuresTable := `
	CREATE TABLE IF NOT EXISTS failures (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		pillar TEXT,
		description TEXT,
		search_hint TEXT
	);
	`

	queueTable := `
	CREATE TABLE IF NOT EXISTS queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		failure_id INTEGER NOT NULL,
		query TEXT NOT NULL,
		language TEXT NOT NULL,
		provider TEXT NOT NULL,
		priority INTEGER DEFAULT 0,
		attempts INTEGER DEFAULT 0,
		max_attempts INTEGER DEFAULT 3,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_queue_status ON queue(status);
	CREATE INDEX IF NOT EXISTS idx_queue_failure ON queue(failure_id);
	`

	resultsTable := `
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		failure_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		url TEXT,
		provider_type TEXT,
		country TEXT,
		language TEXT,
		query TEXT,
		confidence_score REAL NOT NULL DEFAULT 0 CHECK(confidence_score >= 0 AND confidence_score <= 1),
		occurrences INTEGER NOT NULL DEFAULT 1 CHECK(occurrences >= 1),
		origin_provider TEXT,
		content_hash TEXT NOT NULL UNIQUE,
		url_valid INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		title_pt TEXT,
		description_pt TEXT,
		title_en TEXT,
		description_en TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_results_failure ON results(failure_id);
	CREATE INDEX IF NOT EXISTS idx_results_language ON results(language);
	CREATE INDEX IF NOT EXISTS idx_results_score ON results(confidence_score);
	`

	historyTable := `
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		failure_id INTEGER NOT NULL,
		query TEXT,
		language TEXT,
		provider TEXT,
		status TEXT,
		results_found INTEGER DEFAULT 0,
		error_message TEXT,
		elapsed_seconds REAL,
		run_id TEXT,
		executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_history_failure ON history(failure_id);
	`

	for _, ddl := range []string{failuresTable, queueTable, resultsTable, historyTable} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DB exposes the raw handle for package-internal helpers and tests.
func (s *LocalStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	return s.db.Close()
}
