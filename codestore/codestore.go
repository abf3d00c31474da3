// Package codestore persists container validation verdicts in SQLite,
// keyed by code hash. Validation is deterministic, so a stored verdict
// never goes stale for the fork it was computed under; callers can skip
// re-validating code they have already judged.
package codestore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/ember/vm"
)

// ErrVerdictNotFound indicates no verdict is stored for the hash.
var ErrVerdictNotFound = errors.New("verdict not found")

// Verdict records the outcome of validating one container.
type Verdict struct {
	Valid bool
	// Exception holds the rejection's sentinel message when Valid is
	// false, and is empty otherwise.
	Exception string
	Fork      string
	// CreatedAt is the unix time the verdict was stored. Put stamps it
	// when zero.
	CreatedAt int64
}

// Stats summarizes the stored verdicts.
type Stats struct {
	Total   int64
	Valid   int64
	Invalid int64
}

// Store is a SQLite-backed verdict store.
type Store struct {
	db     *sql.DB
	dbPath string
	log    commonlog.Logger
	mu     sync.Mutex
}

// Open opens or creates a verdict store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS verdicts (
		hash BLOB PRIMARY KEY,
		valid INTEGER NOT NULL,
		exception TEXT NOT NULL DEFAULT '',
		fork TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	s := &Store{
		db:     db,
		dbPath: path,
		log:    commonlog.GetLogger("ember.codestore"),
	}
	s.log.Debugf("opened verdict store at %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores a verdict for the given code hash, replacing any previous
// one.
func (s *Store) Put(hash vm.Hash, v *Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := v.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}

	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO verdicts (hash, valid, exception, fork, created_at) VALUES (?, ?, ?, ?, ?)",
		hash.Bytes(), boolToInt(v.Valid), v.Exception, v.Fork, createdAt,
	)
	if err != nil {
		return fmt.Errorf("saving verdict: %w", err)
	}
	s.log.Debugf("stored verdict for %s: valid=%t", hash, v.Valid)
	return nil
}

// Get retrieves the verdict stored for the given code hash.
func (s *Store) Get(hash vm.Hash) (*Verdict, error) {
	var (
		valid     int
		exception string
		fork      string
		createdAt int64
	)
	err := s.db.QueryRow(
		"SELECT valid, exception, fork, created_at FROM verdicts WHERE hash = ?",
		hash.Bytes(),
	).Scan(&valid, &exception, &fork, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerdictNotFound
		}
		return nil, fmt.Errorf("querying verdict: %w", err)
	}

	return &Verdict{
		Valid:     valid != 0,
		Exception: exception,
		Fork:      fork,
		CreatedAt: createdAt,
	}, nil
}

// Delete removes the verdict for the given code hash. Deleting an absent
// verdict is not an error.
func (s *Store) Delete(hash vm.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM verdicts WHERE hash = ?", hash.Bytes()); err != nil {
		return fmt.Errorf("deleting verdict: %w", err)
	}
	return nil
}

// Stats reports counts over the stored verdicts.
func (s *Store) Stats() (*Stats, error) {
	var total, valid int64
	err := s.db.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(valid), 0) FROM verdicts",
	).Scan(&total, &valid)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return &Stats{Total: total, Valid: valid, Invalid: total - valid}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
