package store

import (
	"database/sql"
	"fmt"
)

// SeedFailures inserts or replaces catalog entries. The failures table is
// read-only to the pipeline; this is the one out-of-band write path.
func (s *LocalStore) SeedFailures(failures []Failure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO failures (id, title, pillar, description, search_hint) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range failures {
		if f.Title == "" {
			return fmt.Errorf("failure %d has no title", f.ID)
		}
		if _, err := stmt.Exec(f.ID, f.Title, f.Pillar, f.Description, f.SearchHint); err != nil {
			return fmt.Errorf("failed to seed failure %d: %w", f.ID, err)
		}
	}
	return tx.Commit()
}

// GetFailure fetches one catalog entry.
func (s *LocalStore) GetFailure(id int64) (*Failure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f Failure
	err := s.db.QueryRow(
		`SELECT id, title, pillar, description, search_hint FROM failures WHERE id = ?`, id,
	).Scan(&f.ID, &f.Title, &f.Pillar, &f.Description, &f.SearchHint)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFailures returns the full catalog ordered by id.
func (s *LocalStore) ListFailures() ([]Failure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, title, pillar, description, search_hint FROM failures ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.ID, &f.Title, &f.Pillar, &f.Description, &f.SearchHint); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
