package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

// Enqueue inserts a new pending queue item and returns its id.
func (s *LocalStore) Enqueue(item *QueueItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.MaxAttempts <= 0 {
		item.MaxAttempts = 3
	}
	res, err := s.db.Exec(
		`INSERT INTO queue (failure_id, query, language, provider, priority, attempts, max_attempts, status)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		item.FailureID, item.Query, item.Language, item.Provider, item.Priority, item.MaxAttempts, StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	item.ID = id
	item.Status = StatusPending
	logging.QueueDebug("Enqueued item %d (failure=%d, lang=%s, provider=%s)", id, item.FailureID, item.Language, item.Provider)
	return id, nil
}

// ListQueue returns queue items, optionally filtered by status. An empty
// status returns everything.
func (s *LocalStore) ListQueue(status QueueStatus) ([]QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, failure_id, query, language, provider, priority, attempts, max_attempts, status, created_at, updated_at
	          FROM queue`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY priority DESC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(&it.ID, &it.FailureID, &it.Query, &it.Language, &it.Provider,
			&it.Priority, &it.Attempts, &it.MaxAttempts, &it.Status, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountQueue returns the number of items with the given status, or all
// items when status is empty.
func (s *LocalStore) CountQueue(status QueueStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	var err error
	if status == "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM queue`).Scan(&count)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM queue WHERE status = ?`, status).Scan(&count)
	}
	return count, err
}

// QueueCounts returns item counts per status.
func (s *LocalStore) QueueCounts() (map[QueueStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[QueueStatus]int)
	for rows.Next() {
		var status QueueStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// UpdateQueueStatus moves an item to the given status after checking the
// lifecycle permits the transition.
func (s *LocalStore) UpdateQueueStatus(id int64, status QueueStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid queue status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var current QueueStatus
	err := s.db.QueryRow(`SELECT status FROM queue WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(status) {
		return fmt.Errorf("illegal queue transition %s -> %s for item %d", current, status, id)
	}

	_, err = s.db.Exec(`UPDATE queue SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err == nil {
		logging.QueueDebug("Queue item %d: %s -> %s", id, current, status)
	}
	return err
}

// IncrementAttempts bumps the attempt counter and returns the new value.
func (s *LocalStore) IncrementAttempts(id int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`UPDATE queue SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return 0, err
	}
	var attempts int
	err := s.db.QueryRow(`SELECT attempts FROM queue WHERE id = ?`, id).Scan(&attempts)
	return attempts, err
}

// DeleteQueueItem removes an item.
func (s *LocalStore) DeleteQueueItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM queue WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearQueue removes all queue items and returns how many were deleted.
func (s *LocalStore) ClearQueue() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM queue`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	logging.Queue("Queue cleared (%d items removed)", n)
	return n, nil
}

// ClaimNext atomically claims the next pending item by moving it to
// in_progress. The status-based claim doubles as the item lock: only the
// claiming worker may mutate the row until the terminal transition.
// Returns ErrNotFound when the queue has no pending items.
func (s *LocalStore) ClaimNext() (*QueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var it QueueItem
	err := s.db.QueryRow(
		`SELECT id, failure_id, query, language, provider, priority, attempts, max_attempts, status, created_at, updated_at
		 FROM queue WHERE status = ? ORDER BY priority DESC, id ASC LIMIT 1`, StatusPending,
	).Scan(&it.ID, &it.FailureID, &it.Query, &it.Language, &it.Provider,
		&it.Priority, &it.Attempts, &it.MaxAttempts, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	res, err := s.db.Exec(
		`UPDATE queue SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		StatusInProgress, it.ID, StatusPending,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Raced with another claimant; caller retries.
		return nil, ErrNotFound
	}
	it.Status = StatusInProgress
	logging.QueueDebug("Claimed queue item %d (failure=%d, provider=%s)", it.ID, it.FailureID, it.Provider)
	return &it, nil
}

// RecoverStuck reverts items held in_progress longer than the timeout back
// to pending, so a crashed worker does not leak items. Returns the number
// of recovered items.
func (s *LocalStore) RecoverStuck(timeout time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// CURRENT_TIMESTAMP is UTC, so the cutoff is computed in sqlite too.
	modifier := fmt.Sprintf("-%d seconds", int(timeout.Seconds()))
	res, err := s.db.Exec(
		`UPDATE queue SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND updated_at < datetime('now', ?)`,
		StatusPending, StatusInProgress, modifier,
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Queue("Recovered %d stuck in_progress items back to pending", n)
	}
	return n, nil
}

// ResetInProgress reverts every in_progress item to pending. Called on
// graceful pause so current progress is not lost.
func (s *LocalStore) ResetInProgress() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE queue SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE status = ?`,
		StatusPending, StatusInProgress,
	)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Queue("Reset %d in_progress items to pending", n)
	}
	return n, nil
}
