package store

// InsertHistory appends one audit row for an executed queue item.
func (s *LocalStore) InsertHistory(h *HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO history (failure_id, query, language, provider, status, results_found, error_message, elapsed_seconds, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.FailureID, h.Query, h.Language, h.Provider, h.Status, h.ResultsFound, h.ErrorMessage, h.ElapsedSeconds, h.RunID,
	)
	if err != nil {
		return err
	}
	h.ID, _ = res.LastInsertId()
	return nil
}

// ListHistory returns the most recent audit rows, newest first.
func (s *LocalStore) ListHistory(limit int) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, failure_id, query, language, provider, status, results_found,
		        COALESCE(error_message, ''), COALESCE(elapsed_seconds, 0), COALESCE(run_id, ''), executed_at
		 FROM history ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.FailureID, &h.Query, &h.Language, &h.Provider, &h.Status,
			&h.ResultsFound, &h.ErrorMessage, &h.ElapsedSeconds, &h.RunID, &h.ExecutedAt); err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}
