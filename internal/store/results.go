package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
)

const resultColumns = `id, failure_id, title, description, url, provider_type, country, language, query,
	confidence_score, occurrences, origin_provider, content_hash, url_valid, created_at, updated_at,
	title_pt, description_pt, title_en, description_en`

func scanResult(row interface{ Scan(...interface{}) error }) (*Result, error) {
	var r Result
	var country, query, origin sql.NullString
	err := row.Scan(&r.ID, &r.FailureID, &r.Title, &r.Description, &r.URL, &r.ProviderType,
		&country, &r.Language, &query, &r.ConfidenceScore, &r.Occurrences, &origin,
		&r.ContentHash, &r.URLValid, &r.CreatedAt, &r.UpdatedAt,
		&r.TitlePT, &r.DescriptionPT, &r.TitleEN, &r.DescriptionEN)
	if err != nil {
		return nil, err
	}
	r.Country = country.String
	r.Query = query.String
	r.OriginProvider = origin.String
	return &r, nil
}

// InsertResult inserts a new result row. Returns ErrDuplicateHash when a
// row with the same content_hash already exists; callers then take the
// merge path instead.
func (s *LocalStore) InsertResult(r *Result) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.Occurrences < 1 {
		r.Occurrences = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO results (failure_id, title, description, url, provider_type, country, language, query,
		   confidence_score, occurrences, origin_provider, content_hash, url_valid,
		   title_pt, description_pt, title_en, description_en)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.FailureID, r.Title, r.Description, r.URL, r.ProviderType, r.Country, r.Language, r.Query,
		r.ConfidenceScore, r.Occurrences, r.OriginProvider, r.ContentHash, r.URLValid,
		r.TitlePT, r.DescriptionPT, r.TitleEN, r.DescriptionEN,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateHash
		}
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	r.ID = id
	logging.StoreDebug("Inserted result %d (failure=%d, score=%.3f, hash=%.12s)", id, r.FailureID, r.ConfidenceScore, r.ContentHash)
	return id, nil
}

// GetResultByHash fetches a result by its content hash.
func (s *LocalStore) GetResultByHash(hash string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT `+resultColumns+` FROM results WHERE content_hash = ?`, hash)
	r, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return r, err
}

// MergeResult records one more occurrence of an existing result and writes
// its new (already boosted and clamped) confidence score. Returns the
// updated occurrence count.
func (s *LocalStore) MergeResult(hash string, score float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE results SET occurrences = occurrences + 1, confidence_score = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE content_hash = ?`,
		clampScore(score), hash,
	)
	if err != nil {
		return 0, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}
	var occurrences int
	err = s.db.QueryRow(`SELECT occurrences FROM results WHERE content_hash = ?`, hash).Scan(&occurrences)
	return occurrences, err
}

// UpdateResultScore writes a re-computed confidence score for a row.
func (s *LocalStore) UpdateResultScore(id int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`UPDATE results SET confidence_score = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		clampScore(score), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateResultTranslations stores validated translations for a row. Nil
// pointers leave the corresponding column untouched, so a failed title
// translation does not erase an earlier description translation.
func (s *LocalStore) UpdateResultTranslations(id int64, titlePT, descPT, titleEN, descEN *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if titlePT != nil {
		sets = append(sets, "title_pt = ?")
		args = append(args, *titlePT)
	}
	if descPT != nil {
		sets = append(sets, "description_pt = ?")
		args = append(args, *descPT)
	}
	if titleEN != nil {
		sets = append(sets, "title_en = ?")
		args = append(args, *titleEN)
	}
	if descEN != nil {
		sets = append(sets, "description_en = ?")
		args = append(args, *descEN)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.Exec(
		`UPDATE results SET `+strings.Join(sets, ", ")+`, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		args...,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListResults returns results, optionally filtered by failure id (pass 0
// for all failures).
func (s *LocalStore) ListResults(failureID int64) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + resultColumns + ` FROM results`
	var args []interface{}
	if failureID > 0 {
		query += ` WHERE failure_id = ?`
		args = append(args, failureID)
	}
	query += ` ORDER BY confidence_score DESC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// ListUntranslatedResults returns non-PT results still missing their
// Portuguese title translation, for the retranslate pass.
func (s *LocalStore) ListUntranslatedResults(limit int) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT ` + resultColumns + ` FROM results
	          WHERE language != 'pt' AND title_pt IS NULL ORDER BY id ASC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// CountResults returns the number of persisted results.
func (s *LocalStore) CountResults() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n)
	return n, err
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
