// Package dedup detects near-duplicate search hits in three passes of
// increasing cost: canonical hash, Jaccard token overlap, and semantic
// similarity. Duplicates merge into the surviving row with a bounded
// occurrence boost instead of creating new rows.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/embedding"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/logging"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/store"
	"github.com/felipematos/sebraae-politicas-publicas-sub000/internal/vector"
)

// Occurrence boost applied on merge: each observation past the first adds
// a little confidence, capped so repetition alone cannot saturate a score.
const (
	occurrenceBoostStep = 0.05
	occurrenceBoostCap  = 0.30
)

// Stats is a snapshot of dedup activity since process start.
type Stats struct {
	DistinctHashes     int64   `json:"distinct_hashes"`
	TotalOccurrences   int64   `json:"total_occurrences"`
	DuplicatesDetected int64   `json:"duplicates_detected"`
	Threshold          float64 `json:"threshold"`
}

// Deduplicator persists new results and merges duplicates. Safe for
// concurrent use; the underlying hash uniqueness constraint makes merging
// idempotent across workers.
type Deduplicator struct {
	store   *store.LocalStore
	engine  embedding.Engine
	vectors *vector.Collection

	jaccardThreshold  float64
	semanticThreshold float64

	mu    sync.Mutex
	stats Stats
}

// New builds a deduplicator. engine and vectors may be nil; the semantic
// pass is then skipped.
func New(st *store.LocalStore, engine embedding.Engine, vectors *vector.Collection, jaccardThreshold, semanticThreshold float64) *Deduplicator {
	if jaccardThreshold <= 0 {
		jaccardThreshold = 0.80
	}
	if semanticThreshold <= 0 {
		semanticThreshold = 0.85
	}
	return &Deduplicator{
		store:             st,
		engine:            engine,
		vectors:           vectors,
		jaccardThreshold:  jaccardThreshold,
		semanticThreshold: semanticThreshold,
		stats:             Stats{Threshold: jaccardThreshold},
	}
}

// CanonicalHash normalizes title and description (lowercase, punctuation
// stripped, whitespace collapsed) and returns the SHA-256 hex digest of
// the joined text.
func CanonicalHash(title, description string) string {
	canonical := canonicalize(title) + " " + canonicalize(description)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func canonicalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Jaccard computes token-set overlap between two texts in [0,1]. Two empty
// texts are identical; one empty text matches nothing.
func Jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var intersection int
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(canonicalize(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// IsNew reports whether candidate would be stored as a fresh row. It runs
// the same three passes as Process without persisting anything.
func (d *Deduplicator) IsNew(ctx context.Context, candidate *store.Result) (bool, error) {
	dup, err := d.findDuplicate(ctx, candidate)
	if err != nil {
		return false, err
	}
	return dup == nil, nil
}

// Process persists candidate as a new row or merges it into its duplicate.
// The returned result is the surviving row; isNew reports which path was
// taken. candidate.ConfidenceScore must be the freshly computed score.
func (d *Deduplicator) Process(ctx context.Context, candidate *store.Result) (surviving *store.Result, isNew bool, err error) {
	candidate.ContentHash = CanonicalHash(candidate.Title, candidate.Description)
	if candidate.Occurrences < 1 {
		candidate.Occurrences = 1
	}

	dup, err := d.findDuplicate(ctx, candidate)
	if err != nil {
		return nil, false, err
	}
	if dup != nil {
		return d.merge(dup, candidate)
	}

	id, err := d.store.InsertResult(candidate)
	if errors.Is(err, store.ErrDuplicateHash) {
		// Another worker inserted the same content between our check and
		// this insert. Merge into their row.
		existing, getErr := d.store.GetResultByHash(candidate.ContentHash)
		if getErr != nil {
			return nil, false, getErr
		}
		return d.merge(existing, candidate)
	}
	if err != nil {
		return nil, false, err
	}
	candidate.ID = id

	d.mu.Lock()
	d.stats.DistinctHashes++
	d.stats.TotalOccurrences++
	d.mu.Unlock()
	return candidate, true, nil
}

// findDuplicate returns the existing row candidate duplicates, or nil.
func (d *Deduplicator) findDuplicate(ctx context.Context, candidate *store.Result) (*store.Result, error) {
	hash := candidate.ContentHash
	if hash == "" {
		hash = CanonicalHash(candidate.Title, candidate.Description)
	}

	existing, err := d.store.GetResultByHash(hash)
	if err == nil {
		logging.DedupDebug("Exact hash duplicate: %q", truncate(candidate.Title))
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	siblings, err := d.store.ListResults(candidate.FailureID)
	if err != nil {
		return nil, err
	}

	candidateText := candidate.Title + " " + candidate.Description
	for i := range siblings {
		s := &siblings[i]
		if sim := Jaccard(candidateText, s.Title+" "+s.Description); sim >= d.jaccardThreshold {
			logging.DedupDebug("Jaccard duplicate (%.2f): %q ~ %q", sim, truncate(candidate.Title), truncate(s.Title))
			return s, nil
		}
	}

	return d.findSemanticDuplicate(ctx, candidate, candidateText)
}

func (d *Deduplicator) findSemanticDuplicate(ctx context.Context, candidate *store.Result, text string) (*store.Result, error) {
	if d.engine == nil || d.vectors == nil {
		return nil, nil
	}

	v, err := d.engine.Embed(ctx, text)
	if err != nil || embedding.IsZero(v) {
		return nil, nil
	}

	filter := map[string]string{"failure_id": strconv.FormatInt(candidate.FailureID, 10)}
	matches, err := d.vectors.Query(ctx, v, 3, filter)
	if err != nil {
		logging.DedupDebug("Semantic pass failed: %v", err)
		return nil, nil
	}

	for _, m := range matches {
		if m.Similarity < d.semanticThreshold {
			continue
		}
		existing, err := d.store.GetResultByHash(m.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		logging.DedupDebug("Semantic duplicate (%.2f): %q ~ %q", m.Similarity, truncate(candidate.Title), truncate(existing.Title))
		return existing, nil
	}
	return nil, nil
}

// merge folds candidate into existing: occurrences increment and the score
// becomes the better base score plus the bounded occurrence boost.
func (d *Deduplicator) merge(existing, candidate *store.Result) (*store.Result, bool, error) {
	base := existing.ConfidenceScore - OccurrenceBoost(existing.Occurrences)
	if candidate.ConfidenceScore > base {
		base = candidate.ConfidenceScore
	}
	newScore := base + OccurrenceBoost(existing.Occurrences+1)
	if newScore > 1 {
		newScore = 1
	}

	occurrences, err := d.store.MergeResult(existing.ContentHash, newScore)
	if err != nil {
		return nil, false, err
	}
	existing.Occurrences = occurrences
	existing.ConfidenceScore = newScore

	d.mu.Lock()
	d.stats.DuplicatesDetected++
	d.stats.TotalOccurrences++
	d.mu.Unlock()

	logging.Dedup("Merged duplicate of %q: occurrences=%d score=%.3f", truncate(existing.Title), occurrences, newScore)
	return existing, false, nil
}

// OccurrenceBoost returns the additive score boost for n observations of
// the same content.
func OccurrenceBoost(n int) float64 {
	if n <= 1 {
		return 0
	}
	boost := occurrenceBoostStep * float64(n-1)
	if boost > occurrenceBoostCap {
		boost = occurrenceBoostCap
	}
	return boost
}

// Stats returns a snapshot of the counters.
func (d *Deduplicator) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func truncate(s string) string {
	const max = 60
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
