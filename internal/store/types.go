package store

import "time"

// QueueStatus is the lifecycle state of a queue item.
// Transitions: pending -> in_progress -> (done | error), plus the recovery
// edge in_progress -> pending for items abandoned by a crashed worker.
type QueueStatus string

const (
	StatusPending    QueueStatus = "pending"
	StatusInProgress QueueStatus = "in_progress"
	StatusDone       QueueStatus = "done"
	StatusError      QueueStatus = "error"
)

// Valid reports whether s is one of the four lifecycle states.
func (s QueueStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusError:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s QueueStatus) CanTransitionTo(next QueueStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress || next == StatusError
	case StatusInProgress:
		// pending is the recovery edge
		return next == StatusDone || next == StatusError || next == StatusPending
	default:
		return false
	}
}

// Failure is one market-failure record: a structured problem description
// that defines a research topic. Failures are created out-of-band (seed
// command) and are read-only to the pipeline.
type Failure struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Pillar      string `json:"pillar" yaml:"pillar"`
	Description string `json:"description" yaml:"description"`
	SearchHint  string `json:"search_hint" yaml:"search_hint"`
}

// QueueItem is one (failure, query variant, language, provider) unit of work.
type QueueItem struct {
	ID          int64
	FailureID   int64
	Query       string
	Language    string
	Provider    string
	Priority    int
	Attempts    int
	MaxAttempts int
	Status      QueueStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Result is a persisted, scored, deduplicated record of a search hit.
// confidence_score and the translation columns are the only mutable fields.
type Result struct {
	ID              int64
	FailureID       int64
	Title           string
	Description     string
	URL             string
	ProviderType    string
	Country         string
	Language        string
	Query           string
	ConfidenceScore float64
	Occurrences     int
	OriginProvider  string
	ContentHash     string
	URLValid        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Portuguese translations, populated for non-PT results when
	// translation succeeded and validated.
	TitlePT       *string
	DescriptionPT *string

	// English translations, populated opportunistically.
	TitleEN       *string
	DescriptionEN *string
}

// HistoryEntry is one audit row for an executed queue item.
type HistoryEntry struct {
	ID             int64
	FailureID      int64
	Query          string
	Language       string
	Provider       string
	Status         string
	ResultsFound   int
	ErrorMessage   string
	ElapsedSeconds float64
	RunID          string
	ExecutedAt     time.Time
}
