package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemOutcome is the terminal state of one item's acquisition.
type ItemOutcome string

const (
	OutcomeSucceeded ItemOutcome = "succeeded"
	OutcomeExhausted ItemOutcome = "exhausted"
)

// AcquisitionRecord is the persisted result of one completed item.
// History persistence is optional; when no repository is configured the
// process keeps no state beyond the media files and the text log.
type AcquisitionRecord struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	ItemTitle     string        `json:"item_title" gorm:"not null;index"`
	SeriesID      string        `json:"series_id" gorm:"index"`
	SequenceIndex int           `json:"sequence_index"`
	Outcome       ItemOutcome   `json:"outcome" gorm:"not null;index"`
	SourceURL     string        `json:"source_url,omitempty"`
	SourceKind    SourceKind    `json:"source_kind,omitempty"`
	Attempts      int           `json:"attempts"`
	DiscoveryUsed bool          `json:"discovery_used"`
	Elapsed       time.Duration `json:"elapsed"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	CreatedAt     time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// NewAcquisitionRecord creates a record for a completed item.
func NewAcquisitionRecord(item *Item, outcome ItemOutcome) *AcquisitionRecord {
	return &AcquisitionRecord{
		ID:            uuid.New().String(),
		ItemTitle:     item.Title,
		SeriesID:      item.SeriesID,
		SequenceIndex: item.SequenceIndex,
		Outcome:       outcome,
		CreatedAt:     time.Now(),
	}
}

// HistoryStats summarizes persisted acquisition outcomes.
type HistoryStats struct {
	Total         int64 `json:"total"`
	Succeeded     int64 `json:"succeeded"`
	Exhausted     int64 `json:"exhausted"`
	DiscoveryUsed int64 `json:"discovery_used"`
}

// HistoryRepository persists completed acquisitions.
type HistoryRepository interface {
	// Create stores a completed acquisition record
	Create(record *AcquisitionRecord) error

	// FindByID retrieves a record by ID
	FindByID(id string) (*AcquisitionRecord, error)

	// FindByOutcome retrieves records with the given terminal outcome
	FindByOutcome(outcome ItemOutcome) ([]*AcquisitionRecord, error)

	// Recent retrieves the most recent records, newest first
	Recent(limit int) ([]*AcquisitionRecord, error)

	// GetStats returns aggregate history statistics
	GetStats() (*HistoryStats, error)
}
