package history

import (
	"strings"
	"time"
)

// ID tipe untuk HistoryEntry
type EntryID string

// TestType enum
type TestType string

const (
	TypeWeb TestType = "web"
	TypeAPK TestType = "apk"
	TypeEXE TestType = "exe"
)

// Status enum
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

const (
	MaxTitleLen       = 120
	MaxDescriptionLen = 500
)

// Aggregate Root: HistoryEntry. Immutable after creation — entries are only
// ever inserted or deleted, never updated.
type HistoryEntry struct {
	ID            EntryID   `json:"id"`
	UserID        string    `json:"userId"`
	TestType      TestType  `json:"testType"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        Status    `json:"status"`
	ResultID      string    `json:"resultId,omitempty"`
	ResultSummary any       `json:"resultSummary,omitempty"`
	TestTarget    string    `json:"testTarget,omitempty"`
	Duration      int64     `json:"duration,omitempty"`
	Tags          []string  `json:"tags"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ValidTestType reports whether t is one of the known test types.
func ValidTestType(t TestType) bool {
	switch t {
	case TypeWeb, TypeAPK, TypeEXE:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusSuccess, StatusWarning, StatusError:
		return true
	}
	return false
}

// Validate checks the invariants that must hold before an entry is persisted.
func (e *HistoryEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return NewValidationError("userId is required")
	}
	if !ValidTestType(e.TestType) {
		return NewValidationError("invalid testType: " + string(e.TestType))
	}
	if !ValidStatus(e.Status) {
		return NewValidationError("invalid status: " + string(e.Status))
	}
	if strings.TrimSpace(e.Title) == "" {
		return NewValidationError("title is required")
	}
	if len(e.Title) > MaxTitleLen {
		return NewValidationError("title exceeds 120 characters")
	}
	if strings.TrimSpace(e.Description) == "" {
		return NewValidationError("description is required")
	}
	if len(e.Description) > MaxDescriptionLen {
		return NewValidationError("description exceeds 500 characters")
	}
	if e.Duration < 0 {
		return NewValidationError("duration must be >= 0")
	}
	return nil
}
