package history

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/apptest-api/internal/application"
	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

// Service implements use-cases untuk HistoryEntry
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo  domain.Repository
	Clock application.Clock
}

//
// ==== USE CASES ====
//

// Command untuk create entry lewat API
type CreateEntryCommand struct {
	TestType      string   `json:"testType"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	ResultID      string   `json:"resultId"`
	ResultSummary any      `json:"resultSummary"`
	TestTarget    string   `json:"testTarget"`
	Duration      int64    `json:"duration"`
	Tags          []string `json:"tags"`
}

// Create validates and persists one entry. Foreground path: store failures
// propagate to the caller.
func (s *Service) Create(ctx context.Context, userID string, cmd CreateEntryCommand) (*domain.HistoryEntry, error) {
	e := &domain.HistoryEntry{
		UserID:        userID,
		TestType:      domain.TestType(cmd.TestType),
		Title:         strings.TrimSpace(cmd.Title),
		Description:   strings.TrimSpace(cmd.Description),
		Status:        domain.Status(cmd.Status),
		ResultID:      cmd.ResultID,
		ResultSummary: cmd.ResultSummary,
		TestTarget:    strings.TrimSpace(cmd.TestTarget),
		Duration:      cmd.Duration,
		Tags:          cmd.Tags,
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.ID = domain.EntryID(uuid.New().String())
	e.CreatedAt = s.Clock.Now()

	if err := s.Repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Record logs a finished test to the user's history, best-effort. It returns
// immediately; the write happens on a detached goroutine so a slow or failing
// store never delays or fails the test that triggered it. An empty userID
// (unauthenticated caller) makes it a silent no-op.
func (s *Service) Record(userID string, testType domain.TestType, raw domain.RawResult, tags []string) {
	if strings.TrimSpace(userID) == "" {
		return
	}

	e := domain.Normalize(userID, testType, raw, tags)
	e.ID = domain.EntryID(uuid.New().String())
	e.CreatedAt = s.Clock.Now()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Validate(); err != nil {
			log.Printf("history record dropped: user=%s type=%s err=%v", userID, testType, err)
			return
		}
		if err := s.Repo.Create(ctx, e); err != nil {
			// swallowed: recording is an audit side-effect, never the outcome
			log.Printf("history record failed: user=%s type=%s err=%v", userID, testType, err)
		}
	}()
}

// RecordAndWait is the synchronous variant used by tests and by callers that
// need the entry back.
func (s *Service) RecordAndWait(ctx context.Context, userID string, testType domain.TestType, raw domain.RawResult, tags []string) (*domain.HistoryEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	e := domain.Normalize(userID, testType, raw, tags)
	e.ID = domain.EntryID(uuid.New().String())
	e.CreatedAt = s.Clock.Now()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List ambil 1 halaman history dengan filter
func (s *Service) List(ctx context.Context, userID string, f domain.ListFilter) (domain.PaginatedEntries, error) {
	f.Normalize()
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return domain.PaginatedEntries{}, domain.NewValidationError("invalid status filter: " + string(f.Status))
	}
	if f.TestType != "" && !domain.ValidTestType(f.TestType) {
		return domain.PaginatedEntries{}, domain.NewValidationError("invalid testType filter: " + string(f.TestType))
	}
	return s.Repo.List(ctx, userID, f)
}

// ListByType ambil 1 halaman history untuk satu test type
func (s *Service) ListByType(ctx context.Context, userID string, t domain.TestType, page, limit int) (domain.TypePage, error) {
	if !domain.ValidTestType(t) {
		return domain.TypePage{}, domain.NewValidationError("invalid testType: " + string(t))
	}
	if page < 1 {
		page = domain.DefaultPage
	}
	if limit < 1 {
		limit = domain.DefaultLimit
	}
	if limit > domain.MaxLimit {
		limit = domain.MaxLimit
	}
	return s.Repo.ListByType(ctx, userID, t, page, limit)
}

// Statistics rekap per test type + status
func (s *Service) Statistics(ctx context.Context, userID string) (*domain.Statistics, error) {
	return s.Repo.Statistics(ctx, userID)
}

// Delete hapus 1 entry by id
func (s *Service) Delete(ctx context.Context, userID string, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NewValidationError("invalid history id")
	}
	return s.Repo.DeleteByID(ctx, userID, domain.EntryID(id))
}

// ClearAll hapus semua entry milik user
func (s *Service) ClearAll(ctx context.Context, userID string) (int64, error) {
	return s.Repo.DeleteAll(ctx, userID)
}

// ClearByType hapus semua entry milik user untuk satu test type
func (s *Service) ClearByType(ctx context.Context, userID string, t domain.TestType) (int64, error) {
	if !domain.ValidTestType(t) {
		return 0, domain.NewValidationError("invalid testType: " + string(t))
	}
	return s.Repo.DeleteByType(ctx, userID, t)
}
