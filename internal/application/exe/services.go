package exe

import (
	"context"

	"github.com/google/uuid"

	"github.com/bryanwahyu/apptest-api/internal/application"
	apphistory "github.com/bryanwahyu/apptest-api/internal/application/history"
	domain "github.com/bryanwahyu/apptest-api/internal/domain/exe"
	domhistory "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

// Service implements use-cases untuk EXE test runs
type Service struct {
	Runner  domain.Runner
	Repo    domain.Repository
	History *apphistory.Service
	Clock   application.Clock
}

// Run executes the binary test, persists the result, and best-effort records
// it to the user's history. A failed run is still a stored result; only a
// runner-level error (binary missing, bad script) is returned as an error.
func (s *Service) Run(ctx context.Context, userID string, cfg domain.RunConfig) (*domain.RunResult, error) {
	res, err := s.Runner.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res.ID = uuid.New().String()
	res.CreatedAt = s.Clock.Now()

	if err := s.Repo.Save(ctx, res); err != nil {
		return nil, err
	}

	if s.History != nil {
		s.History.Record(userID, domhistory.TypeEXE, domhistory.RawResult{EXE: res}, []string{"automated", "exe"})
	}
	return res, nil
}

// Get ambil 1 run result by id
func (s *Service) Get(ctx context.Context, id string) (*domain.RunResult, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N run terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.RunResult, error) {
	return s.Repo.Latest(ctx, limit)
}
