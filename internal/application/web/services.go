package web

import (
	"context"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/web"
	domhistory "github.com/bryanwahyu/apptest-api/internal/domain/history"
	apphistory "github.com/bryanwahyu/apptest-api/internal/application/history"
)

// Service implements use-cases untuk web page audits
type Service struct {
	Auditor domain.Auditor
	History *apphistory.Service
}

// Audit runs a PageSpeed audit for url and best-effort records the outcome
// to the user's history. The audit result is returned even when the history
// write later fails.
func (s *Service) Audit(ctx context.Context, userID, url string) (*domain.AuditResult, error) {
	res, err := s.Auditor.Audit(ctx, url)
	if err != nil {
		return nil, err
	}

	if s.History != nil {
		s.History.Record(userID, domhistory.TypeWeb, domhistory.RawResult{Web: res}, []string{"automated", "pagespeed"})
	}
	return res, nil
}
