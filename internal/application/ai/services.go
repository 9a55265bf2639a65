package ai

import (
	"context"
	"encoding/json"

	"github.com/bryanwahyu/apptest-api/internal/domain/ai"
	"github.com/bryanwahyu/apptest-api/internal/domain/apk"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

// ReviewReport asks the model for a textual quality review of one APK report.
func (s *Service) ReviewReport(ctx context.Context, report *apk.Report) (string, error) {
	b, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	return s.client.Review(ctx, string(b))
}
