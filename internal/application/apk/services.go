package apk

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bryanwahyu/apptest-api/internal/application"
	apphistory "github.com/bryanwahyu/apptest-api/internal/application/history"
	domain "github.com/bryanwahyu/apptest-api/internal/domain/apk"
	domhistory "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

// Service implements use-cases untuk APK analysis
type Service struct {
	Parser    domain.Parser
	Repo      domain.Repository
	Artifacts domain.ArtifactStore
	Scorer    domain.Scorer
	History   *apphistory.Service
	Clock     application.Clock
}

// AnalyzeResult wraps the stored report for the upload response.
type AnalyzeResult struct {
	ReportID string         `json:"reportId"`
	Report   *domain.Report `json:"data"`
}

// Analyze parses an uploaded APK, scores it, stores the report, uploads the
// artifact, and best-effort records it into the user's history. The local
// file is removed once the artifact upload finishes (or fails).
func (s *Service) Analyze(ctx context.Context, userID, localPath string) (*AnalyzeResult, error) {
	manifest, err := s.Parser.Parse(localPath)
	if err != nil {
		return nil, fmt.Errorf("parsing apk manifest: %w", err)
	}

	sizeMB, err := fileSizeMB(localPath)
	if err != nil {
		return nil, fmt.Errorf("reading apk size: %w", err)
	}

	report := s.Scorer.BuildReport(manifest, sizeMB)
	report.ID = uuid.New().String()
	report.CreatedAt = s.Clock.Now()

	// upload artifact and clean up the local copy regardless of outcome
	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/apk/%s%s", userID, report.ID, filepath.Ext(localPath))
		url, uerr := s.Artifacts.UploadAndCleanup(ctx, localPath, key)
		if uerr != nil {
			os.Remove(localPath)
			return nil, uerr
		}
		report.ArtifactURL = url
	}

	if err := s.Repo.Save(ctx, report); err != nil {
		return nil, err
	}

	if s.History != nil {
		s.History.Record(userID, domhistory.TypeAPK, domhistory.RawResult{APK: report}, []string{"automated", "apk"})
	}

	return &AnalyzeResult{ReportID: report.ID, Report: report}, nil
}

// Get ambil 1 report by id
func (s *Service) Get(ctx context.Context, id string) (*domain.Report, error) {
	return s.Repo.Get(ctx, id)
}

// Latest ambil N report terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Report, error) {
	return s.Repo.Latest(ctx, limit)
}

func fileSizeMB(path string) (float64, error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return math.Round(float64(st.Size())/(1024*1024)*100) / 100, nil
}
