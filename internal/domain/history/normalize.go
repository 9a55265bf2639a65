package history

import (
	"fmt"

	"github.com/bryanwahyu/apptest-api/internal/domain/apk"
	"github.com/bryanwahyu/apptest-api/internal/domain/exe"
	"github.com/bryanwahyu/apptest-api/internal/domain/web"
)

// RawResult is the tagged union of producer outputs. Exactly one arm should
// be set; the normalizer picks the arm matching the test type and degrades
// any missing fields to documented defaults rather than failing.
type RawResult struct {
	Web *web.AuditResult
	APK *apk.Report
	EXE *exe.RunResult
}

// WebSummary is the per-type projection kept on the entry for display.
type WebSummary struct {
	URL     string      `json:"url"`
	Scores  web.Scores  `json:"scores"`
	Metrics web.Metrics `json:"metrics"`
}

type ApkSummary struct {
	PackageName string     `json:"packageName"`
	AppName     string     `json:"appName"`
	VersionName string     `json:"versionName"`
	Scores      apk.Scores `json:"scores"`
	ApkSize     float64    `json:"apkSize"`
}

type ExeSummary struct {
	TestName    string `json:"testName"`
	Status      string `json:"status"`
	Duration    int64  `json:"duration"`
	StepsPassed int    `json:"stepsPassed"`
}

// Normalize maps one raw producer result into the canonical entry shape.
// The mapping is total: any combination of absent optional fields still
// yields a valid entry. ID and CreatedAt are left for the store to assign.
func Normalize(userID string, testType TestType, raw RawResult, tags []string) *HistoryEntry {
	e := &HistoryEntry{
		UserID:   userID,
		TestType: testType,
		Tags:     tags,
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}

	switch testType {
	case TypeWeb:
		normalizeWeb(e, raw.Web)
	case TypeAPK:
		normalizeAPK(e, raw.APK)
	case TypeEXE:
		normalizeEXE(e, raw.EXE)
	}
	return e
}

func normalizeWeb(e *HistoryEntry, r *web.AuditResult) {
	if r == nil {
		r = &web.AuditResult{}
	}
	e.Title = r.Title
	if e.Title == "" {
		e.Title = fmt.Sprintf("PageSpeed Test: %s", r.URL)
	}
	e.Description = r.Description
	if e.Description == "" {
		e.Description = fmt.Sprintf("Analyzed: %s", r.URL)
	}
	e.Status = mapStatus(r.Status)
	e.TestTarget = r.URL
	e.ResultSummary = &WebSummary{URL: r.URL, Scores: r.Scores, Metrics: r.Metrics}
}

func normalizeAPK(e *HistoryEntry, r *apk.Report) {
	if r == nil {
		r = &apk.Report{}
	}
	e.Title = r.AppName
	if e.Title == "" {
		e.Title = "APK Test"
	}
	e.Description = fmt.Sprintf("Package: %s | Version: %s",
		orNA(r.PackageName), orNA(r.VersionName))
	e.Status = mapStatus(r.Status)
	e.ResultID = r.ID
	e.TestTarget = r.PackageName
	if e.TestTarget == "" {
		e.TestTarget = r.AppName
	}
	e.ResultSummary = &ApkSummary{
		PackageName: r.PackageName,
		AppName:     r.AppName,
		VersionName: r.VersionName,
		Scores:      r.Scores,
		ApkSize:     r.ApkSizeMB,
	}
}

func normalizeEXE(e *HistoryEntry, r *exe.RunResult) {
	if r == nil {
		r = &exe.RunResult{}
	}
	e.Title = r.TestName
	if e.Title == "" {
		e.Title = "EXE Test"
	}
	status := r.Status
	if status == "" {
		status = "completed"
	}
	e.Description = fmt.Sprintf("Status: %s | Duration: %dms", status, r.Duration)
	e.Status = mapStatus(r.Status)
	e.ResultID = r.ID
	e.Duration = r.Duration
	e.TestTarget = r.AppPath
	if e.TestTarget == "" {
		e.TestTarget = r.TestName
	}
	e.ResultSummary = &ExeSummary{
		TestName:    r.TestName,
		Status:      r.Status,
		Duration:    r.Duration,
		StepsPassed: r.StepsPassed(),
	}
}

// mapStatus folds heterogeneous producer statuses into the three entry
// statuses. Anything unrecognized, including "running" and empty, is a
// warning rather than an error.
func mapStatus(raw string) Status {
	switch raw {
	case "passed", "success":
		return StatusSuccess
	case "failed", "error":
		return StatusError
	default:
		return StatusWarning
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
