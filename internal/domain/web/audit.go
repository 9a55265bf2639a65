package web

import "context"

// AuditResult is the normalized output of one PageSpeed Insights run.
// Scores come back 0-1 from the API and are kept as-is.
type AuditResult struct {
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	Scores      Scores  `json:"scores"`
	Metrics     Metrics `json:"metrics"`
}

// Scores value object
type Scores struct {
	Performance   float64 `json:"performance"`
	SEO           float64 `json:"seo"`
	Accessibility float64 `json:"accessibility"`
}

// Metrics keeps the core web vitals as display strings ("2.1 s", "0.02").
type Metrics struct {
	LCP string `json:"lcp"`
	CLS string `json:"cls"`
}

// Auditor port (interface ke PageSpeed Insights)
type Auditor interface {
	Audit(ctx context.Context, url string) (*AuditResult, error)
}
