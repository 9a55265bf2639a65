package pagespeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/web"
)

const defaultBaseURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

// Client calls Google PageSpeed Insights.
type Client struct {
	httpClient *http.Client
	apiKey     string
	strategy   string // mobile | desktop
	baseURL    string
}

func New(apiKey, strategy string) *Client {
	if strategy == "" {
		strategy = "mobile"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		strategy:   strategy,
		baseURL:    defaultBaseURL,
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(apiKey, strategy, baseURL string) *Client {
	c := New(apiKey, strategy)
	c.baseURL = baseURL
	return c
}

// response mirrors the slice of the Lighthouse payload we consume.
type response struct {
	LighthouseResult struct {
		Categories struct {
			Performance   category `json:"performance"`
			SEO           category `json:"seo"`
			Accessibility category `json:"accessibility"`
		} `json:"categories"`
		Audits map[string]struct {
			DisplayValue string `json:"displayValue"`
		} `json:"audits"`
	} `json:"lighthouseResult"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type category struct {
	Score float64 `json:"score"`
}

// Audit runs one PageSpeed analysis. Scores come back in the API's 0-1 range.
func (c *Client) Audit(ctx context.Context, target string) (*domain.AuditResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("pagespeed api key is not configured")
	}

	params := url.Values{}
	params.Set("url", target)
	params.Set("key", c.apiKey)
	params.Set("strategy", c.strategy)
	params.Add("category", "performance")
	params.Add("category", "seo")
	params.Add("category", "accessibility")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling pagespeed: %w", err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding pagespeed response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := body.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("pagespeed: %s", msg)
	}

	cats := body.LighthouseResult.Categories
	return &domain.AuditResult{
		URL:    target,
		Status: "success",
		Scores: domain.Scores{
			Performance:   cats.Performance.Score,
			SEO:           cats.SEO.Score,
			Accessibility: cats.Accessibility.Score,
		},
		Metrics: domain.Metrics{
			LCP: displayValue(body, "largest-contentful-paint"),
			CLS: displayValue(body, "cumulative-layout-shift"),
		},
	}, nil
}

func displayValue(body response, audit string) string {
	if a, ok := body.LighthouseResult.Audits[audit]; ok && a.DisplayValue != "" {
		return a.DisplayValue
	}
	return "N/A"
}
