package pagespeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAudit(t *testing.T) {
	t.Run("parses_scores_and_vitals", func(t *testing.T) {
		var gotQuery map[string][]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"lighthouseResult": {
					"categories": {
						"performance": {"score": 0.91},
						"seo": {"score": 0.84},
						"accessibility": {"score": 0.77}
					},
					"audits": {
						"largest-contentful-paint": {"displayValue": "1.2 s"},
						"cumulative-layout-shift": {"displayValue": "0.01"}
					}
				}
			}`))
		}))
		defer srv.Close()

		c := NewWithBaseURL("test-key", "mobile", srv.URL)
		res, err := c.Audit(context.Background(), "https://example.com")
		require.NoError(t, err)

		require.Equal(t, "https://example.com", res.URL)
		require.Equal(t, "success", res.Status)
		require.Equal(t, 0.91, res.Scores.Performance)
		require.Equal(t, 0.84, res.Scores.SEO)
		require.Equal(t, 0.77, res.Scores.Accessibility)
		require.Equal(t, "1.2 s", res.Metrics.LCP)
		require.Equal(t, "0.01", res.Metrics.CLS)

		require.Equal(t, "test-key", gotQuery["key"][0])
		require.Equal(t, "mobile", gotQuery["strategy"][0])
		require.ElementsMatch(t, []string{"performance", "seo", "accessibility"}, gotQuery["category"])
	})

	t.Run("missing_audits_degrade_to_na", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"lighthouseResult": {"categories": {"performance": {"score": 0.5}}}}`))
		}))
		defer srv.Close()

		res, err := NewWithBaseURL("test-key", "", srv.URL).Audit(context.Background(), "https://example.com")
		require.NoError(t, err)
		require.Equal(t, "N/A", res.Metrics.LCP)
		require.Equal(t, "N/A", res.Metrics.CLS)
	})

	t.Run("api_error_surfaces_message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "Invalid value for url"}}`))
		}))
		defer srv.Close()

		_, err := NewWithBaseURL("test-key", "mobile", srv.URL).Audit(context.Background(), "notaurl")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Invalid value for url")
	})

	t.Run("missing_api_key", func(t *testing.T) {
		_, err := New("", "mobile").Audit(context.Background(), "https://example.com")
		require.Error(t, err)
	})
}
