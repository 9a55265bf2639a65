package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/apptest-api/internal/application"
	apphistory "github.com/bryanwahyu/apptest-api/internal/application/history"
	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
	"github.com/bryanwahyu/apptest-api/internal/infra/db/sqlite"
	"github.com/bryanwahyu/apptest-api/internal/middleware"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.Connect(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	historySvc := &apphistory.Service{
		Repo:  sqlite.NewHistoryRepository(db),
		Clock: application.SystemClock{},
	}
	handler := middleware.HeaderIdentity(
		NewRouter(historySvc, nil, nil, nil, nil, t.TempDir()))

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHistoryEndpoints(t *testing.T) {
	srv := newTestServer(t)

	t.Run("requires_identity", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/v1/history", "", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("create_then_list", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/v1/history", "user-1", `{
			"testType": "web",
			"title": "PageSpeed Test: https://example.com",
			"description": "Analyzed: https://example.com",
			"status": "success",
			"testTarget": "https://example.com",
			"tags": ["manual"]
		}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var created domain.HistoryEntry
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		require.NotEmpty(t, created.ID)

		resp = do(t, srv, http.MethodGet, "/v1/history?page=1&limit=10", "user-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page domain.PaginatedEntries
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		require.Len(t, page.Items, 1)
		require.Equal(t, int64(1), page.Meta.Total)

		// entries are invisible to other users
		resp = do(t, srv, http.MethodGet, "/v1/history", "user-2", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var other domain.PaginatedEntries
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&other))
		require.Empty(t, other.Items)

		t.Run("delete", func(t *testing.T) {
			resp := do(t, srv, http.MethodDelete, "/v1/history/"+string(created.ID), "user-1", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp = do(t, srv, http.MethodDelete, "/v1/history/"+string(created.ID), "user-1", "")
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("validation_maps_to_400", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/v1/history", "user-1", `{
			"testType": "ios",
			"title": "t",
			"description": "d",
			"status": "success"
		}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = do(t, srv, http.MethodGet, "/v1/history?status=pending", "user-1", "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = do(t, srv, http.MethodDelete, "/v1/history/not-a-uuid", "user-1", "")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("stats_and_type_scoped", func(t *testing.T) {
		srv := newTestServer(t)

		for _, body := range []string{
			`{"testType":"web","title":"a","description":"d","status":"success"}`,
			`{"testType":"web","title":"b","description":"d","status":"error"}`,
			`{"testType":"apk","title":"c","description":"d","status":"warning"}`,
		} {
			resp := do(t, srv, http.MethodPost, "/v1/history", "user-1", body)
			require.Equal(t, http.StatusCreated, resp.StatusCode)
		}

		resp := do(t, srv, http.MethodGet, "/v1/history/stats", "user-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var stats domain.Statistics
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
		require.Equal(t, int64(3), stats.Total)
		require.Equal(t, int64(2), stats.ByTestType[domain.TypeWeb].Total)

		resp = do(t, srv, http.MethodGet, "/v1/history/type/web", "user-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var page domain.TypePage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		require.Equal(t, int64(2), page.Total)

		resp = do(t, srv, http.MethodDelete, "/v1/history/type/web", "user-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var cleared map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&cleared))
		require.Equal(t, float64(2), cleared["deletedCount"])

		resp = do(t, srv, http.MethodDelete, "/v1/history", "user-1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
