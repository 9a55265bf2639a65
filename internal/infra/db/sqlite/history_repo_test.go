package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

func newTestRepo(t *testing.T) *HistoryRepository {
	t.Helper()
	db, err := Connect(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHistoryRepository(db)
}

func seedEntry(t *testing.T, r *HistoryRepository, user string, i int, tt domain.TestType, st domain.Status, created time.Time) *domain.HistoryEntry {
	t.Helper()
	e := &domain.HistoryEntry{
		ID:          domain.EntryID(fmt.Sprintf("%s-%03d", user, i)),
		UserID:      user,
		TestType:    tt,
		Title:       fmt.Sprintf("entry %03d", i),
		Description: fmt.Sprintf("description %03d", i),
		Status:      st,
		CreatedAt:   created,
	}
	require.NoError(t, r.Create(context.Background(), e))
	return e
}

func TestListOrderingAndPagination(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		seedEntry(t, repo, "user-1", i, domain.TypeWeb, domain.StatusSuccess, base.Add(time.Duration(i)*time.Minute))
	}

	t.Run("newest_first", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 10)
		require.Equal(t, "entry 024", page.Items[0].Title)
		require.Equal(t, "entry 015", page.Items[9].Title)
	})

	t.Run("page_meta", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 2, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 10)
		require.Equal(t, int64(25), page.Meta.Total)
		require.Equal(t, 3, page.Meta.Pages)
		require.True(t, page.Meta.HasNext)
		require.True(t, page.Meta.HasPrev)

		last, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 3, Limit: 10})
		require.NoError(t, err)
		require.Len(t, last.Items, 5)
		require.False(t, last.Meta.HasNext)
	})

	t.Run("past_the_end", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 9, Limit: 10})
		require.NoError(t, err)
		require.Empty(t, page.Items)
		require.Equal(t, int64(25), page.Meta.Total)
	})
}

func TestListTiebreakOnEqualTimestamps(t *testing.T) {
	repo := newTestRepo(t)
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedEntry(t, repo, "user-1", i, domain.TypeWeb, domain.StatusSuccess, ts)
	}

	// equal created_at falls back to insertion order, so repeated reads
	// return an identical sequence
	first, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 1, Limit: 5})
	require.NoError(t, err)
	second, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 1, Limit: 5})
	require.NoError(t, err)

	require.Len(t, first.Items, 5)
	for i := range first.Items {
		require.Equal(t, first.Items[i].ID, second.Items[i].ID)
	}
}

func TestListFilters(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedEntry(t, repo, "user-1", 0, domain.TypeWeb, domain.StatusSuccess, base)
	seedEntry(t, repo, "user-1", 1, domain.TypeWeb, domain.StatusError, base.Add(time.Minute))
	seedEntry(t, repo, "user-1", 2, domain.TypeAPK, domain.StatusWarning, base.Add(2*time.Minute))

	e := &domain.HistoryEntry{
		ID:          "user-1-search",
		UserID:      "user-1",
		TestType:    domain.TypeWeb,
		Title:       "PageSpeed Test: https://example.com",
		Description: "Analyzed: https://example.com",
		Status:      domain.StatusSuccess,
		TestTarget:  "https://example.com",
		CreatedAt:   base.Add(3 * time.Minute),
	}
	require.NoError(t, repo.Create(context.Background(), e))

	t.Run("by_status", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Status: domain.StatusError, Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.Equal(t, domain.StatusError, page.Items[0].Status)
	})

	t.Run("by_type", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{TestType: domain.TypeAPK, Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
	})

	t.Run("search_case_insensitive", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Search: "EXAMPLE.COM", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.Equal(t, domain.EntryID("user-1-search"), page.Items[0].ID)
	})

	t.Run("search_escapes_wildcards", func(t *testing.T) {
		page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Search: "100%", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Empty(t, page.Items)
	})
}

func TestSummaryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	e := &domain.HistoryEntry{
		ID:          "user-1-summary",
		UserID:      "user-1",
		TestType:    domain.TypeAPK,
		Title:       "Example",
		Description: "Package: com.example.app | Version: 1.2.3",
		Status:      domain.StatusWarning,
		ResultID:    "rep-1",
		Tags:        []string{"automated", "apk"},
		ResultSummary: map[string]any{
			"packageName": "com.example.app",
			"apkSize":     12.5,
		},
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), e))

	page, err := repo.List(context.Background(), "user-1", domain.ListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	got := page.Items[0]
	require.Equal(t, "rep-1", got.ResultID)
	require.Equal(t, []string{"automated", "apk"}, got.Tags)
	require.Equal(t, e.CreatedAt, got.CreatedAt)

	sum, ok := got.ResultSummary.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "com.example.app", sum["packageName"])
	require.Equal(t, 12.5, sum["apkSize"])
}

func TestStatistics(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	i := 0
	seed := func(tt domain.TestType, st domain.Status, n int) {
		for j := 0; j < n; j++ {
			seedEntry(t, repo, "user-1", i, tt, st, base.Add(time.Duration(i)*time.Second))
			i++
		}
	}
	seed(domain.TypeWeb, domain.StatusSuccess, 5)
	seed(domain.TypeWeb, domain.StatusError, 2)
	seed(domain.TypeAPK, domain.StatusWarning, 4)
	seed(domain.TypeEXE, domain.StatusSuccess, 3)
	seed(domain.TypeEXE, domain.StatusError, 1)

	// noise from another user must not leak in
	seedEntry(t, repo, "user-2", 99, domain.TypeWeb, domain.StatusSuccess, base)

	stats, err := repo.Statistics(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(15), stats.Total)

	web := stats.ByTestType[domain.TypeWeb]
	require.Equal(t, int64(7), web.Total)
	require.Equal(t, int64(5), web.Success)
	require.Equal(t, int64(2), web.Error)
	require.Equal(t, int64(0), web.Warning)

	require.Equal(t, int64(4), stats.ByTestType[domain.TypeAPK].Warning)
	require.Equal(t, int64(4), stats.ByTestType[domain.TypeEXE].Total)
}

func TestDeletes(t *testing.T) {
	repo := newTestRepo(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedEntry(t, repo, "user-1", 0, domain.TypeWeb, domain.StatusSuccess, base)
	seedEntry(t, repo, "user-1", 1, domain.TypeAPK, domain.StatusWarning, base.Add(time.Minute))
	seedEntry(t, repo, "user-1", 2, domain.TypeAPK, domain.StatusWarning, base.Add(2*time.Minute))
	seedEntry(t, repo, "user-2", 0, domain.TypeAPK, domain.StatusWarning, base)

	t.Run("by_id_scoped_to_user", func(t *testing.T) {
		// user-2 cannot delete user-1's entry
		err := repo.DeleteByID(context.Background(), "user-2", "user-1-000")
		require.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, repo.DeleteByID(context.Background(), "user-1", "user-1-000"))
		err = repo.DeleteByID(context.Background(), "user-1", "user-1-000")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("by_type_returns_count", func(t *testing.T) {
		n, err := repo.DeleteByType(context.Background(), "user-1", domain.TypeAPK)
		require.NoError(t, err)
		require.Equal(t, int64(2), n)

		// user-2's apk entry survives
		page, err := repo.ListByType(context.Background(), "user-2", domain.TypeAPK, 1, 10)
		require.NoError(t, err)
		require.Equal(t, int64(1), page.Total)
	})

	t.Run("all_returns_count", func(t *testing.T) {
		n, err := repo.DeleteAll(context.Background(), "user-2")
		require.NoError(t, err)
		require.Equal(t, int64(1), n)

		n, err = repo.DeleteAll(context.Background(), "user-2")
		require.NoError(t, err)
		require.Equal(t, int64(0), n)
	})
}
