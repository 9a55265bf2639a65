package history

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/apptest-api/internal/application"
	"github.com/bryanwahyu/apptest-api/internal/domain/apk"
	domhistory "github.com/bryanwahyu/apptest-api/internal/domain/history"
)

// fakeRepo is an in-memory Repository for service tests.
type fakeRepo struct {
	mu      sync.Mutex
	entries []*domhistory.HistoryEntry
	failing error
}

func (f *fakeRepo) Create(ctx context.Context, e *domhistory.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing != nil {
		return f.failing
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeRepo) List(ctx context.Context, userID string, fl domhistory.ListFilter) (domhistory.PaginatedEntries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*domhistory.HistoryEntry
	for _, e := range f.entries {
		if e.UserID == userID {
			items = append(items, e)
		}
	}
	return domhistory.PaginatedEntries{
		Items: items,
		Meta:  domhistory.NewPageMeta(fl.Page, fl.Limit, int64(len(items))),
	}, nil
}

func (f *fakeRepo) ListByType(ctx context.Context, userID string, t domhistory.TestType, page, limit int) (domhistory.TypePage, error) {
	return domhistory.TypePage{Page: page, Limit: limit}, nil
}

func (f *fakeRepo) Statistics(ctx context.Context, userID string) (*domhistory.Statistics, error) {
	return &domhistory.Statistics{ByTestType: map[domhistory.TestType]*domhistory.StatusCounts{}}, nil
}

func (f *fakeRepo) DeleteByID(ctx context.Context, userID string, id domhistory.EntryID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.UserID == userID && e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return domhistory.ErrNotFound
}

func (f *fakeRepo) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) DeleteByType(ctx context.Context, userID string, t domhistory.TestType) (int64, error) {
	return 0, nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func newService(repo *fakeRepo) *Service {
	return &Service{Repo: repo, Clock: application.SystemClock{}}
}

func TestCreate(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	t.Run("valid", func(t *testing.T) {
		e, err := svc.Create(context.Background(), "user-1", CreateEntryCommand{
			TestType:    "web",
			Title:       "  PageSpeed Test: https://example.com  ",
			Description: "Analyzed: https://example.com",
			Status:      "success",
		})
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		require.Equal(t, "PageSpeed Test: https://example.com", e.Title)
		require.NotNil(t, e.Tags)
		require.False(t, e.CreatedAt.IsZero())
	})

	t.Run("invalid_type", func(t *testing.T) {
		_, err := svc.Create(context.Background(), "user-1", CreateEntryCommand{
			TestType:    "ios",
			Title:       "t",
			Description: "d",
			Status:      "success",
		})
		require.Error(t, err)
		require.True(t, domhistory.IsValidation(err))
	})

	t.Run("store_error_propagates", func(t *testing.T) {
		failing := &fakeRepo{failing: errors.New("db down")}
		_, err := newService(failing).Create(context.Background(), "user-1", CreateEntryCommand{
			TestType:    "web",
			Title:       "t",
			Description: "d",
			Status:      "success",
		})
		require.Error(t, err)
	})
}

func TestRecord(t *testing.T) {
	t.Run("background_write_lands", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newService(repo)

		svc.Record("user-1", domhistory.TypeAPK,
			domhistory.RawResult{APK: &apk.Report{AppName: "Example", Status: "completed"}},
			[]string{"automated", "apk"})

		require.Eventually(t, func() bool { return repo.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("empty_user_is_noop", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := newService(repo)

		svc.Record("  ", domhistory.TypeAPK, domhistory.RawResult{}, nil)

		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 0, repo.count())
	})

	t.Run("store_failure_is_swallowed", func(t *testing.T) {
		repo := &fakeRepo{failing: errors.New("db down")}
		svc := newService(repo)

		// must not panic and must not block the caller
		svc.Record("user-1", domhistory.TypeAPK,
			domhistory.RawResult{APK: &apk.Report{AppName: "Example", Status: "completed"}}, nil)

		time.Sleep(50 * time.Millisecond)
		require.Equal(t, 0, repo.count())
	})
}

func TestRecordAndWait(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	e, err := svc.RecordAndWait(context.Background(), "user-1", domhistory.TypeAPK,
		domhistory.RawResult{APK: &apk.Report{
			ID:          "rep-1",
			AppName:     "Example",
			PackageName: "com.example.app",
			Status:      "completed",
		}}, []string{"automated", "apk"})
	require.NoError(t, err)
	require.Equal(t, domhistory.StatusWarning, e.Status)
	require.Equal(t, "rep-1", e.ResultID)

	page, err := svc.List(context.Background(), "user-1", domhistory.ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// other users never see the entry
	page, err = svc.List(context.Background(), "user-2", domhistory.ListFilter{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestListValidation(t *testing.T) {
	svc := newService(&fakeRepo{})

	_, err := svc.List(context.Background(), "user-1", domhistory.ListFilter{Status: "pending"})
	require.True(t, domhistory.IsValidation(err))

	_, err = svc.List(context.Background(), "user-1", domhistory.ListFilter{TestType: "ios"})
	require.True(t, domhistory.IsValidation(err))

	_, err = svc.ListByType(context.Background(), "user-1", "ios", 1, 10)
	require.True(t, domhistory.IsValidation(err))
}

func TestDelete(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	t.Run("invalid_id", func(t *testing.T) {
		err := svc.Delete(context.Background(), "user-1", "not-a-uuid")
		require.True(t, domhistory.IsValidation(err))
	})

	t.Run("missing_entry", func(t *testing.T) {
		err := svc.Delete(context.Background(), "user-1", "5f1c9aa2-9fb7-4a57-a4f3-0d1f1a1b2c3d")
		require.ErrorIs(t, err, domhistory.ErrNotFound)
	})

	t.Run("clear_by_type_validates", func(t *testing.T) {
		_, err := svc.ClearByType(context.Background(), "user-1", "ios")
		require.True(t, domhistory.IsValidation(err))
	})
}
