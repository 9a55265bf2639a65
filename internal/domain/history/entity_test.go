package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func validEntry() *HistoryEntry {
	return &HistoryEntry{
		UserID:      "user-1",
		TestType:    TypeWeb,
		Title:       "PageSpeed Test: https://example.com",
		Description: "Analyzed: https://example.com",
		Status:      StatusSuccess,
	}
}

func TestEntryValidate(t *testing.T) {
	require.NoError(t, validEntry().Validate())

	t.Run("missing_user", func(t *testing.T) {
		e := validEntry()
		e.UserID = "  "
		require.Error(t, e.Validate())
	})

	t.Run("bad_test_type", func(t *testing.T) {
		e := validEntry()
		e.TestType = "ios"
		err := e.Validate()
		require.Error(t, err)
		require.True(t, IsValidation(err))
	})

	t.Run("bad_status", func(t *testing.T) {
		e := validEntry()
		e.Status = "pending"
		require.Error(t, e.Validate())
	})

	t.Run("title_too_long", func(t *testing.T) {
		e := validEntry()
		e.Title = strings.Repeat("x", MaxTitleLen+1)
		require.Error(t, e.Validate())
	})

	t.Run("description_too_long", func(t *testing.T) {
		e := validEntry()
		e.Description = strings.Repeat("x", MaxDescriptionLen+1)
		require.Error(t, e.Validate())
	})

	t.Run("negative_duration", func(t *testing.T) {
		e := validEntry()
		e.Duration = -1
		require.Error(t, e.Validate())
	})
}
