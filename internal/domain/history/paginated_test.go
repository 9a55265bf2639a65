package history

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFilterNormalize(t *testing.T) {
	f := ListFilter{}
	f.Normalize()
	require.Equal(t, DefaultPage, f.Page)
	require.Equal(t, DefaultLimit, f.Limit)

	f = ListFilter{Page: -2, Limit: 1000}
	f.Normalize()
	require.Equal(t, DefaultPage, f.Page)
	require.Equal(t, MaxLimit, f.Limit)

	f = ListFilter{Page: 3, Limit: 10}
	f.Normalize()
	require.Equal(t, 3, f.Page)
	require.Equal(t, 10, f.Limit)
}

func TestNewPageMeta(t *testing.T) {
	t.Run("empty_collection", func(t *testing.T) {
		m := NewPageMeta(1, 20, 0)
		require.Equal(t, 1, m.Pages)
		require.False(t, m.HasNext)
		require.False(t, m.HasPrev)
	})

	t.Run("middle_page", func(t *testing.T) {
		m := NewPageMeta(2, 10, 25)
		require.Equal(t, 3, m.Pages)
		require.True(t, m.HasNext)
		require.True(t, m.HasPrev)
	})

	t.Run("last_partial_page", func(t *testing.T) {
		m := NewPageMeta(3, 10, 25)
		require.Equal(t, 3, m.Pages)
		require.False(t, m.HasNext)
		require.True(t, m.HasPrev)
	})
}
