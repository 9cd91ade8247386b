package sequence

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickTripwires(t *testing.T) {
	t.Parallel()

	menu := []string{"home", "about", "contact", "news", "faq", "blog"}

	t.Run("never picks home or the secret door", func(t *testing.T) {
		t.Parallel()

		for range 50 {
			tw, err := PickTripwires(menu, "contact", 3, nil)
			require.NoError(t, err)
			require.Len(t, tw.Pages, 3)
			assert.NotContains(t, tw.Pages, "home")
			assert.NotContains(t, tw.Pages, "contact")
			assert.NotContains(t, tw.Indices, 0)
			assert.NotContains(t, tw.Indices, 2)
		}
	})

	t.Run("indices match pages and are sorted", func(t *testing.T) {
		t.Parallel()

		tw, err := PickTripwires(menu, "contact", 4, nil)
		require.NoError(t, err)
		assert.True(t, slices.IsSorted(tw.Indices))
		require.Len(t, tw.Indices, len(tw.Pages))
		for _, page := range tw.Pages {
			assert.Contains(t, tw.Indices, slices.Index(menu, page))
		}
	})

	t.Run("count is clamped to candidates", func(t *testing.T) {
		t.Parallel()

		tw, err := PickTripwires(menu, "contact", 99, nil)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"about", "news", "faq", "blog"}, tw.Pages)
	})

	t.Run("zero count picks nothing", func(t *testing.T) {
		t.Parallel()

		tw, err := PickTripwires(menu, "contact", 0, nil)
		require.NoError(t, err)
		assert.Empty(t, tw.Pages)
		assert.Empty(t, tw.Indices)
	})

	t.Run("random failure is returned", func(t *testing.T) {
		t.Parallel()

		_, err := PickTripwires(menu, "contact", 2, failingReader{})
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrInvalidEncoding))
	})
}
