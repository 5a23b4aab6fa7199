package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlice(t *testing.T) {
	ids := make([]string, 0, 300)
	for i := 1; i <= 300; i++ {
		ids = append(ids, fmt.Sprint(i))
	}
	p := Params{"id": ids, "site": {"zrh"}}

	t.Run("fits", func(t *testing.T) {
		s := Slicer{MaxLength: 10000}
		assert.Equal(t, []Params{p}, s.Slice(p))
	})

	t.Run("every slice fits and no value is lost", func(t *testing.T) {
		s := Slicer{MaxLength: 200, Preferred: []string{"id"}}
		slices := s.Slice(p)
		require.Greater(t, len(slices), 1)

		var all []string
		for _, slice := range slices {
			assert.LessOrEqual(t, len(slice.Encode()), 200)
			assert.Equal(t, []string{"zrh"}, slice["site"])
			all = append(all, slice["id"]...)
		}
		assert.Equal(t, ids, all)
	})

	t.Run("preferred key is split first", func(t *testing.T) {
		q := Params{"id": {"1", "2"}, "name": {"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"}}
		s := Slicer{MaxLength: len(q.Encode()) - 1, Preferred: []string{"id"}}
		slices := s.Slice(q)
		require.Len(t, slices, 2)
		assert.Equal(t, []string{"1"}, slices[0]["id"])
		assert.Len(t, slices[0]["name"], 3)
	})

	t.Run("unsliceable set passes through", func(t *testing.T) {
		q := Params{"q": {"a very long search term that does not fit"}}
		s := Slicer{MaxLength: 5}
		assert.Equal(t, []Params{q}, s.Slice(q))
	})

	t.Run("disabled", func(t *testing.T) {
		assert.Equal(t, []Params{p}, Slicer{}.Slice(p))
	})
}
