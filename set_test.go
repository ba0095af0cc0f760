package prefkit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prefkit/prefkit"
)

func TestSet(t *testing.T) {
	t.Run("NewSet dedups", func(t *testing.T) {
		s := prefkit.NewSet("a", "b", "a")
		assert.Equal(t, 2, s.Len())
		assert.True(t, s.Has("a"))
		assert.False(t, s.Has("c"))
	})

	t.Run("Add and Delete", func(t *testing.T) {
		s := prefkit.NewSet[string]()
		s.Add("x")
		s.Add("y")
		s.Delete("x")
		assert.Equal(t, []string{"y"}, prefkit.Sorted(s))
	})

	t.Run("Slice of nil set", func(t *testing.T) {
		var s prefkit.Set[string]
		assert.Nil(t, s.Slice())
		assert.Nil(t, s.Clone())
		assert.Equal(t, 0, s.Len())
	})

	t.Run("Equal", func(t *testing.T) {
		assert.True(t, prefkit.NewSet(1, 2).Equal(prefkit.NewSet(2, 1)))
		assert.False(t, prefkit.NewSet(1, 2).Equal(prefkit.NewSet(1, 3)))
		assert.False(t, prefkit.NewSet(1).Equal(prefkit.NewSet(1, 2)))
		assert.True(t, prefkit.NewSet[int]().Equal(nil))
	})

	t.Run("Clone is independent", func(t *testing.T) {
		s := prefkit.NewSet("a")
		c := s.Clone()
		c.Add("b")
		assert.Equal(t, 1, s.Len())
		assert.Equal(t, []string{"a", "b"}, prefkit.Sorted(c))
	})
}
