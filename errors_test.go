package prefkit_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prefkit/prefkit"
)

func TestUpdateError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := prefkit.NewUpdateError("Settings", "Theme", errors.New("disk full"))
		assert.Equal(t, "prefkit: update Settings.Theme: disk full", err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := prefkit.NewUpdateError("Settings", "Theme", errors.New("disk full"))
		assert.True(t, errors.Is(err, prefkit.ErrUpdateFailed))
	})

	t.Run("Unwrap", func(t *testing.T) {
		cause := errors.New("disk full")
		err := prefkit.NewUpdateError("Settings", "Theme", cause)
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("IsUpdateError", func(t *testing.T) {
		err := prefkit.NewUpdateError("Settings", "Theme", nil)
		assert.True(t, prefkit.IsUpdateError(err))

		// Wrapped and joined errors
		assert.True(t, prefkit.IsUpdateError(fmt.Errorf("wrapper: %w", err)))
		assert.True(t, prefkit.IsUpdateError(errors.Join(errors.New("other"), err)))

		// Non-matching error
		assert.False(t, prefkit.IsUpdateError(errors.New("other error")))
		assert.False(t, prefkit.IsUpdateError(nil))
	})
}

func TestCheckOrdinal(t *testing.T) {
	assert.NoError(t, prefkit.CheckOrdinal(0, 3))
	assert.NoError(t, prefkit.CheckOrdinal(2, 3))

	err := prefkit.CheckOrdinal(3, 3)
	assert.ErrorIs(t, err, prefkit.ErrInvalidOrdinal)
	assert.EqualError(t, err, "prefkit: ordinal 3 out of range [0, 3)")
	assert.ErrorIs(t, prefkit.CheckOrdinal(-1, 3), prefkit.ErrInvalidOrdinal)
}
