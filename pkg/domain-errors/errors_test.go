package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeNotFound, "log entry missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeAlreadyReviewed))
	})

	t.Run("matches wrapped code", func(t *testing.T) {
		inner := New(CodeAlreadyReviewed, "status no longer pending")
		outer := fmt.Errorf("decide failed: %w", inner)
		assert.True(t, HasCode(outer, CodeAlreadyReviewed))
	})

	t.Run("walks a chain of coded errors", func(t *testing.T) {
		inner := New(CodeTimeout, "aggregate deadline exceeded")
		outer := Wrap(inner, CodeUnavailable, "progress compute failed")
		assert.True(t, HasCode(outer, CodeUnavailable))
		assert.True(t, HasCode(outer, CodeTimeout))
		assert.False(t, HasCode(outer, CodeNotFound))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil cause wraps to nil", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
	})

	t.Run("cause stays reachable via errors.Is", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "cache set failed")
		assert.True(t, errors.Is(err, cause))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeValidation, CodeOf(New(CodeValidation, "count must be positive")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
}
