package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodes(t *testing.T) {
	t.Run("HasCode sees through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("during run: %w", New(CodeNotFound, "unit not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("Wrap keeps the cause reachable", func(t *testing.T) {
		cause := errors.New("dial tcp: connection refused")
		err := Wrap(cause, CodeUnavailable, "resolve due terms")
		require.ErrorIs(t, err, cause)
		assert.Equal(t, CodeUnavailable, CodeOf(err))
	})

	t.Run("Wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("uncoded errors read as internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}
