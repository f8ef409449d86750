package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceKind(t *testing.T) {
	for _, k := range SourceKinds {
		parsed, err := ParseSourceKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseSourceKind("sublease")
	assert.Error(t, err)
}

// TestIsOwner pins which exits trigger the owner handover checks.
func TestIsOwner(t *testing.T) {
	assert.True(t, SourceOwnerMoveOut.IsOwner())
	assert.True(t, SourceOwnerPermit.IsOwner())
	assert.False(t, SourceTenantLease.IsOwner())
	assert.False(t, SourceCompanyLease.IsOwner())
}
