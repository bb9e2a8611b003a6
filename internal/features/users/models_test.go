package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayName(t *testing.T) {
	named := &User{UserID: 100, Username: "alice"}
	assert.Equal(t, "alice", named.DisplayName())

	anonymous := &User{UserID: 123456789}
	assert.Equal(t, "123456789", anonymous.DisplayName())
}

func TestNormalizeReferrer(t *testing.T) {
	ref := int64(7)
	self := int64(42)

	assert.Nil(t, normalizeReferrer(42, nil))
	assert.Nil(t, normalizeReferrer(42, &self))

	got := normalizeReferrer(42, &ref)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)

	// The returned pointer is a copy; mutating the input must not leak.
	ref = 99
	assert.Equal(t, int64(7), *got)
}
