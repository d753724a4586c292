package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	_, err := VerifyPassword("anything", "not-an-argon2-hash")
	assert.Error(t, err)
}

func TestComparePlain(t *testing.T) {
	assert.True(t, ComparePlain("hunter2", "hunter2"))
	assert.False(t, ComparePlain("hunter2", "hunter3"))
	assert.False(t, ComparePlain("", "hunter2"))
}
