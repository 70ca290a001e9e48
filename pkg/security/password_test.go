package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.NoError(t, hasher.Compare(hash, "admin123"))
	assert.ErrorIs(t, hasher.Compare(hash, "wrong-password"), ErrPasswordMismatch)

	_, err = hasher.Hash("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}
