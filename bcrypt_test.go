package accounts_test

import (
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := accounts.HashPassword("password12345")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "password12345", hash)

	_, err = accounts.HashPassword("")
	assert.ErrorIs(t, err, accounts.ErrNoEmptyString)
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := accounts.HashPassword("password12345")
	require.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.NoError(t, accounts.ComparePasswordAndHash("password12345", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		err := accounts.ComparePasswordAndHash("wrong-password", hash)
		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	})

	t.Run("account without a password", func(t *testing.T) {
		// accounts mid signup have no hash yet, the caller should not be
		// able to tell them apart from a wrong password
		err := accounts.ComparePasswordAndHash("password12345", "")
		assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
	})
}

func TestRandomPasswordHash(t *testing.T) {
	hash := accounts.RandomPasswordHash()
	assert.NotEmpty(t, hash)
}
