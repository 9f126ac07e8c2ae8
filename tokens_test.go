package accounts_test

import (
	"strconv"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationCode(t *testing.T) {
	seen := map[string]bool{}

	for i := 0; i < 50; i++ {
		code, err := accounts.NewVerificationCode()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)

		seen[code] = true
	}

	// 50 draws from a 900k space should not collapse to a handful of values
	assert.Greater(t, len(seen), 10)
}

func TestNewLinkToken(t *testing.T) {
	token, err := accounts.NewLinkToken()
	require.NoError(t, err)
	require.Len(t, token, 40)

	for _, r := range token {
		assert.Contains(t, "0123456789abcdef", string(r))
	}

	other, err := accounts.NewLinkToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestTokenExpiry(t *testing.T) {
	expiry := accounts.TokenExpiry(time.Hour)

	assert.True(t, expiry.After(time.Now().Add(59*time.Minute)))
	assert.True(t, expiry.Before(time.Now().Add(61*time.Minute)))
}
