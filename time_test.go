package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	recent := time.Now().Add(-time.Hour)
	within, err := accounts.IsWithinThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.True(t, within)

	old := time.Now().Add(-48 * time.Hour)
	within, err = accounts.IsWithinThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.False(t, within)

	_, err = accounts.IsWithinThresholdPeriod(recent, "not-a-duration")
	assert.Error(t, err)
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	outside, err := accounts.IsOutsideThresholdPeriod(old, "24h")
	require.NoError(t, err)
	assert.True(t, outside)

	recent := time.Now().Add(-time.Minute)
	outside, err = accounts.IsOutsideThresholdPeriod(recent, "24h")
	require.NoError(t, err)
	assert.False(t, outside)
}
