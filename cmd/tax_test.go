package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lfmsh/bank/models"
)

func TestStatsCmd(t *testing.T) {
	mock := newMockClient()
	mock.stats = models.Statistics{AvgBalance: 7.25, TotalBalance: 145}

	out, err := execute(NewStatsCmd(mock.factory()), "")
	require.NoError(t, err)
	assert.Equal(t, "average balance: 7.3@\ntotal balance: 145@\n", out)
}

func TestTaxCharges(t *testing.T) {
	mock := newMockClient()
	mock.tax = models.TaxResult{Message: "Daily tax applied to 3 users, -15@ in total", TransactionID: 9}

	out, err := execute(NewTaxCmd(mock.factory()), "", "charge", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "Daily tax applied to 3 users, -15@ in total\nTransaction 9\n", out)

	_, err = execute(NewTaxCmd(mock.factory()), "y\n", "equator-fine")
	require.NoError(t, err)

	_, err = execute(NewTaxCmd(mock.factory()), "\n", "final-fine")
	assert.ErrorContains(t, err, "aborted")

	assert.Equal(t, []string{"tax", "equator"}, mock.charged)
}

func TestTaxChargeNothingToDo(t *testing.T) {
	mock := newMockClient()
	mock.tax = models.TaxResult{Message: "No active users found to apply tax"}

	out, err := execute(NewTaxCmd(mock.factory()), "", "charge", "-y")
	require.NoError(t, err)
	assert.Equal(t, "No active users found to apply tax\n", out)
}
