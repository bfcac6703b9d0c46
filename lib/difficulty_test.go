package lib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testParams uses a small threshold ceiling so boundary cases land on exact values
func testParams(thresholdUpper uint16) SortitionParams {
	p := DefaultSortitionParams()
	p.VRF.ThresholdUpper = thresholdUpper
	return p
}

func TestCalculateDifficulty(t *testing.T) {
	tests := []struct {
		name           string
		detail         string
		threshold      uint16
		voteCount      uint64
		totalVoteCount uint64
		params         SortitionParams
		expected       uint16
	}{
		{
			name:           "zeroThreshold",
			detail:         "a zero threshold lands in the easiest bucket",
			threshold:      0,
			voteCount:      1,
			totalVoteCount: 1,
			params:         DefaultSortitionParams(),
			expected:       16,
		},
		{
			name:           "easiestBucket",
			detail:         "a small corrected threshold maps to the minimum difficulty",
			threshold:      20,
			voteCount:      1,
			totalVoteCount: 1,
			params:         DefaultSortitionParams(),
			expected:       16,
		},
		{
			name:           "middleBucket",
			detail:         "corrected 730 over ceiling 1464 falls in the third bucket of six",
			threshold:      73,
			voteCount:      1,
			totalVoteCount: 1,
			params:         DefaultSortitionParams(),
			expected:       18,
		},
		{
			name:           "hardestBucket",
			detail:         "corrected 1460 is in the last full bucket below the ceiling",
			threshold:      146,
			voteCount:      1,
			totalVoteCount: 1,
			params:         DefaultSortitionParams(),
			expected:       21,
		},
		{
			name:           "staleAtCeiling",
			detail:         "corrected exactly at the ceiling is stale",
			threshold:      6,
			voteCount:      1,
			totalVoteCount: 1,
			params:         testParams(60),
			expected:       23,
		},
		{
			name:           "staleBeyondCeiling",
			detail:         "corrected beyond the ceiling is stale",
			threshold:      147,
			voteCount:      1,
			totalVoteCount: 1,
			params:         DefaultSortitionParams(),
			expected:       23,
		},
		{
			name:           "oneUnitBelowCeiling",
			detail:         "corrected 50 against ceiling 51 clamps into the hardest normal difficulty",
			threshold:      5,
			voteCount:      1,
			totalVoteCount: 1,
			params:         testParams(51),
			expected:       21,
		},
		{
			name:           "stakeScaling",
			detail:         "a quarter of the votes scales the threshold down before correction",
			threshold:      292,
			voteCount:      1,
			totalVoteCount: 4,
			params:         DefaultSortitionParams(),
			expected:       18,
		},
		{
			name:           "wideProductOverflow",
			detail:         "a stake product beyond 64 bits is far past any ceiling and reads stale",
			threshold:      65535,
			voteCount:      1 << 63,
			totalVoteCount: 1,
			params:         DefaultSortitionParams(),
			expected:       23,
		},
		{
			name:           "degenerateCeiling",
			detail:         "a ceiling smaller than the difficulty count maps everything below it to the hardest normal difficulty",
			threshold:      0,
			voteCount:      1,
			totalVoteCount: 1,
			params:         testParams(3),
			expected:       21,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := CalculateDifficulty(test.threshold, test.voteCount, test.totalVoteCount, test.params)
			require.NoError(t, err)
			require.Equal(t, test.expected, got)
		})
	}
}

func TestCalculateDifficultyZeroTotal(t *testing.T) {
	// a zero total vote count is a caller defect, not a silent zero
	_, err := CalculateDifficulty(100, 1, 0, DefaultSortitionParams())
	require.Error(t, err)
	require.Equal(t, CodeZeroTotalVoteCount, err.Code())
}

func TestCalculateDifficultyDeterminism(t *testing.T) {
	p := DefaultSortitionParams()
	// repeated calls with identical inputs always agree
	first, err := CalculateDifficulty(500, 3, 7, p)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		got, e := CalculateDifficulty(500, 3, 7, p)
		require.NoError(t, e)
		require.Equal(t, first, got)
	}
}

func TestCalculateDifficultyStakeMonotonicity(t *testing.T) {
	p := DefaultSortitionParams()
	// holding the threshold fixed, the difficulty is non-decreasing in the stake share
	// and latches at stale once the corrected threshold crosses the ceiling
	const threshold, total = 300, 50
	previous, stale := uint16(0), false
	for votes := uint64(1); votes <= total; votes++ {
		got, err := CalculateDifficulty(threshold, votes, total, p)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got, previous)
		if stale {
			require.Equal(t, p.VDF.DifficultyStale, got)
		}
		if got == p.VDF.DifficultyStale {
			stale = true
		}
		previous = got
	}
	// the walk must actually reach the stale ceiling
	require.True(t, stale)
}
