package lib

import "math/bits"

/*
	DIFFICULTY DERIVATION: converts a VRF threshold and a stake ratio into a discrete
	VDF difficulty level

	The participant's per-vote threshold is scaled by its share of the total votes, then
	multiplied by a fixed correction factor for finer-grained control of the curve. A
	corrected threshold at or beyond the protocol ceiling maps to the stale sentinel -
	the participant's VDF requirement is maximal and it is effectively out of the race.
	Anything below the ceiling is linearly interpolated into the [DifficultyMin,
	DifficultyMax] range by equal buckets of the ceiling.

	The function is consensus-critical: it is pure, integer-only, and must produce
	byte-identical results for identical inputs on every node.
*/

// CalculateDifficulty() maps a VRF threshold and the participant's vote counts into a
// VDF difficulty level under the given protocol parameters
// A zero totalVoteCount is a caller defect, reported as an invalid-parameters error
func CalculateDifficulty(threshold uint16, voteCount, totalVoteCount uint64, p SortitionParams) (uint16, ErrorI) {
	if totalVoteCount == 0 {
		return 0, ErrZeroTotalVoteCount()
	}
	upper := uint64(p.VRF.ThresholdUpper)
	// stake-scale the per-vote threshold; the 128-bit product guarantees the
	// intermediate never overflows regardless of input magnitudes
	hi, lo := bits.Mul64(uint64(threshold), voteCount)
	if hi >= totalVoteCount {
		// the quotient doesn't fit 64 bits, which is far beyond any ceiling
		return p.VDF.DifficultyStale, nil
	}
	scaled, _ := bits.Div64(hi, lo, totalVoteCount)
	// apply the fixed correction factor, again watching for overflow
	if scaled > (^uint64(0))/ThresholdCorrection {
		return p.VDF.DifficultyStale, nil
	}
	corrected := scaled * ThresholdCorrection
	// at or beyond the ceiling nobody is selected
	if corrected >= upper {
		return p.VDF.DifficultyStale, nil
	}
	// divide the ceiling into one equal bucket per difficulty level and select the
	// bucket containing the corrected threshold, offset by the easiest difficulty
	numberOfDifficulties := uint64(p.VDF.DifficultyMax-p.VDF.DifficultyMin) + 1
	bucket := upper / numberOfDifficulties
	if bucket == 0 {
		// a ceiling smaller than the difficulty count is a degenerate configuration;
		// everything below it maps to the hardest normal difficulty
		return p.VDF.DifficultyMax, nil
	}
	difficulty := uint64(p.VDF.DifficultyMin) + corrected/bucket
	// truncation of the bucket width can push the last partial bucket past the range
	if difficulty > uint64(p.VDF.DifficultyMax) {
		difficulty = uint64(p.VDF.DifficultyMax)
	}
	return uint16(difficulty), nil
}
