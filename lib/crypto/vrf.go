package crypto

import "encoding/binary"

/*
	PRACTICAL VRF: Hash(BLS.Signature(seed)): a keyed function that produces a
	random-looking output anyone can verify against the signer's public key, without
	the secret key and without interaction

	NOTE: academically speaking this is not a true VRF because BLS signatures are not
	perfectly uniformly distributed in the strictest mathematical sense; the deviation
	is negligible for sortition and the uniqueness + non-malleability of BLS signatures
	is exactly the property a VRF needs

	The seed binds both the round input and the participant's stake-scaled vote weight,
	so a proof only verifies against the vote counts the verifier observes itself
*/

const (
	// VotesProportion scales the vote ratio into an integer weight before it enters the seed
	VotesProportion = 1000
)

// FormatVRFInput() builds the deterministic seed for a VRF evaluation from the round
// input and the stake-scaled vote weight
// The round input is hashed first so the seed has a fixed shape regardless of input size
func FormatVRFInput(vrfInput []byte, scaledWeight uint64) []byte {
	seed := make([]byte, HashSize+8)
	copy(seed, Hash(vrfInput))
	binary.BigEndian.PutUint64(seed[HashSize:], scaledWeight)
	return seed
}

// ScaledVoteWeight() converts a participant's vote counts into the integer weight bound
// into the VRF seed; the caller guarantees totalVoteCount is non-zero
func ScaledVoteWeight(voteCount, totalVoteCount uint64) uint64 {
	return voteCount * VotesProportion / totalVoteCount
}

// VRF() evaluates the practical VRF: the proof is the BLS signature over the seed
func VRF(privateKey PrivateKeyI, vrfInput []byte, scaledWeight uint64) (proof []byte) {
	return privateKey.Sign(FormatVRFInput(vrfInput, scaledWeight))
}

// VerifyVRF() publicly verifies a VRF proof against the signer's public key, the round
// input, and the stake-scaled vote weight the verifier computed itself
func VerifyVRF(publicKey PublicKeyI, vrfInput []byte, scaledWeight uint64, proof []byte) bool {
	if publicKey == nil || len(proof) != BLS12381SignatureSize {
		return false
	}
	return publicKey.VerifyBytes(FormatVRFInput(vrfInput, scaledWeight), proof)
}

// VRFThreshold() reduces a VRF proof to the uint16 sortition threshold by hashing the
// proof and taking the first two bytes; the threshold is what the difficulty model
// compares against the protocol ceiling
func VRFThreshold(proof []byte) uint16 {
	if len(proof) == 0 {
		return 0
	}
	return Uint16FromHash(Hash(proof))
}
