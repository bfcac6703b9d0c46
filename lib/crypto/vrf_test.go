package crypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVRFProveAndVerify(t *testing.T) {
	// generate a fresh participant key
	privateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	publicKey := privateKey.PublicKey()
	// evaluate the vrf over a round input and a stake weight
	vrfInput, scaledWeight := []byte("round 42"), ScaledVoteWeight(250, 1000)
	proof := VRF(privateKey, vrfInput, scaledWeight)
	// the proof is a bls signature
	require.Len(t, proof, BLS12381SignatureSize)
	// the proof verifies against the same public data
	require.True(t, VerifyVRF(publicKey, vrfInput, scaledWeight, proof))
	// a differing round input fails verification
	require.False(t, VerifyVRF(publicKey, []byte("round 43"), scaledWeight, proof))
	// a differing stake weight fails verification; the weight is bound into the seed
	require.False(t, VerifyVRF(publicKey, vrfInput, scaledWeight+1, proof))
	// another participant's key fails verification
	otherKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	require.False(t, VerifyVRF(otherKey.PublicKey(), vrfInput, scaledWeight, proof))
	// structural rejects: nil key, truncated proof
	require.False(t, VerifyVRF(nil, vrfInput, scaledWeight, proof))
	require.False(t, VerifyVRF(publicKey, vrfInput, scaledWeight, proof[:BLS12381SignatureSize-1]))
}

func TestVRFDeterminism(t *testing.T) {
	// bls signatures are deterministic, so the vrf is a function of (key, input, weight)
	privateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	vrfInput, scaledWeight := []byte("round"), uint64(333)
	first := VRF(privateKey, vrfInput, scaledWeight)
	second := VRF(privateKey, vrfInput, scaledWeight)
	require.Equal(t, first, second)
	// and so is the derived threshold
	require.Equal(t, VRFThreshold(first), VRFThreshold(second))
}

func TestVRFThreshold(t *testing.T) {
	// an empty proof maps to the zero threshold
	require.EqualValues(t, 0, VRFThreshold(nil))
	// the threshold is the first two bytes of the proof hash, big-endian
	proof := []byte("some proof bytes")
	h := Hash(proof)
	require.Equal(t, uint16(h[0])<<8|uint16(h[1]), VRFThreshold(proof))
}

func TestScaledVoteWeight(t *testing.T) {
	tests := []struct {
		name           string
		voteCount      uint64
		totalVoteCount uint64
		expected       uint64
	}{
		{name: "noStake", voteCount: 0, totalVoteCount: 100, expected: 0},
		{name: "quarterStake", voteCount: 25, totalVoteCount: 100, expected: 250},
		{name: "fullStake", voteCount: 100, totalVoteCount: 100, expected: VotesProportion},
		{name: "truncates", voteCount: 1, totalVoteCount: 3, expected: 333},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, ScaledVoteWeight(test.voteCount, test.totalVoteCount))
		})
	}
}

func TestFormatVRFInput(t *testing.T) {
	// the seed has a fixed shape: hashed input followed by the 8 byte weight
	seed := FormatVRFInput([]byte("input"), 7)
	require.Len(t, seed, HashSize+8)
	require.Equal(t, Hash([]byte("input")), seed[:HashSize])
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 7}, seed[HashSize:])
}

func TestBLSKeyRoundTrips(t *testing.T) {
	// generate a key pair
	privateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	publicKey := privateKey.PublicKey()
	// binary round trip for the private key
	privateKey2, err := NewBLSPrivateKeyFromBytes(privateKey.Bytes())
	require.NoError(t, err)
	require.True(t, privateKey.Equals(privateKey2))
	// hex string round trip for the public key
	publicKey2, err := NewBLSPublicKeyFromString(publicKey.String())
	require.NoError(t, err)
	require.True(t, publicKey.Equals(publicKey2))
	// json round trip for the private key
	bz, err := json.Marshal(privateKey)
	require.NoError(t, err)
	recovered := new(BLS12381PrivateKey)
	require.NoError(t, json.Unmarshal(bz, recovered))
	require.True(t, privateKey.Equals(recovered))
	// the recovered key signs identically
	msg := []byte("message")
	require.Equal(t, privateKey.Sign(msg), recovered.Sign(msg))
}
