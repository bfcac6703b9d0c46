package lib

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/arbor-network/sortition/lib/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

/*
	VDF SORTITION: the composite record a participant produces to claim the right to
	propose under a stake-weighted, verifiable difficulty

	Construction: the participant evaluates the practical VRF over the round input and
	its stake-scaled vote weight; the VRF threshold is mapped to a VDF difficulty; the
	participant must then run the (possibly long, cancellable) VDF proof at that
	difficulty before the claim is transmissible.

	Verification re-derives everything from public data: the VRF proof against the
	public key and the verifier's own vote counts, the expected difficulty from the
	VRF's embedded threshold - which binds the claimed difficulty to the actual stake
	evidence so nobody can claim an easier difficulty than it earned - and finally the
	VDF solution against the stored difficulty.
*/

// VdfSortition bundles a VRF proof, a VDF solution, and the derived difficulty
// Once the solution is filled in, the record is immutable and transmissible
type VdfSortition struct {
	VrfProof    HexBytes   // the practical-VRF proof over the round input and stake weight
	VdfSolution crypto.VDF // the (proof, output) pair certifying the sequential delay
	Difficulty  uint16     // the VDF difficulty derived from the VRF threshold

	// VdfComputationTime is how long the proving step took; diagnostic only, it is
	// neither consensus-relevant nor serialized
	VdfComputationTime time.Duration
}

// NewVdfSortition() constructs a fresh record: the VRF proof is computed and the
// difficulty derived, while the VDF solution stays unset until ComputeVdfSolution()
func NewVdfSortition(p SortitionParams, privateKey crypto.PrivateKeyI, vrfInput []byte,
	voteCount, totalVoteCount uint64) (*VdfSortition, ErrorI) {
	if totalVoteCount == 0 {
		return nil, ErrZeroTotalVoteCount()
	}
	// evaluate the practical VRF over the round input and the stake-scaled weight
	proof := crypto.VRF(privateKey, vrfInput, crypto.ScaledVoteWeight(voteCount, totalVoteCount))
	// map the VRF threshold to a difficulty level
	difficulty, err := CalculateDifficulty(crypto.VRFThreshold(proof), voteCount, totalVoteCount, p)
	if err != nil {
		return nil, err
	}
	return &VdfSortition{VrfProof: proof, Difficulty: difficulty}, nil
}

// Threshold() extracts the sortition threshold embedded in the VRF proof
func (x *VdfSortition) Threshold() uint16 { return crypto.VRFThreshold(x.VrfProof) }

// IsStale() is true iff the difficulty is the stale sentinel - the participant's VDF
// requirement is maximal and it is effectively excluded from a normal-speed win
func (x *VdfSortition) IsStale(p SortitionParams) bool {
	return x.Difficulty == p.VDF.DifficultyStale
}

// HasSolution() reports whether the VDF solution has been filled in
func (x *VdfSortition) HasSolution() bool { return len(x.VdfSolution.Output) != 0 }

// ComputeVdfSolution() runs the expensive sequential proof at the record's difficulty
// This call blocks for the full delay unless the token is cancelled first; a cancelled
// run leaves the solution empty and the partial work is discarded
// The wall clock time of the run is recorded for diagnostics either way
func (x *VdfSortition) ComputeVdfSolution(p SortitionParams, msg []byte, token *crypto.CancellationToken) ErrorI {
	engine, err := crypto.NewWesolowskiVDF(p.VDF.LambdaBound, x.Difficulty, msg, p.Modulus)
	if err != nil {
		return ErrInvalidVDFParams(err)
	}
	startTime := time.Now()
	// this line takes time ...
	if solution := engine.Prove(token); solution != nil {
		x.VdfSolution = *solution
	}
	x.VdfComputationTime = time.Since(startTime)
	return nil
}

// Verify() checks the record against public round data; it is side-effect free and
// needs no secrets. All three checks must pass:
//  1. the VRF proof verifies against the public key, round input, and stake weight
//  2. the stored difficulty equals the difficulty re-derived from the VRF threshold
//  3. the VDF solution verifies at the stored difficulty
func (x *VdfSortition) Verify(p SortitionParams, vrfInput []byte, publicKey crypto.PublicKeyI,
	vdfInput []byte, voteCount, totalVoteCount uint64) ErrorI {
	if x == nil {
		return ErrNilSortition()
	}
	if totalVoteCount == 0 {
		return ErrZeroTotalVoteCount()
	}
	// verify the VRF output
	if !crypto.VerifyVRF(publicKey, vrfInput, crypto.ScaledVoteWeight(voteCount, totalVoteCount), x.VrfProof) {
		return ErrVRFVerifyFailed(vrfInput)
	}
	// re-derive the expected difficulty from the threshold actually embedded in the
	// VRF proof; a mismatch means the claimed difficulty wasn't earned
	expected, err := CalculateDifficulty(x.Threshold(), voteCount, totalVoteCount, p)
	if err != nil {
		return err
	}
	if x.Difficulty != expected {
		return ErrDifficultyMismatch(x.Difficulty, expected, x.Threshold(), p.VRF.ThresholdUpper, vdfInput)
	}
	// verify the VDF solution at the stored difficulty
	engine, e := crypto.NewWesolowskiVDF(p.VDF.LambdaBound, x.Difficulty, vdfInput, p.Modulus)
	if e != nil {
		return ErrInvalidVDFParams(e)
	}
	if !engine.Verify(&x.VdfSolution) {
		return ErrVDFVerifyFailed(vdfInput, p.VDF.LambdaBound, x.Difficulty)
	}
	return nil
}

// Copy() returns a deep clone of the record
func (x *VdfSortition) Copy() *VdfSortition {
	if x == nil {
		return nil
	}
	return &VdfSortition{
		VrfProof: append([]byte(nil), x.VrfProof...),
		VdfSolution: crypto.VDF{
			Proof:  append([]byte(nil), x.VdfSolution.Proof...),
			Output: append([]byte(nil), x.VdfSolution.Output...),
		},
		Difficulty:         x.Difficulty,
		VdfComputationTime: x.VdfComputationTime,
	}
}

// vdfSortitionRLP is the wire shape of the record: a list of exactly four fields in
// this order, matching what peers expect on the network
type vdfSortitionRLP struct {
	VrfProof   []byte
	Sol1       []byte
	Sol2       []byte
	Difficulty uint16
}

// Bytes() serializes the record into its RLP wire representation
func (x *VdfSortition) Bytes() ([]byte, ErrorI) {
	bz, err := rlp.EncodeToBytes(&vdfSortitionRLP{
		VrfProof:   x.VrfProof,
		Sol1:       x.VdfSolution.Proof,
		Sol2:       x.VdfSolution.Output,
		Difficulty: x.Difficulty,
	})
	if err != nil {
		return nil, ErrMarshal(err)
	}
	return bz, nil
}

// NewVdfSortitionFromBytes() reconstructs a record from its RLP wire representation
// An empty input decodes to the zero record - this is how 'no sortition yet' travels
func NewVdfSortitionFromBytes(bz []byte) (*VdfSortition, ErrorI) {
	x := new(VdfSortition)
	if len(bz) == 0 {
		return x, nil
	}
	serialized := new(vdfSortitionRLP)
	if err := rlp.DecodeBytes(bz, serialized); err != nil {
		return nil, ErrDecodeSortition(err)
	}
	x.VrfProof = serialized.VrfProof
	x.VdfSolution = crypto.VDF{Proof: serialized.Sol1, Output: serialized.Sol2}
	x.Difficulty = serialized.Difficulty
	return x, nil
}

// vdfSortitionJSON is a helper struct to implement the json.Marshaller and
// json.Unmarshaler interfaces for VdfSortition
type vdfSortitionJSON struct {
	Proof      string `json:"proof"`
	Sol1       string `json:"sol1"`
	Sol2       string `json:"sol2"`
	Difficulty string `json:"difficulty"`
}

// MarshalJSON() implements the json.Marshaller interface for VdfSortition
func (x *VdfSortition) MarshalJSON() ([]byte, error) {
	return json.Marshal(&vdfSortitionJSON{
		Proof:      BytesToString(x.VrfProof),
		Sol1:       BytesToString(x.VdfSolution.Proof),
		Sol2:       BytesToString(x.VdfSolution.Output),
		Difficulty: strconv.FormatUint(uint64(x.Difficulty), 10),
	})
}

// UnmarshalJSON() implements the json.Unmarshaler interface for VdfSortition
func (x *VdfSortition) UnmarshalJSON(b []byte) error {
	j := new(vdfSortitionJSON)
	if err := json.Unmarshal(b, j); err != nil {
		return err
	}
	// hex decode the vrf proof
	proof, err := StringToBytes(j.Proof)
	if err != nil {
		return err
	}
	// hex decode the vdf solution pair
	sol1, err := StringToBytes(j.Sol1)
	if err != nil {
		return err
	}
	sol2, err := StringToBytes(j.Sol2)
	if err != nil {
		return err
	}
	// parse the decimal difficulty
	difficulty, e := strconv.ParseUint(j.Difficulty, 10, 16)
	if e != nil {
		return e
	}
	*x = VdfSortition{
		VrfProof:    proof,
		VdfSolution: crypto.VDF{Proof: sol1, Output: sol2},
		Difficulty:  uint16(difficulty),
	}
	return nil
}
