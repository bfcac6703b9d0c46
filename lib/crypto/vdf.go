package crypto

import (
	"encoding/binary"
	"errors"
	"math/big"
)

/*
	Credit: the construction implemented here is Wesolowski's succinct argument for
	repeated squaring in an RSA-style group ("Efficient verifiable delay functions")

	The puzzle is the Rivest-Shamir-Wagner time-lock: given a base x derived from a
	message and a modulus N of unknown factorization, compute y = x^(2^T) mod N.
	The T squarings are strictly sequential - that sequentiality is the security
	property being sold - while the accompanying proof lets anyone check the claim
	with a constant number of modular exponentiations
*/

const (
	// MillerRabinRounds is the number of rounds used when probing challenge candidates for primality
	MillerRabinRounds = 30
	// ChallengePrimeSize is the byte width of the challenge prime derived from (x, y)
	ChallengePrimeSize = 16
	// MaxProvableDifficulty bounds the exponent bit-length Prove() will attempt; above this the
	// iteration count no longer fits a counter and could not complete in any practical time
	MaxProvableDifficulty = 62
	// minCheckInterval and maxCheckInterval clamp how many squarings may pass between
	// cancellation polls, keeping cancellation latency bounded without hurting throughput
	minCheckInterval = 1
	maxCheckInterval = 10000
)

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)

	ErrEmptyVDFMessage   = errors.New("vdf message is empty")
	ErrInvalidVDFModulus = errors.New("vdf modulus must be a positive integer")
)

// VDF is a solution pair for a verifiable delay function instance:
// Output is the claimed result of the sequential squarings, Proof is the compact
// certificate that makes verification fast
type VDF struct {
	Proof  []byte `json:"proof"`
	Output []byte `json:"output"`
}

// VDFEngineI abstracts proof generation and verification so an accelerated backend may be
// swapped in through configuration without touching callers
type VDFEngineI interface {
	// Prove() performs the sequential computation; a nil result means the run was
	// cancelled or infeasible and must be discarded
	Prove(token *CancellationToken) *VDF
	// Verify() checks a solution in time far shorter than it took to produce;
	// false means the solution doesn't hold for this instance, it is never an error
	Verify(solution *VDF) bool
}

var _ VDFEngineI = &WesolowskiVDF{}

// WesolowskiVDF is the reference VDFEngineI implementation over an RSA-style group
// Two instances describe the same problem iff lambda, difficulty, message and modulus
// are all equal; solutions do not transfer between differing instances
type WesolowskiVDF struct {
	lambda     uint16   // security parameter folded into the challenge derivation
	difficulty uint16   // exponent bit-length: T = 2^difficulty sequential squarings
	base       *big.Int // x = message reduced into the group
	modulus    *big.Int // N
}

// NewWesolowskiVDF() creates a VDF instance from the four problem parameters
// A zero-length message and a non-positive modulus are local configuration defects,
// rejected here so prove/verify stay deterministic
func NewWesolowskiVDF(lambda, difficulty uint16, message, modulus []byte) (*WesolowskiVDF, error) {
	// parse the modulus bytes big-endian
	n := new(big.Int).SetBytes(modulus)
	// the group is meaningless without a positive modulus
	if n.Sign() <= 0 {
		return nil, ErrInvalidVDFModulus
	}
	// an empty message has no canonical group element; reject rather than inherit
	// undefined behavior
	if len(message) == 0 {
		return nil, ErrEmptyVDFMessage
	}
	// derive the base element deterministically from the message
	base := new(big.Int).SetBytes(message)
	base.Mod(base, n)
	return &WesolowskiVDF{lambda: lambda, difficulty: difficulty, base: base, modulus: n}, nil
}

// Difficulty() returns the exponent bit-length of the instance
func (v *WesolowskiVDF) Difficulty() uint16 { return v.difficulty }

// Iterations() returns T = 2^difficulty as a big integer
func (v *WesolowskiVDF) Iterations() *big.Int { return new(big.Int).Lsh(bigOne, uint(v.difficulty)) }

// Prove() computes y = x^(2^T) mod N by T sequential squarings, then derives the
// compact proof with a second sequential pass using long division in the exponent -
// proof generation costs the same order as the squaring itself, which is exactly what
// makes verification asymmetrically cheap
// The token is polled between batches of squarings; a cancelled run returns nil and
// the partial work is discarded
func (v *WesolowskiVDF) Prove(token *CancellationToken) *VDF {
	// refuse iteration counts that cannot complete
	if v.difficulty > MaxProvableDifficulty {
		return nil
	}
	iterations := uint64(1) << v.difficulty
	// poll granularity: ~1% of the run, clamped to keep cancellation latency bounded
	checkInterval := iterations / 100
	if checkInterval < minCheckInterval {
		checkInterval = minCheckInterval
	} else if checkInterval > maxCheckInterval {
		checkInterval = maxCheckInterval
	}
	// first pass: the sequential squaring chain
	y := bip.New().Set(v.base)
	for i := uint64(1); i <= iterations; i++ {
		if i%checkInterval == 0 && token.IsCancelled() {
			bip.Recycle(y)
			return nil
		}
		// y = y^2 mod N
		y.Mul(y, y)
		y.Mod(y, v.modulus)
	}
	// derive the challenge prime from the instance and the output
	b := v.hashPrime(v.base.Bytes(), y.Bytes())
	// second pass: compute pi = x^(2^T / B) using binary long division in the exponent,
	// tracking the remainder r so no value wider than B is ever materialized
	r, pi := bip.New().SetInt64(1), bip.New().SetInt64(1)
	for i := uint64(1); i <= iterations; i++ {
		if i%checkInterval == 0 && token.IsCancelled() {
			bip.Recycle(y, b, r, pi)
			return nil
		}
		// pi = pi^2 mod N
		pi.Mul(pi, pi)
		pi.Mod(pi, v.modulus)
		// shift the next bit of 2^T into the remainder
		r.Lsh(r, 1)
		// if the remainder overflows the challenge, fold it and absorb a factor of x
		if r.Cmp(b) >= 0 {
			r.Sub(r, b)
			pi.Mul(pi, v.base)
			pi.Mod(pi, v.modulus)
		}
	}
	solution := &VDF{Proof: pi.Bytes(), Output: y.Bytes()}
	bip.Recycle(y, b, r, pi)
	return solution
}

// Verify() checks the single verifying equation sigma == x^r * pi^B mod N where
// B = hashPrime(x, sigma) and r = 2^T mod B
// Any structural mismatch - byte strings out of the group's range, zero elements,
// equation failure - is an ordinary false, never a panic or error
func (v *WesolowskiVDF) Verify(solution *VDF) bool {
	if solution == nil {
		return false
	}
	pi := new(big.Int).SetBytes(solution.Proof)
	sigma := new(big.Int).SetBytes(solution.Output)
	// both elements must be in [1, N-1]
	if pi.Sign() == 0 || sigma.Sign() == 0 || pi.Cmp(v.modulus) >= 0 || sigma.Cmp(v.modulus) >= 0 {
		return false
	}
	// recompute the challenge prime from the input element and the claimed output
	b := v.hashPrime(v.base.Bytes(), sigma.Bytes())
	// r = 2^T mod B with T = 2^difficulty
	t := bip.New().Lsh(bigOne, uint(v.difficulty))
	r := bip.New().Exp(bigTwo, t, b)
	// z = pi^B * x^r mod N
	piToB := bip.New().Exp(pi, b, v.modulus)
	xToR := bip.New().Exp(v.base, r, v.modulus)
	z := piToB.Mul(piToB, xToR)
	z.Mod(z, v.modulus)
	// the equation either holds or it doesn't
	result := z.Cmp(sigma) == 0
	bip.Recycle(b, t, r, piToB, xToR)
	return result
}

// hashPrime() deterministically derives the Fiat-Shamir challenge prime from the
// instance parameters and the (input, output) pair by hashing with an incrementing
// counter until a probable prime of ChallengePrimeSize bytes is found
// lambda is folded into the buffer so solutions are not transferable across instances
// that differ only in the security parameter
func (v *WesolowskiVDF) hashPrime(x, y []byte) *big.Int {
	// pre-allocate a buffer with counter (8 bytes) + lambda (2 bytes) + x + y
	buffer := make([]byte, 10+len(x)+len(y))
	binary.BigEndian.PutUint16(buffer[8:10], v.lambda)
	copy(buffer[10:], x)
	copy(buffer[10+len(x):], y)
	z := bip.New()
	// reference the portion of the buffer for the counter
	counter := buffer[:8]
	for i := uint64(0); ; i++ {
		// write the counter into the pre-allocated prefix
		binary.BigEndian.PutUint64(counter, i)
		// set the bytes of z as the truncated hash of the buffer
		z.SetBytes(Hash(buffer)[:ChallengePrimeSize])
		// check primality
		if z.ProbablyPrime(MillerRabinRounds) {
			return z
		}
	}
}
