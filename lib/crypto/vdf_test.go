package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// a small composite modulus keeps the squaring chain fast enough for unit tests
var testModulus = []byte{213, 166, 245, 127, 146, 139, 45, 0}

func TestWesolowskiVDFRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		detail     string
		lambda     uint16
		difficulty uint16
		message    []byte
	}{
		{
			name:       "smallestInstance",
			detail:     "a difficulty 1 instance is the minimal two-squaring chain",
			lambda:     1500,
			difficulty: 1,
			message:    []byte("a"),
		},
		{
			name:       "midInstance",
			detail:     "a difficulty 10 instance runs a 1024 squaring chain",
			lambda:     1500,
			difficulty: 10,
			message:    []byte("sortition round input"),
		},
		{
			name:       "largeMessage",
			detail:     "a message wider than the modulus is reduced into the group first",
			lambda:     1500,
			difficulty: 8,
			message:    Hash([]byte("wide")),
		},
		{
			name:       "zeroLambda",
			detail:     "lambda participates in the challenge only; zero is a valid instance",
			lambda:     0,
			difficulty: 6,
			message:    []byte("b"),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// create the vdf instance from the problem parameters
			vdf, err := NewWesolowskiVDF(test.lambda, test.difficulty, test.message, testModulus)
			require.NoError(t, err)
			// run the sequential proof with a fresh (never cancelled) token
			solution := vdf.Prove(NewCancellationToken())
			// ensure the run completed
			require.NotNil(t, solution)
			// verify the solution against the same instance
			require.True(t, vdf.Verify(solution))
		})
	}
}

func TestWesolowskiVDFCrossInstanceRejection(t *testing.T) {
	// the concrete case: message [97] at difficulty 6 over the small test modulus
	vdfA, err := NewWesolowskiVDF(1500, 6, []byte{97}, testModulus)
	require.NoError(t, err)
	// produce solution S for instance A
	solution := vdfA.Prove(NewCancellationToken())
	require.NotNil(t, solution)
	// sanity check: S verifies against A
	require.True(t, vdfA.Verify(solution))
	// the same parameters with message [98] must reject S
	vdfB, err := NewWesolowskiVDF(1500, 6, []byte{98}, testModulus)
	require.NoError(t, err)
	require.False(t, vdfB.Verify(solution))
	// a differing difficulty must reject S as well
	vdfC, err := NewWesolowskiVDF(1500, 7, []byte{97}, testModulus)
	require.NoError(t, err)
	require.False(t, vdfC.Verify(solution))
	// a differing lambda changes the challenge derivation and must reject S
	vdfD, err := NewWesolowskiVDF(1501, 6, []byte{97}, testModulus)
	require.NoError(t, err)
	require.False(t, vdfD.Verify(solution))
}

func TestWesolowskiVDFRepeatedProving(t *testing.T) {
	// create the vdf instance
	vdf, err := NewWesolowskiVDF(1500, 8, []byte("repeat"), testModulus)
	require.NoError(t, err)
	// prove the same instance twice
	first := vdf.Prove(NewCancellationToken())
	second := vdf.Prove(NewCancellationToken())
	require.NotNil(t, first)
	require.NotNil(t, second)
	// each solution must independently verify against the instance
	require.True(t, vdf.Verify(first))
	require.True(t, vdf.Verify(second))
	// the deterministic chain yields identical outputs
	require.Equal(t, first.Output, second.Output)
	require.Equal(t, first.Proof, second.Proof)
}

func TestWesolowskiVDFInvalidParams(t *testing.T) {
	// an empty message has no canonical group element
	_, err := NewWesolowskiVDF(1500, 6, nil, testModulus)
	require.ErrorIs(t, err, ErrEmptyVDFMessage)
	// a zero modulus describes no group at all
	_, err = NewWesolowskiVDF(1500, 6, []byte{97}, nil)
	require.ErrorIs(t, err, ErrInvalidVDFModulus)
	_, err = NewWesolowskiVDF(1500, 6, []byte{97}, []byte{0, 0})
	require.ErrorIs(t, err, ErrInvalidVDFModulus)
}

func TestWesolowskiVDFVerifyRejectsMalformed(t *testing.T) {
	// create the vdf instance and a valid solution to mutate
	vdf, err := NewWesolowskiVDF(1500, 6, []byte{97}, testModulus)
	require.NoError(t, err)
	solution := vdf.Prove(NewCancellationToken())
	require.NotNil(t, solution)
	tests := []struct {
		name     string
		detail   string
		solution *VDF
	}{
		{
			name:   "nilSolution",
			detail: "a missing solution is an ordinary false, never a panic",
		},
		{
			name:     "emptyFields",
			detail:   "empty proof and output decode to zero, which is outside the group",
			solution: &VDF{},
		},
		{
			name:     "zeroProof",
			detail:   "the zero element is rejected by the range check",
			solution: &VDF{Proof: []byte{0}, Output: solution.Output},
		},
		{
			name:     "outOfRangeOutput",
			detail:   "an output at or beyond the modulus is outside the group",
			solution: &VDF{Proof: solution.Proof, Output: append([]byte{1}, testModulus...)},
		},
		{
			name:     "tamperedOutput",
			detail:   "a single flipped output breaks the verifying equation",
			solution: &VDF{Proof: solution.Proof, Output: Hash(solution.Output)[:4]},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.False(t, vdf.Verify(test.solution))
		})
	}
}

func TestWesolowskiVDFProveRefusesInfeasible(t *testing.T) {
	// an iteration count beyond 2^62 cannot complete; Prove refuses immediately
	vdf, err := NewWesolowskiVDF(1500, MaxProvableDifficulty+1, []byte{97}, testModulus)
	require.NoError(t, err)
	require.Nil(t, vdf.Prove(NewCancellationToken()))
}

func TestWesolowskiVDFCancellation(t *testing.T) {
	// a pre-cancelled token aborts the run at the first poll
	vdf, err := NewWesolowskiVDF(1500, 10, []byte("cancel"), testModulus)
	require.NoError(t, err)
	token := NewCancellationToken()
	token.Cancel()
	require.Nil(t, vdf.Prove(token))
}

func TestWesolowskiVDFCancellationMidRun(t *testing.T) {
	testTimeout := 30 * time.Second
	// a difficulty large enough that the full chain would dwarf the test timeout
	vdf, err := NewWesolowskiVDF(1500, 34, []byte("cancel"), testModulus)
	require.NoError(t, err)
	token := NewCancellationToken()
	// run the prover off the test goroutine
	done := make(chan *VDF, 1)
	go func() { done <- vdf.Prove(token) }()
	// let the squaring chain get going, then cancel
	time.Sleep(50 * time.Millisecond)
	token.Cancel()
	select {
	case solution := <-done:
		// the cancelled run discards its partial work
		require.Nil(t, solution)
	case <-time.After(testTimeout):
		t.Fatal("test timeout")
	}
}

func TestCancellationToken(t *testing.T) {
	token := NewCancellationToken()
	// a fresh token is active
	require.False(t, token.IsCancelled())
	// cancellation is one-way
	token.Cancel()
	require.True(t, token.IsCancelled())
	// and idempotent
	token.Cancel()
	require.True(t, token.IsCancelled())
	// a nil token reads as active and ignores cancellation
	var nilToken *CancellationToken
	require.False(t, nilToken.IsCancelled())
	nilToken.Cancel()
}
