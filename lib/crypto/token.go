package crypto

import "sync/atomic"

// CancellationToken is a cooperative abort signal shared between the caller and an
// in-progress VDF proof computation
// - the transition is one-way: active -> cancelled, Cancel() is idempotent
// - Cancel() has no synchronous effect; it only changes what the next poll inside the
//   proving loop observes, so callers that need to know proving stopped must await the
//   prover's own completion
// - the token is shared by pointer; both sides may hold it for as long as they need
type CancellationToken struct {
	cancelled atomic.Bool
}

// NewCancellationToken() creates a new token in the active state
func NewCancellationToken() *CancellationToken { return new(CancellationToken) }

// Cancel() flips the token to the cancelled state; safe to call concurrently with a
// running prover and safe to call more than once
func (t *CancellationToken) Cancel() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
}

// IsCancelled() is a cheap, non-blocking read of the token state
func (t *CancellationToken) IsCancelled() bool {
	if t == nil {
		return false
	}
	return t.cancelled.Load()
}
