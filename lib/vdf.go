package lib

import (
	"sync"
	"sync/atomic"

	"github.com/arbor-network/sortition/lib/crypto"
)

// VDFService wraps the sortition proving flow behind a run/finish pair
// Here's how it works:
//   - VDFService.Run() builds a sortition record for the round inputs and executes the
//     (long, blocking) VDF proving step at the record's derived difficulty
//   - There's two paths: Success and Interrupt. A successful run leaves a complete,
//     transmissible record behind; an interrupted run discards the partial work
//   - VDFService.Finish() collects the record if complete, or cancels the in-flight
//     proving step if the round moved on before the delay elapsed
//
// The service is designed to handle a single call to Run() always followed by a single
// call to Finish()
type VDFService struct {
	params  SortitionParams // the sortition parameters governing the run
	key     crypto.PrivateKeyI
	record  *VdfSortition // the record from the previous run, nil if interrupted
	token   *crypto.CancellationToken
	running *atomic.Bool // if the service is currently proving
	metrics *Metrics
	log     LoggerI
	l       sync.Mutex // guards record and token across Run() / Finish()
}

// NewVDFService() creates a new instance of the VDF service
func NewVDFService(params SortitionParams, key crypto.PrivateKeyI, metrics *Metrics, log LoggerI) *VDFService {
	return &VDFService{params: params, key: key, running: &atomic.Bool{}, metrics: metrics, log: log}
}

// Run() *blocking call*: builds a sortition record for the round inputs and computes
// its VDF solution. If Finish() is called before the delay elapses, this exits
// prematurely and the partial work is discarded
func (vdf *VDFService) Run(vrfInput, vdfInput []byte, voteCount, totalVoteCount uint64) {
	// if the vdf service is nil
	if vdf == nil {
		return
	}
	// - Run() and not running locks and starts a run
	// - Run() and already running returns
	// the token is armed and the previous result cleared in the same critical section
	// that flips the running flag, so a Finish() that observes the run always has a
	// token to cancel and never collects a stale round's record
	vdf.l.Lock()
	if !vdf.running.CompareAndSwap(false, true) {
		vdf.l.Unlock()
		// log the active status of the service
		vdf.log.Debug("VDF service is already running")
		// exit without running again
		return
	}
	token := crypto.NewCancellationToken()
	vdf.record, vdf.token = nil, token
	vdf.l.Unlock()
	// at the end of this function, reset the sync variable
	defer vdf.running.Store(false)
	// build the record: VRF proof and derived difficulty
	record, err := NewVdfSortition(vdf.params, vdf.key, vrfInput, voteCount, totalVoteCount)
	if err != nil {
		vdf.log.Errorf("Sortition record construction failed: %s", err.Error())
		// exit
		return
	}
	// a stale difficulty means this participant's stake earned the maximal delay; the
	// proof would not land in time, so skip the expensive step entirely
	if record.IsStale(vdf.params) {
		vdf.log.Infof("Sortition is stale at threshold %d, skipping the VDF", record.Threshold())
		vdf.metrics.IncVDFStale()
		// exit
		return
	}
	// log the initialization of the proving step
	vdf.log.Debugf("Starting the VDF proving step at difficulty %d for round %s",
		record.Difficulty, BytesToTruncatedString(vrfInput))
	// run the VDF generation - if Finish() was called, this exits prematurely with an
	// empty solution
	if e := record.ComputeVdfSolution(vdf.params, vdfInput, token); e != nil {
		vdf.log.Errorf("VDF proving failed: %s", e.Error())
		// exit
		return
	}
	// if the solution is empty, it's a premature exit
	if !record.HasSolution() {
		vdf.log.Debug("VDF proving was cancelled before completion")
		vdf.metrics.IncVDFCancelled()
		// exit
		return
	}
	// save the result, unless a cancel slipped in after the final squaring; the check
	// shares the critical section with Finish() so a cancel is never lost
	vdf.l.Lock()
	defer vdf.l.Unlock()
	if token.IsCancelled() {
		vdf.log.Debug("VDF proving was cancelled before completion")
		vdf.metrics.IncVDFCancelled()
		// exit
		return
	}
	// log the completion of the proving step
	vdf.log.Debugf("VDF proving completed at difficulty %d in %s", record.Difficulty, record.VdfComputationTime.String())
	// record telemetry for the run
	vdf.metrics.UpdateVDFComputationTime(record.Difficulty, record.VdfComputationTime)
	vdf.record = record
}

// Finish() signals the service to complete and returns the record
// - still running cancels the in-flight proving step and returns nil
// - not running returns the completed record, or nil after an interrupted run
func (vdf *VDFService) Finish() *VdfSortition {
	// if the service is empty
	if vdf == nil {
		// exit with nil result
		return nil
	}
	vdf.l.Lock()
	defer vdf.l.Unlock()
	// if the proving step has not yet completed, signal it to stop
	if vdf.running.Load() {
		// log the early stop
		vdf.log.Warn("Prematurely stopping the VDF proving step")
		// cancellation is one-way and idempotent
		vdf.token.Cancel()
		// a result stored after the cancel decision point is discarded too
		vdf.record = nil
		// exit with nil result
		return nil
	}
	// if the record is empty, it's a premature exit
	if vdf.record == nil {
		// exit with nil result
		return nil
	}
	// exit with the last (run) record
	return vdf.record.Copy()
}
