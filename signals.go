package sbuf

import "github.com/zoobzio/capitan"

// Signal constants for stream lifecycle events.
// Signals follow the pattern: <subject>.<event>, replacing the reference
// implementation's bare fprintf(stderr, ...) diagnostics (spec §6).
const (
	// SignalNodeInserted fires once per Insert/InsertEOS, after the node
	// is linked and the broadcast has gone out.
	SignalNodeInserted capitan.Signal = "stream.node.inserted"
	// SignalNodeReclaimed fires once per node, after the reclaimer has
	// advanced head past it.
	SignalNodeReclaimed capitan.Signal = "stream.node.reclaimed"
	// SignalEOSObserved fires when a worker (tagged with its job id) or the
	// reclaimer reaches the terminator node.
	SignalEOSObserved capitan.Signal = "stream.eos.observed"
	// SignalWorkersJoined fires once every registered worker has
	// terminated following EOS.
	SignalWorkersJoined capitan.Signal = "stream.workers.joined"
	// SignalJobPanic fires when a registered JobFunc panics; the worker
	// recovers and continues to the next node.
	SignalJobPanic capitan.Signal = "stream.job.panic"
	// SignalNodeReady fires when the last outstanding worker visit lands on
	// a node, releasing its reclaim latch. Distinct from
	// SignalNodeReclaimed, which the reclaimer emits once it has actually
	// advanced head past the node.
	SignalNodeReady capitan.Signal = "stream.node.ready"
)

// Common field keys using capitan primitive types.
var (
	FieldStreamID  = capitan.NewStringKey("stream_id")
	FieldJobID     = capitan.NewIntKey("job_id")
	FieldPending   = capitan.NewIntKey("pending_jobs")
	FieldRemaining = capitan.NewIntKey("remaining_visits")
	FieldSeq       = capitan.NewIntKey("sequence")
	FieldTimestamp = capitan.NewFloat64Key("timestamp")
	FieldWorkers   = capitan.NewIntKey("worker_count")
	FieldError     = capitan.NewStringKey("error")
)
