package sbuf

import (
	"errors"
	"fmt"
	"time"
)

// Status mirrors the three-way result code of the reference implementation:
// SUCCESS, FAILURE, and the reserved NO_DATA. Go callers should prefer the
// error returned from each operation; Status is provided for callers that
// want the original three-state contract via StatusOf.
type Status int

const (
	// Success indicates the operation completed normally.
	Success Status = 0
	// Failure indicates the operation could not be completed.
	Failure Status = -1
	// NoData is reserved for future predicate queries; no operation in
	// this package emits it today.
	NoData Status = 1
)

// Sentinel errors. Compare with errors.Is.
var (
	// ErrAllocation is returned by New when jobCount or workerCount is
	// negative, so no stream can be built from them.
	ErrAllocation = errors.New("sbuf: allocation failed")
	// ErrAlreadyStreaming is returned by RegisterJob once the first record
	// has been inserted; job registration is only valid before streaming
	// begins.
	ErrAlreadyStreaming = errors.New("sbuf: cannot register job after streaming has started")
	// ErrAlreadyClosed is returned by InsertEOS or Shutdown when called a
	// second time on the same stream.
	ErrAlreadyClosed = errors.New("sbuf: stream already closed")
	// ErrClosed is returned by Insert once the stream has observed EOS.
	ErrClosed = errors.New("sbuf: stream is closed")
	// ErrUnknownJob is returned by RegisterJob when the job id falls
	// outside [1, jobCount].
	ErrUnknownJob = errors.New("sbuf: job id out of range")
)

// StreamError provides rich context about a stream operation failure: which
// operation failed, which job (if any) it concerns, and when it happened.
type StreamError struct {
	Op        string
	JobID     int
	Err       error
	Timestamp time.Time
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.JobID != 0 {
		return fmt.Sprintf("sbuf: %s (job %d): %v", e.Op, e.JobID, e.Err)
	}
	return fmt.Sprintf("sbuf: %s: %v", e.Op, e.Err)
}

// Unwrap supports errors.Is/errors.As against the wrapped sentinel.
func (e *StreamError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusOf maps an error returned from this package back to the spec's
// original three-way status code, for callers that prefer that contract
// over idiomatic Go errors.
func StatusOf(err error) Status {
	if err == nil {
		return Success
	}
	return Failure
}
