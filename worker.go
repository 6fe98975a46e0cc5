package sbuf

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
)

// worker is the goroutine that applies one registered JobFunc to every
// record in the stream, exactly once, in enqueue order.
//
// Grounded on original_source/sbuffer.c's stream_wrapper / stream_function_recur_rd,
// converted from self-recursion to an iterative loop per spec §9's Design
// Notes (recursion over an unbounded list risks stack exhaustion).
type worker[T any] struct {
	stream *Stream[T]
	jobID  int
	fn     JobFunc[T]
}

func newWorker[T any](s *Stream[T], jobID int, fn JobFunc[T]) *worker[T] {
	return &worker[T]{stream: s, jobID: jobID, fn: fn}
}

// run walks the list from head to EOS, visiting each node once.
func (w *worker[T]) run() {
	n := w.stream.waitForHead()

	for {
		if n.eos {
			n.signalReady()
			ctx, span := w.stream.tracer.StartSpan(context.Background(), SpanWorkerVisit)
			span.SetTag(TagEOS, "true")
			span.SetTag(TagJobID, fmt.Sprintf("%d", w.jobID))
			span.Finish()
			capitan.Info(ctx, SignalEOSObserved,
				FieldStreamID.Field(w.stream.name),
				FieldJobID.Field(w.jobID),
				FieldSeq.Field(n.seq),
			)
			return
		}

		if n.visit(w.jobID) {
			w.invoke(n)
		}

		next := w.stream.waitForSuccessor(n)
		if remaining := n.advance(); remaining <= 0 {
			capitan.Info(context.Background(), SignalNodeReady,
				FieldStreamID.Field(w.stream.name),
				FieldSeq.Field(n.seq),
				FieldRemaining.Field(remaining),
			)
		}
		n = next
	}
}

// invoke calls the registered JobFunc, isolating any panic so one
// misbehaving job cannot take down the stream or its sibling workers.
// Grounded on the panic-isolation discipline pipz applies around every
// user-supplied callback (see recoverFromPanic call sites throughout the
// connector catalog, e.g. concurrent.go, workerpool.go).
func (w *worker[T]) invoke(n *node[T]) {
	ctx, span := w.stream.tracer.StartSpan(context.Background(), SpanWorkerVisit)
	span.SetTag(TagJobID, fmt.Sprintf("%d", w.jobID))
	span.SetTag(TagSequence, fmt.Sprintf("%d", n.seq))
	defer span.Finish()

	defer func() {
		if r := recover(); r != nil {
			capitan.Error(ctx, SignalJobPanic,
				FieldStreamID.Field(w.stream.name),
				FieldJobID.Field(w.jobID),
				FieldSeq.Field(n.seq),
				FieldError.Field(fmt.Sprintf("%v", r)),
			)
		}
	}()

	w.fn(n.payload)
	w.stream.metrics.Counter(MetricJobInvocations).Inc()
}
