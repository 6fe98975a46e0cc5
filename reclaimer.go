package sbuf

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
)

// reclaimer is the single background goroutine that frees each node once
// every worker has visited it. Grounded on original_source/sbuffer.c's
// garbage_wrapper / garbage_collector_recur, converted from self-recursion
// to an iterative loop per spec §9's Design Notes.
type reclaimer[T any] struct {
	stream *Stream[T]
	done   chan struct{}
}

func newReclaimer[T any](s *Stream[T]) *reclaimer[T] {
	return &reclaimer[T]{stream: s, done: make(chan struct{})}
}

func (r *reclaimer[T]) start() {
	go r.run()
}

func (r *reclaimer[T]) wait() {
	<-r.done
}

// run advances the stream's head past each node once its reclaim latch
// has fired (every worker has visited it, or it was created with
// workerCount 0), in strict head-to-tail order. At the EOS node it joins
// every worker goroutine before returning, matching spec §4.3 step 4's
// join-before-destroy ordering and avoiding a double free of the
// terminator node.
func (r *reclaimer[T]) run() {
	defer close(r.done)
	s := r.stream

	n := s.waitForHead()

	for {
		<-n.readyCh

		if n.eos {
			capitan.Info(context.Background(), SignalEOSObserved,
				FieldStreamID.Field(s.name),
				FieldSeq.Field(n.seq),
			)
			_ = s.hooks.Emit(context.Background(), EventEOS, StreamEvent{Sequence: n.seq})

			s.workerWG.Wait()

			s.workersMu.Lock()
			workerCount := len(s.workers)
			s.workersMu.Unlock()

			capitan.Info(context.Background(), SignalWorkersJoined,
				FieldStreamID.Field(s.name),
				FieldWorkers.Field(workerCount),
			)
			return
		}

		// Resolve the successor before taking the head-tail write lock: the
		// producer's appendNode also needs that lock, and it only broadcasts
		// on newNodeCond after releasing it, so holding both at once would
		// deadlock a producer racing to append the node we're waiting for.
		next := s.waitForSuccessor(n)

		s.headTailMu.Lock()
		s.head = next
		s.headTailMu.Unlock()

		ctx, span := s.tracer.StartSpan(context.Background(), SpanReclaim)
		span.SetTag(TagSequence, fmt.Sprintf("%d", n.seq))
		span.Finish()

		s.metrics.Counter(MetricRecordsReclaimed).Inc()
		s.metrics.Gauge(MetricNodesLive).Set(float64(s.liveNodes.Add(-1)))

		capitan.Info(ctx, SignalNodeReclaimed,
			FieldStreamID.Field(s.name),
			FieldSeq.Field(n.seq),
		)
		_ = s.hooks.Emit(ctx, EventReclaim, StreamEvent{Sequence: n.seq, Pending: 0})

		n = next
	}
}
