package sbuf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys, following the teacher's per-type metricz.Key convention
// (see e.g. BackoffAttemptsTotal in the reference connector catalog).
const (
	MetricRecordsInserted  = metricz.Key("sbuf.records.inserted.total")
	MetricRecordsReclaimed = metricz.Key("sbuf.records.reclaimed.total")
	MetricJobInvocations   = metricz.Key("sbuf.jobs.invocations.total")
	MetricEOSTotal         = metricz.Key("sbuf.eos.total")
	MetricNodesLive        = metricz.Key("sbuf.nodes.live")
)

// Span keys and tags.
const (
	SpanInsert       = tracez.Key("sbuf.insert")
	SpanWorkerVisit  = tracez.Key("sbuf.worker.visit")
	SpanReclaim      = tracez.Key("sbuf.reclaim")
	TagJobID         = tracez.Tag("sbuf.job_id")
	TagSequence      = tracez.Tag("sbuf.sequence")
	TagEOS           = tracez.Tag("sbuf.eos")
)

// JobFunc is the per-job transform applied to every record in the stream,
// exactly once, in enqueue order. It receives the record by value; a job
// that needs to mutate shared state does so through closure capture.
type JobFunc[T any] func(T)

// Stream is a concurrent fan-out buffer: one producer appends records via
// Insert, a fixed set of job workers each independently walk the list
// applying their registered JobFunc to every record, and a single
// reclaimer goroutine frees each node once every job has passed it.
//
// Grounded on original_source/sbuffer.c's sbuffer_t: headTailLock, jobs[],
// newBroadcastCond/newBroadCastLock, gcThread, jobCount, threadCount.
type Stream[T any] struct {
	name string

	headTailMu sync.RWMutex
	head       *node[T]
	tail       *node[T]

	newNodeMu   sync.Mutex
	newNodeCond *sync.Cond

	jobCount    int
	workerCount int

	workersMu sync.Mutex

	streaming atomic.Bool // set on first Insert/InsertEOS; blocks further RegisterJob
	closed    atomic.Bool // set on InsertEOS; blocks further Insert

	seq       atomic.Int64
	liveNodes atomic.Int64

	workers    []*worker[T]
	workerWG   sync.WaitGroup
	reclaimer  *reclaimer[T]
	shutdownMu sync.Mutex
	done       atomic.Bool

	clock   clockz.Clock
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[StreamEvent]
}

// New allocates a Stream configured for jobCount distinct job ids and
// workerCount worker-visits per node, matching the reference's
// sbuffer_init(streamJobs, threadCount). It immediately starts the
// reclaimer goroutine; worker goroutines are started lazily, one per call
// to RegisterJob.
func New[T any](jobCount, workerCount int, opts ...Option[T]) (*Stream[T], error) {
	if jobCount < 0 || workerCount < 0 {
		return nil, &StreamError{Op: "New", Err: ErrAllocation, Timestamp: time.Now()}
	}

	s := &Stream[T]{
		name:        "sbuf",
		jobCount:    jobCount,
		workerCount: workerCount,
		clock:       clockz.RealClock,
		metrics:     metricz.New(),
		tracer:      tracez.New(),
		hooks:       hookz.New[StreamEvent](),
	}
	s.newNodeCond = sync.NewCond(&s.newNodeMu)

	for _, opt := range opts {
		opt(s)
	}

	s.metrics.Counter(MetricRecordsInserted)
	s.metrics.Counter(MetricRecordsReclaimed)
	s.metrics.Counter(MetricJobInvocations)
	s.metrics.Counter(MetricEOSTotal)
	s.metrics.Gauge(MetricNodesLive)

	s.reclaimer = newReclaimer(s)
	s.reclaimer.start()

	return s, nil
}

// RegisterJob attaches fn as the transform for job id. Valid only before
// the first Insert/InsertEOS; spec §7 requires implementations to detect
// late registration and fail defensively rather than silently skip it.
func (s *Stream[T]) RegisterJob(id int, fn JobFunc[T]) error {
	if id < 1 || id > s.jobCount {
		return &StreamError{Op: "RegisterJob", JobID: id, Err: ErrUnknownJob, Timestamp: s.now()}
	}
	if s.streaming.Load() {
		return &StreamError{Op: "RegisterJob", JobID: id, Err: ErrAlreadyStreaming, Timestamp: s.now()}
	}

	w := newWorker(s, id, fn)
	s.workersMu.Lock()
	s.workers = append(s.workers, w)
	s.workersMu.Unlock()

	s.workerWG.Add(1)
	go func() {
		defer s.workerWG.Done()
		w.run()
	}()

	return nil
}

// Insert appends a record to the tail of the stream and wakes every
// waiting worker and the reclaimer. Grounded on sbuffer_insert's lock
// order: headTailLock, then newBroadCastLock, then the new node's own
// lock (already held implicitly since no other goroutine can see the node
// until it is linked).
func (s *Stream[T]) Insert(record T) error {
	if s.closed.Load() {
		return &StreamError{Op: "Insert", Err: ErrClosed, Timestamp: s.now()}
	}
	s.streaming.Store(true)

	ctx, span := s.tracer.StartSpan(context.Background(), SpanInsert)
	defer span.Finish()

	n := newNode[T](record, int(s.seq.Add(1)), s.jobCount, s.workerCount)
	span.SetTag(TagSequence, fmt.Sprintf("%d", n.seq))

	s.appendNode(n)

	s.metrics.Counter(MetricRecordsInserted).Inc()
	s.metrics.Gauge(MetricNodesLive).Set(float64(s.liveNodes.Add(1)))
	capitan.Info(ctx, SignalNodeInserted,
		FieldStreamID.Field(s.name),
		FieldSeq.Field(n.seq),
		FieldPending.Field(n.pendingCount()),
		FieldTimestamp.Field(float64(s.now().UnixNano())/1e9),
	)

	return nil
}

// InsertEOS appends the terminator node. Idempotent-unsafe by design: a
// second call returns ErrAlreadyClosed, matching spec §7's closed-stream
// contract.
func (s *Stream[T]) InsertEOS() error {
	if !s.closed.CompareAndSwap(false, true) {
		return &StreamError{Op: "InsertEOS", Err: ErrAlreadyClosed, Timestamp: s.now()}
	}
	s.streaming.Store(true)

	n := newEOSNode[T](int(s.seq.Add(1)), s.workerCount)
	s.appendNode(n)

	s.metrics.Counter(MetricEOSTotal).Inc()
	capitan.Info(context.Background(), SignalNodeInserted,
		FieldStreamID.Field(s.name),
		FieldSeq.Field(n.seq),
		FieldTimestamp.Field(float64(s.now().UnixNano())/1e9),
	)

	return nil
}

// appendNode performs the actual link-and-broadcast shared by Insert and
// InsertEOS: it links the node under the head-tail write lock, releases
// that lock, and only then takes the broadcast lock to wake waiters. The
// two locks are never held together here (see SPEC_FULL.md §7).
func (s *Stream[T]) appendNode(n *node[T]) {
	s.headTailMu.Lock()
	if s.tail == nil {
		s.head = n
		s.tail = n
	} else {
		s.tail.link(n)
		s.tail = n
	}
	s.headTailMu.Unlock()

	s.newNodeMu.Lock()
	s.newNodeCond.Broadcast()
	s.newNodeMu.Unlock()
}

// Shutdown inserts EOS (if not already closed) and blocks until the
// reclaimer and every worker goroutine have exited. A second call returns
// ErrAlreadyClosed.
func (s *Stream[T]) Shutdown() error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	if s.done.Load() {
		return &StreamError{Op: "Shutdown", Err: ErrAlreadyClosed, Timestamp: s.now()}
	}

	if err := s.InsertEOS(); err != nil && !errors.Is(err, ErrAlreadyClosed) {
		return err
	}

	s.reclaimer.wait()
	s.done.Store(true)

	s.close()
	return nil
}

// close releases observability resources. Grounded on the teacher's own
// Close() method (see e.g. Backoff.Close), which tears down the tracer and
// hooks after the last operation completes.
func (s *Stream[T]) close() {
	if s.tracer != nil {
		s.tracer.Close()
	}
	if s.hooks != nil {
		s.hooks.Close()
	}
}

func (s *Stream[T]) now() time.Time {
	return s.clock.Now()
}

// waitForHead returns the stream's head node, blocking until the producer
// has appended at least one node. Grounded on garbage_wrapper's initial
// check-then-wait structure: a peek under the head-tail read lock first, falling back to the
// broadcast condition only when the list is still empty.
func (s *Stream[T]) waitForHead() *node[T] {
	s.headTailMu.RLock()
	head := s.head
	s.headTailMu.RUnlock()
	if head != nil {
		return head
	}

	s.newNodeMu.Lock()
	defer s.newNodeMu.Unlock()
	for {
		s.headTailMu.RLock()
		head = s.head
		s.headTailMu.RUnlock()
		if head != nil {
			return head
		}
		s.newNodeCond.Wait()
	}
}

// waitForSuccessor blocks until n.next is non-nil, then returns it.
// Grounded on stream_function_recur_rd / garbage_collector_recur's
// `while(node->next == NULL) pthread_cond_wait(...)` loop.
func (s *Stream[T]) waitForSuccessor(n *node[T]) *node[T] {
	s.newNodeMu.Lock()
	defer s.newNodeMu.Unlock()
	for {
		if next := n.successor(); next != nil {
			return next
		}
		s.newNodeCond.Wait()
	}
}

// Metrics exposes the stream's metric registry for external scraping.
func (s *Stream[T]) Metrics() *metricz.Registry { return s.metrics }

// Tracer exposes the stream's tracer.
func (s *Stream[T]) Tracer() *tracez.Tracer { return s.tracer }
