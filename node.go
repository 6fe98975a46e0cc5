package sbuf

import "sync"

// node is one cell of the stream's append-only list. It holds one record
// (or, on the terminator node, no payload) plus the synchronization state
// needed to coordinate fan-out visits and reclamation.
//
// Grounded on original_source/sbuffer.c's sbuffer_node_t: next, data,
// nodeLock (rwlock), jobFlag[]/jobFlagLock, thread_pass, EOS, and the
// garbage_collection_lock semaphore. The jobFlag array and its separate
// mutex collapse into pending + the write side of mu (Design Notes §9);
// the semaphore collapses into a channel closed exactly once (readyCh).
type node[T any] struct {
	mu        sync.RWMutex
	next      *node[T]
	payload   T
	eos       bool
	seq       int
	pending   map[int]struct{} // job ids that have not yet visited this node
	remaining int              // worker visits left before reclamation is safe

	readyOnce sync.Once
	readyCh   chan struct{}
}

// newNode allocates a non-EOS node carrying payload, pending visits from
// every job id in [1, jobCount], and remaining set to workerCount.
//
// jobCount==0 produces an empty pending set (no job ever owes this node a
// visit). workerCount==0 marks the node immediately reclaimable, matching
// spec §8's "registering zero jobs" boundary behavior.
func newNode[T any](payload T, seq, jobCount, workerCount int) *node[T] {
	n := &node[T]{
		payload:   payload,
		seq:       seq,
		pending:   pendingSet(jobCount),
		remaining: workerCount,
		readyCh:   make(chan struct{}),
	}
	if workerCount == 0 {
		n.signalReady()
	}
	return n
}

// newEOSNode allocates the terminator node. It carries no payload and is
// never subject to the remaining-visits countdown: each worker signals
// readiness itself the moment it observes eos (spec §4.2 step 2). If no
// worker will ever reach it (workerCount==0, spec §8's "registering zero
// jobs" boundary), the latch releases immediately at construction instead,
// matching newNode's same-case handling.
func newEOSNode[T any](seq, workerCount int) *node[T] {
	n := &node[T]{
		eos:     true,
		seq:     seq,
		pending: pendingSet(0),
		readyCh: make(chan struct{}),
	}
	if workerCount == 0 {
		n.signalReady()
	}
	return n
}

func pendingSet(jobCount int) map[int]struct{} {
	set := make(map[int]struct{}, jobCount)
	for id := 1; id <= jobCount; id++ {
		set[id] = struct{}{}
	}
	return set
}

// visit removes jobID from the pending set under a write lock and reports
// whether it was still pending. A job that has already visited this node
// (or was never registered at append time) gets false, matching spec
// §4.2 step 3's "absent" branch.
func (n *node[T]) visit(jobID int) bool {
	n.mu.Lock()
	_, pending := n.pending[jobID]
	if pending {
		delete(n.pending, jobID)
	}
	n.mu.Unlock()
	return pending
}

// advance decrements the remaining-visit counter as a worker steps past
// this node toward its successor, releasing the reclaim latch when it
// reaches zero (spec §4.2 step 4). It returns the post-decrement count so
// the caller can log it when the latch releases.
func (n *node[T]) advance() int {
	n.mu.Lock()
	n.remaining--
	remaining := n.remaining
	n.mu.Unlock()
	if remaining <= 0 {
		n.signalReady()
	}
	return remaining
}

// signalReady releases the one-shot reclamation latch. Safe to call more
// than once (by multiple workers racing to observe EOS); only the first
// call has any effect. Once closed, the latch stays released, so the
// reclaimer never needs to re-post it.
func (n *node[T]) signalReady() {
	n.readyOnce.Do(func() { close(n.readyCh) })
}

// successor returns the node's next pointer under a read lock.
func (n *node[T]) successor() *node[T] {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.next
}

// link sets next under a write lock. Only the producer calls this, while
// holding the stream's head-tail write lock (spec §4.1 step 3).
func (n *node[T]) link(next *node[T]) {
	n.mu.Lock()
	n.next = next
	n.mu.Unlock()
}

// pendingCount reports the size of the pending-job set, for metrics and
// logging.
func (n *node[T]) pendingCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.pending)
}
