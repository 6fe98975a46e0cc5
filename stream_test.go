package sbuf

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// orderedRecorder collects visited values under a mutex, for tests that
// assert on enqueue-order fan-out rather than just counts.
type orderedRecorder struct {
	mu     sync.Mutex
	values []int
}

func (r *orderedRecorder) append(v int) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *orderedRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.values))
	copy(out, r.values)
	return out
}

func TestStreamSingleJobInOrder(t *testing.T) {
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := &orderedRecorder{}
	if err := stream.RegisterJob(1, func(v int) {
		rec.append(v)
	}); err != nil {
		t.Fatalf("RegisterJob: %v", err)
	}

	for i := 1; i <= 5; i++ {
		if err := stream.Insert(i); err != nil {
			t.Fatalf("Insert(%d): %v", i, err)
		}
	}
	if err := stream.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	got := rec.snapshot()
	want := []int{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d visits, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestStreamTwoJobsEachSeeEveryRecordExactlyOnce(t *testing.T) {
	stream, err := New[int](2, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var job1Count, job2Count atomic.Int64
	_ = stream.RegisterJob(1, func(int) { job1Count.Add(1) })
	_ = stream.RegisterJob(2, func(int) { job2Count.Add(1) })

	const n = 200
	for i := 0; i < n; i++ {
		if err := stream.Insert(i); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := stream.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if job1Count.Load() != n {
		t.Errorf("job 1: expected %d visits, got %d", n, job1Count.Load())
	}
	if job2Count.Load() != n {
		t.Errorf("job 2: expected %d visits, got %d", n, job2Count.Load())
	}
}

func TestStreamImmediateEOS(t *testing.T) {
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var visited atomic.Bool
	_ = stream.RegisterJob(1, func(int) { visited.Store(true) })

	if err := stream.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if visited.Load() {
		t.Error("job should never run when no records were ever inserted")
	}
}

func TestStreamZeroWorkersShutdownTerminates(t *testing.T) {
	// workerCount 0: no RegisterJob call is ever made, so no worker
	// goroutine exists to observe either a record or the EOS node.
	// Shutdown must still terminate promptly (spec §8's "registering zero
	// jobs" boundary): every node, including EOS, is immediately
	// reclaimable.
	stream, err := New[int](0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := stream.Insert(1); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := stream.Insert(2); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- stream.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Shutdown: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not terminate with zero workers")
	}
}

func TestStreamRegisterJobAfterStreamingFails(t *testing.T) {
	// jobCount and workerCount both 1: the single registered job is also
	// the only worker visit each node needs, so Shutdown still drains
	// cleanly even though a second, rejected registration is attempted.
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = stream.RegisterJob(1, func(int) {})
	if err := stream.Insert(1); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err = stream.RegisterJob(1, func(int) {})
	if !errors.Is(err, ErrAlreadyStreaming) {
		t.Errorf("expected ErrAlreadyStreaming, got %v", err)
	}
	_ = stream.Shutdown()
}

func TestStreamInsertAfterCloseFails(t *testing.T) {
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = stream.RegisterJob(1, func(int) {})
	if err := stream.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if err := stream.Insert(1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestStreamDoubleShutdownFails(t *testing.T) {
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_ = stream.RegisterJob(1, func(int) {})
	if err := stream.Shutdown(); err != nil {
		t.Fatalf("first Shutdown: %v", err)
	}
	if err := stream.Shutdown(); !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestStreamJobPanicDoesNotHaltStream(t *testing.T) {
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var seen atomic.Int64
	_ = stream.RegisterJob(1, func(v int) {
		if v == 2 {
			panic("boom")
		}
		seen.Add(1)
	})

	for i := 1; i <= 3; i++ {
		_ = stream.Insert(i)
	}

	done := make(chan struct{})
	go func() {
		_ = stream.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return after a job panic; worker likely deadlocked")
	}

	if seen.Load() != 2 {
		t.Errorf("expected the two non-panicking records to be processed, got %d", seen.Load())
	}
}

func TestStreamUnknownJobIDRejected(t *testing.T) {
	stream, err := New[int](1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := stream.RegisterJob(0, func(int) {}); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("job id 0 should be rejected, got %v", err)
	}
	if err := stream.RegisterJob(2, func(int) {}); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("job id beyond jobCount should be rejected, got %v", err)
	}

	// A valid registration for the one real job keeps Shutdown able to
	// drain: the rejected calls above must not have spawned workers that
	// would otherwise double-visit every node.
	if err := stream.RegisterJob(1, func(int) {}); err != nil {
		t.Fatalf("RegisterJob(1): %v", err)
	}
	_ = stream.Shutdown()
}
