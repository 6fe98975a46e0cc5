// Package sbuf provides a concurrent fan-out stream buffer: a single
// producer appends records to an unbounded, append-only list, a fixed set
// of job workers each independently apply a per-job transform to every
// record in enqueue order, and a dedicated reclaimer frees each record once
// every worker has observed it.
//
// # Core Concepts
//
//   - Stream[T]: the append-only list, guarded by a head/tail lock and a
//     broadcast condition that wakes workers and the reclaimer when a new
//     node lands.
//   - JobFunc[T]: the per-job transform applied to every record, exactly
//     once, in enqueue order.
//   - The reclaimer: a single background goroutine that advances the head
//     and discards nodes once every registered job has passed them.
//
// The stream is terminated by calling InsertEOS (or Shutdown, which calls
// it for you). The end-of-stream sentinel propagates through every worker
// and the reclaimer, and all goroutines exit cleanly.
//
// # Usage
//
//	stream, err := sbuf.New[Reading](2, 2)
//	stream.RegisterJob(1, printReading)
//	stream.RegisterJob(2, archiveReading)
//	stream.Insert(Reading{ID: 1})
//	stream.Insert(Reading{ID: 2})
//	stream.Shutdown()
//
// # Observability
//
// sbuf reports structured log signals via capitan, counters via metricz,
// spans via tracez, and fires hookz events on reclamation and end of
// stream. See signals.go, options.go, and events.go.
package sbuf
