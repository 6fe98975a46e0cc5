package sbuf

import (
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Option configures a Stream at construction time. Follows the teacher's
// functional-option convention (see e.g. Backoff.WithClock), applied once
// up front in New rather than mutated after the stream starts running.
type Option[T any] func(*Stream[T])

// WithName labels the stream for logging and tracing. Defaults to "sbuf".
func WithName[T any](name string) Option[T] {
	return func(s *Stream[T]) { s.name = name }
}

// WithClock injects a clockz.Clock, letting tests control time deterministically
// instead of depending on wall-clock sleeps.
func WithClock[T any](clock clockz.Clock) Option[T] {
	return func(s *Stream[T]) { s.clock = clock }
}

// WithMetrics injects a metricz.Registry, letting callers share one registry
// across several streams instead of each allocating its own.
func WithMetrics[T any](registry *metricz.Registry) Option[T] {
	return func(s *Stream[T]) { s.metrics = registry }
}

// WithTracer injects a tracez.Tracer.
func WithTracer[T any](tracer *tracez.Tracer) Option[T] {
	return func(s *Stream[T]) { s.tracer = tracer }
}

// WithHooks injects a hookz.Hooks[StreamEvent], letting callers register
// OnReclaim/OnEOS handlers before the stream is constructed.
func WithHooks[T any](hooks *hookz.Hooks[StreamEvent]) Option[T] {
	return func(s *Stream[T]) { s.hooks = hooks }
}
