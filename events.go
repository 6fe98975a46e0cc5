package sbuf

import (
	"context"

	"github.com/zoobzio/hookz"
)

// Hook event keys, following the teacher's convention of one hookz.Key per
// observable lifecycle moment (see e.g. BackoffEventAttempt).
const (
	EventReclaim = hookz.Key("stream.reclaim")
	EventEOS     = hookz.Key("stream.eos")
)

// StreamEvent is delivered to OnReclaim and OnEOS handlers. Fields not
// relevant to a particular event are left at their zero value; Reclaim
// events populate Sequence and Pending, EOS populates only Sequence.
type StreamEvent struct {
	Sequence int // insertion order of the node this event concerns
	Pending  int // pending job count at the moment of reclamation (always 0)
}

// OnReclaim registers a handler invoked after the reclaimer frees a node.
// Handlers run synchronously on the reclaimer goroutine; a slow or blocking
// handler delays every subsequent reclamation.
func (s *Stream[T]) OnReclaim(handler func(context.Context, StreamEvent) error) error {
	_, err := s.hooks.Hook(EventReclaim, handler)
	return err
}

// OnEOS registers a handler invoked once the reclaimer observes the
// end-of-stream node, before it joins the worker goroutines.
func (s *Stream[T]) OnEOS(handler func(context.Context, StreamEvent) error) error {
	_, err := s.hooks.Hook(EventEOS, handler)
	return err
}
