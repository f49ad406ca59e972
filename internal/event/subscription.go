package event

import (
	"sync/atomic"

	"github.com/dshills/folio/internal/event/topic"
)

// Subscription represents an active event subscription.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() topic.Topic

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Pause temporarily stops event delivery to this subscription.
	Pause()

	// Resume restarts event delivery after a pause.
	Resume()

	// Cancel permanently cancels the subscription.
	Cancel()
}

type subscription struct {
	id       string
	pattern  topic.Topic
	handler  Handler
	priority Priority
	once     bool
	seq      uint64

	paused    atomic.Bool
	cancelled atomic.Bool

	emitter *Emitter
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Topic() topic.Topic {
	return s.pattern
}

func (s *subscription) IsActive() bool {
	return !s.cancelled.Load() && !s.paused.Load()
}

func (s *subscription) Pause() {
	s.paused.Store(true)
}

func (s *subscription) Resume() {
	s.paused.Store(false)
}

func (s *subscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}
	s.emitter.remove(s.id)
}
