package event

import (
	"context"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"

	"github.com/dshills/folio/internal/event/topic"
)

// Emitter delivers events synchronously to the subscriptions whose pattern
// matches the event topic. Handlers run in priority order, then in
// subscription order.
//
// An Emitter is safe for concurrent use, but delivery happens on the
// publishing goroutine.
type Emitter struct {
	mu      sync.RWMutex
	subs    []*subscription
	nextSeq uint64

	onPanic PanicHandler
	onError ErrorHandler
}

// NewEmitter creates an emitter.
func NewEmitter(opts ...EmitterOption) *Emitter {
	e := &Emitter{
		onPanic: func(*PanicError) {},
		onError: func(*HandlerError) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers handler for events whose topic matches pattern.
func (e *Emitter) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextSeq++
	sub := &subscription{
		id:       "sub-" + strconv.FormatUint(e.nextSeq, 10),
		pattern:  pattern,
		handler:  handler,
		priority: PriorityNormal,
		seq:      e.nextSeq,
		emitter:  e,
	}
	for _, opt := range opts {
		opt(sub)
	}

	e.subs = append(e.subs, sub)
	slices.SortStableFunc(e.subs, func(a, b *subscription) int {
		if a.priority != b.priority {
			return int(a.priority) - int(b.priority)
		}
		if a.seq < b.seq {
			return -1
		}
		return 1
	})
	return sub, nil
}

// SubscribeFunc registers a function handler.
func (e *Emitter) SubscribeFunc(pattern topic.Topic, fn func(ctx context.Context, event any) error, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return e.Subscribe(pattern, HandlerFunc(fn), opts...)
}

// SubscribePayload registers a handler that receives only the payload of
// Event[T] values. Events with a different payload type are skipped.
func SubscribePayload[T any](e *Emitter, pattern topic.Topic, fn func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return e.Subscribe(pattern, HandlerFunc(func(ctx context.Context, ev any) error {
		typed, ok := ev.(Event[T])
		if !ok {
			return nil
		}
		return fn(ctx, typed.Payload)
	}), opts...)
}

// Publish delivers event to all matching subscriptions.
// Handler errors and panics are reported to the configured hooks and do not
// stop delivery; Publish only fails for events that carry no topic.
func (e *Emitter) Publish(ctx context.Context, event any) error {
	tp, ok := event.(TopicProvider)
	if !ok || tp.EventTopic() == "" {
		return ErrInvalidEvent
	}
	t := tp.EventTopic()

	for _, sub := range e.match(t) {
		if !sub.IsActive() {
			continue
		}
		if sub.once {
			sub.Cancel()
		}
		e.deliver(ctx, sub, t, event)
	}
	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (e *Emitter) SubscriberCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

func (e *Emitter) match(t topic.Topic) []*subscription {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var matched []*subscription
	for _, sub := range e.subs {
		if t.Matches(sub.pattern) {
			matched = append(matched, sub)
		}
	}
	return matched
}

func (e *Emitter) deliver(ctx context.Context, sub *subscription, t topic.Topic, event any) {
	defer func() {
		if r := recover(); r != nil {
			e.onPanic(&PanicError{
				SubscriptionID: sub.id,
				Topic:          t.String(),
				Value:          r,
				Stack:          string(debug.Stack()),
			})
		}
	}()

	if err := sub.handler.Handle(ctx, event); err != nil {
		e.onError(&HandlerError{
			SubscriptionID: sub.id,
			Topic:          t.String(),
			Err:            err,
		})
	}
}

func (e *Emitter) remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.subs = slices.DeleteFunc(e.subs, func(s *subscription) bool {
		return s.id == id
	})
}
