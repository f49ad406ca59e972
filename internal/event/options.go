package event

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithPanicHandler sets the handler invoked for recovered handler panics.
func WithPanicHandler(h PanicHandler) EmitterOption {
	return func(e *Emitter) {
		if h != nil {
			e.onPanic = h
		}
	}
}

// WithErrorHandler sets the handler invoked when a handler returns an error.
func WithErrorHandler(h ErrorHandler) EmitterOption {
	return func(e *Emitter) {
		if h != nil {
			e.onError = h
		}
	}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*subscription)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *subscription) {
		s.priority = p
	}
}

// WithOnce makes the subscription cancel itself after the first delivery.
func WithOnce() SubscriptionOption {
	return func(s *subscription) {
		s.once = true
	}
}
