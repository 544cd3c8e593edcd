package circuitbreaker

// ComposeStateChangeHooks fans a transition out to several hooks in order.
// Delivery stays synchronous relative to the transition.
func ComposeStateChangeHooks(hooks ...StateChangeHook) StateChangeHook {
	return func(from, to State, cb *CircuitBreaker) {
		for _, hook := range hooks {
			if hook != nil {
				hook(from, to, cb)
			}
		}
	}
}

// ComposeRejectHooks fans a rejection out to several hooks in order.
func ComposeRejectHooks(hooks ...RejectHook) RejectHook {
	return func(cb *CircuitBreaker) {
		for _, hook := range hooks {
			if hook != nil {
				hook(cb)
			}
		}
	}
}
