package subscriber

import "sync"

// Listener receives the payload emitted for an event.
type Listener func(data interface{})

type Registration struct {
	fn   Listener
	once bool
}

// EventEmitter is a small synchronous event dispatcher keyed by event name.
// Listeners run on the emitting goroutine in registration order.
type EventEmitter struct {
	mu        sync.Mutex
	listeners map[string][]*Registration
}

func NewEventEmitter() *EventEmitter {
	return &EventEmitter{listeners: make(map[string][]*Registration)}
}

// On registers a listener for the event and returns a handle that can be
// passed to Off.
func (e *EventEmitter) On(event string, fn Listener) *Registration {
	return e.register(event, fn, false)
}

// Once registers a listener that is removed after its first invocation.
func (e *EventEmitter) Once(event string, fn Listener) *Registration {
	return e.register(event, fn, true)
}

func (e *EventEmitter) register(event string, fn Listener, once bool) *Registration {
	reg := &Registration{fn: fn, once: once}
	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], reg)
	e.mu.Unlock()
	return reg
}

// Off removes a previously registered listener.
func (e *EventEmitter) Off(event string, reg *Registration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	regs := e.listeners[event]
	for i, r := range regs {
		if r == reg {
			e.listeners[event] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// ListenerCount returns how many listeners are registered for the event.
func (e *EventEmitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

// Emit invokes every listener registered for the event with the payload.
func (e *EventEmitter) Emit(event string, data interface{}) {
	e.mu.Lock()
	regs := e.listeners[event]
	fns := make([]Listener, 0, len(regs))
	remaining := regs[:0:0]
	for _, r := range regs {
		fns = append(fns, r.fn)
		if !r.once {
			remaining = append(remaining, r)
		}
	}
	e.listeners[event] = remaining
	e.mu.Unlock()

	for _, fn := range fns {
		fn(data)
	}
}
