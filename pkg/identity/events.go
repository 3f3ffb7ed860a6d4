package identity

import "sync"

// eventHub fans auth-state events out to registered handlers. Dispatch is
// sequential: a handler sees the SIGNED_OUT for one identity before the
// SIGNED_IN for the next, which the session store relies on to clear cached
// organization state between identities.
type eventHub struct {
	mu       sync.Mutex
	handlers map[int64]Handler
	nextID   int64
	order    []int64
}

func newEventHub() *eventHub {
	return &eventHub{handlers: make(map[int64]Handler)}
}

func (h *eventHub) subscribe(fn Handler) Unsubscribe {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.handlers[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.handlers, id)
	}
}

func (h *eventHub) dispatch(ev Event) {
	h.mu.Lock()
	fns := make([]Handler, 0, len(h.handlers))
	for _, id := range h.order {
		if fn, ok := h.handlers[id]; ok {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
