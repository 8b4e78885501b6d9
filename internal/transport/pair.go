package transport

import "sync"

// pairBuffer bounds how many messages queue before a receiver attaches.
const pairBuffer = 64

// Endpoint is one side of an in-process transport pair. Delivery is
// asynchronous, matching the no-ordering, no-backpressure channel the
// protocol is designed against.
type Endpoint struct {
	origin string
	peer   *Endpoint

	mu      sync.Mutex
	handler Handler
	queue   []Inbound
	closed  bool
}

// NewPair returns two connected endpoints. originA and originB are the
// origin strings each side reports for messages arriving from the other.
func NewPair(originA, originB string) (*Endpoint, *Endpoint) {
	a := &Endpoint{origin: originA}
	b := &Endpoint{origin: originB}
	a.peer = b
	b.peer = a
	return a, b
}

// Send hands data to the peer endpoint. targetOrigin "*" always passes;
// otherwise it must name the peer's origin.
func (e *Endpoint) Send(data []byte, targetOrigin string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	if targetOrigin != "*" && targetOrigin != e.peer.origin {
		return ErrOriginMismatch
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	e.peer.deliver(Inbound{Data: buf, Origin: e.origin})
	return nil
}

func (e *Endpoint) deliver(in Inbound) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	h := e.handler
	if h == nil {
		if len(e.queue) < pairBuffer {
			e.queue = append(e.queue, in)
		}
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	go h(in)
}

// Receive attaches the handler and flushes anything queued before it was set.
func (e *Endpoint) Receive(h Handler) {
	e.mu.Lock()
	e.handler = h
	backlog := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, in := range backlog {
		go h(in)
	}
}

// Origin returns the origin string this endpoint stamps on its messages.
func (e *Endpoint) Origin() string { return e.origin }

func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.handler = nil
	e.queue = nil
	return nil
}
