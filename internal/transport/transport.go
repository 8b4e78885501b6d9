// Package transport carries opaque message bytes between the two execution
// contexts. The contract mirrors a postMessage channel: fire-and-forget
// sends, unordered delivery, and an origin string attached to every inbound
// message.
package transport

import "errors"

var (
	ErrClosed         = errors.New("transport: closed")
	ErrOriginMismatch = errors.New("transport: target origin mismatch")
)

// Inbound is one received message and the origin that sent it. Origin MUST
// be checked by the receiver before any further processing.
type Inbound struct {
	Data   []byte
	Origin string
}

// Handler consumes inbound messages.
type Handler func(Inbound)

// Transport is the channel contract the protocol core consumes. Send gives
// no delivery confirmation and implementations give no ordering guarantees.
type Transport interface {
	Send(data []byte, targetOrigin string) error
	Receive(h Handler)
	Close() error
}
