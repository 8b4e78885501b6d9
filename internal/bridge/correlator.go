package bridge

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ledgebase/framelink/internal/protocol"
)

// Reply is what a pending request resolves to: either the matched message or
// a timeout marker. Exactly one Reply is delivered per issued request.
type Reply struct {
	RequestID string
	Kind      protocol.Kind
	TimedOut  bool
	Message   protocol.Message
}

// pendingRequest is one outstanding correlated request. Owned exclusively by
// the Correlator; removed on matching reply or on timeout fire, never both.
type pendingRequest struct {
	id       string
	kind     protocol.Kind
	issuedAt time.Time
	timer    *time.Timer
	deliver  func(Reply)
}

// Correlator tracks in-flight requests by id and enforces per-operation
// timeouts with at-most-once resolution.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
	closed  bool
	now     func() time.Time
	log     zerolog.Logger
}

func NewCorrelator(log zerolog.Logger) *Correlator {
	return &Correlator{
		pending: make(map[string]*pendingRequest),
		now:     time.Now,
		log:     log,
	}
}

// Issue registers a pending request and arms its timeout. deliver is invoked
// exactly once, from either the resolving goroutine or the timer goroutine.
func (c *Correlator) Issue(kind protocol.Kind, timeout time.Duration, deliver func(Reply)) (string, error) {
	id := uuid.NewString()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	req := &pendingRequest{
		id:       id,
		kind:     kind,
		issuedAt: c.now(),
		deliver:  deliver,
	}
	req.timer = time.AfterFunc(timeout, func() { c.expire(id) })
	c.pending[id] = req
	c.mu.Unlock()

	c.log.Debug().Str("request_id", id).Str("kind", string(kind)).Dur("timeout", timeout).Msg("request issued")
	return id, nil
}

// Resolve matches msg against a pending request. It reports false for
// unknown ids, including replies arriving after timeout, which makes
// duplicate delivery a safe no-op.
func (c *Correlator) Resolve(requestID string, msg protocol.Message) bool {
	c.mu.Lock()
	req, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
		req.timer.Stop()
	}
	c.mu.Unlock()
	if !ok {
		return false
	}

	c.log.Debug().Str("request_id", requestID).Str("kind", string(req.kind)).Msg("request resolved")
	req.deliver(Reply{RequestID: requestID, Kind: req.kind, Message: msg})
	return true
}

// expire is the timeout path. It only fires for requests that are still
// pending, so a reply and a timeout can never both deliver.
func (c *Correlator) expire(requestID string) {
	c.mu.Lock()
	req, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	c.log.Warn().Str("request_id", requestID).Str("kind", string(req.kind)).Msg("request timed out")
	req.deliver(Reply{RequestID: requestID, Kind: req.kind, TimedOut: true})
}

// Len reports the number of in-flight requests.
func (c *Correlator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close stops every timer and drops all pending entries without delivering.
func (c *Correlator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, req := range c.pending {
		req.timer.Stop()
		delete(c.pending, id)
	}
}
