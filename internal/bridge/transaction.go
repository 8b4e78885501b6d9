package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgebase/framelink/internal/protocol"
)

// PendingTransaction is the single in-flight repayment delegation.
type PendingTransaction struct {
	RequestID  string
	Request    protocol.TransactionRequest
	ReceivedAt time.Time
}

// TransactionOutcome pairs the result payload with the request it closes and
// whether the confirm happened past the request's validity deadline.
type TransactionOutcome struct {
	RequestID      string
	Result         protocol.TransactionResult
	DeadlinePassed bool
}

// Handshake runs the request -> confirm/reject -> result protocol with an
// at-most-one-in-flight invariant. Every accepted request produces exactly
// one result: via confirm, reject, or the expiry timer.
type Handshake struct {
	mu      sync.Mutex
	pending *PendingTransaction
	// confirming holds the slot claimed while a confirm's signature is in
	// flight; the slot frees only once that confirm's outcome exists.
	confirming bool
	timer      *time.Timer

	signer  Signer
	timeout time.Duration
	now     func() time.Time
	// onExpire delivers the timeout result for a request nobody acted on.
	onExpire func(TransactionOutcome)
	log      zerolog.Logger
}

func NewHandshake(signer Signer, timeout time.Duration, onExpire func(TransactionOutcome), log zerolog.Logger) *Handshake {
	return &Handshake{
		signer:   signer,
		timeout:  timeout,
		now:      time.Now,
		onExpire: onExpire,
		log:      log,
	}
}

// Begin claims the pending slot for requestID. It returns ErrTransactionBusy
// while another delegation is in flight; the first request's result
// obligation is never displaced.
func (h *Handshake) Begin(requestID string, req protocol.TransactionRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending != nil || h.confirming {
		return ErrTransactionBusy
	}
	h.pending = &PendingTransaction{
		RequestID:  requestID,
		Request:    req,
		ReceivedAt: h.now(),
	}
	if h.timeout > 0 {
		h.timer = time.AfterFunc(h.timeout, func() { h.expire(requestID) })
	}
	h.log.Info().Str("request_id", requestID).Int64("loan_id", req.LoanID).Msg("transaction delegation pending")
	return nil
}

// Pending returns a copy of the in-flight delegation, if any.
func (h *Handshake) Pending() (PendingTransaction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return PendingTransaction{}, false
	}
	return *h.pending, true
}

// Confirm attempts the signature via the external signer and closes the
// delegation. The slot stays claimed until the outcome is produced, so a
// transaction-request arriving mid-signature is still busy-rejected. A
// confirm arriving after validUntil still proceeds; the outcome flags
// DeadlinePassed so the caller can warn.
func (h *Handshake) Confirm(ctx context.Context) (TransactionOutcome, error) {
	pending, ok := h.claim()
	if !ok {
		return TransactionOutcome{}, ErrNoPendingTransaction
	}
	defer h.release()

	outcome := TransactionOutcome{RequestID: pending.RequestID}
	validUntil := time.Unix(pending.Request.ValidUntil, 0)
	if pending.Request.ValidUntil > 0 && h.now().After(validUntil) {
		outcome.DeadlinePassed = true
		h.log.Warn().Str("request_id", pending.RequestID).Msg("confirm after validity deadline")
	}

	signed, err := h.signer.Sign(ctx, pending.Request.Messages, validUntil)
	if err != nil {
		if signCancelled(err) {
			outcome.Result = protocol.TransactionResult{
				ErrorCode:     protocol.TxErrUserRejected,
				ErrorMessage:  err.Error(),
				UserCancelled: true,
			}
			return outcome, nil
		}
		outcome.Result = protocol.TransactionResult{
			ErrorCode:    protocol.TxErrFailed,
			ErrorMessage: err.Error(),
		}
		return outcome, nil
	}

	outcome.Result = protocol.TransactionResult{
		Success:     true,
		Hash:        signed.Hash,
		ExplorerURL: signed.ExplorerURL,
	}
	return outcome, nil
}

// Reject closes the delegation without attempting a signature. code defaults
// to USER_REJECTED.
func (h *Handshake) Reject(code string) (TransactionOutcome, error) {
	pending, ok := h.take()
	if !ok {
		return TransactionOutcome{}, ErrNoPendingTransaction
	}
	if code == "" {
		code = protocol.TxErrUserRejected
	}
	return TransactionOutcome{
		RequestID: pending.RequestID,
		Result: protocol.TransactionResult{
			ErrorCode:     code,
			UserCancelled: true,
		},
	}, nil
}

// claim takes the pending delegation for a confirm, disarming its timer but
// keeping the slot occupied until release.
func (h *Handshake) claim() (PendingTransaction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil || h.confirming {
		return PendingTransaction{}, false
	}
	pending := *h.pending
	h.pending = nil
	h.confirming = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	return pending, true
}

// release frees the slot once a confirm's outcome exists.
func (h *Handshake) release() {
	h.mu.Lock()
	h.confirming = false
	h.mu.Unlock()
}

// take removes and returns the pending delegation, disarming its timer. A
// delegation mid-confirm is not takeable.
func (h *Handshake) take() (PendingTransaction, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil || h.confirming {
		return PendingTransaction{}, false
	}
	pending := *h.pending
	h.pending = nil
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	return pending, true
}

// expire fires when neither confirm nor reject arrived in time. Guarded by
// the request id so a slot reused by a later request cannot be expired by a
// stale timer.
func (h *Handshake) expire(requestID string) {
	h.mu.Lock()
	if h.pending == nil || h.pending.RequestID != requestID {
		h.mu.Unlock()
		return
	}
	h.pending = nil
	h.timer = nil
	h.mu.Unlock()

	h.log.Warn().Str("request_id", requestID).Msg("transaction delegation timed out")
	if h.onExpire != nil {
		h.onExpire(TransactionOutcome{
			RequestID: requestID,
			Result: protocol.TransactionResult{
				ErrorCode:    protocol.TxErrTimeout,
				ErrorMessage: "no confirmation before timeout",
			},
		})
	}
}
