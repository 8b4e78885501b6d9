// Package events publishes protocol lifecycle and transaction outcomes for
// other host components to observe. Publishing is fire-and-forget from the
// core's point of view.
package events

import (
	"context"
	"time"
)

// LifecycleEvent records one session state transition.
type LifecycleEvent struct {
	PartnerID string    `json:"partner_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	At        time.Time `json:"at"`
}

// TransactionEvent records one closed transaction delegation.
type TransactionEvent struct {
	PartnerID     string    `json:"partner_id"`
	RequestID     string    `json:"request_id"`
	Success       bool      `json:"success"`
	ErrorCode     string    `json:"error_code,omitempty"`
	Hash          string    `json:"hash,omitempty"`
	UserCancelled bool      `json:"user_cancelled"`
	At            time.Time `json:"at"`
}

// Publisher is the event sink port.
type Publisher interface {
	PublishLifecycle(ctx context.Context, ev LifecycleEvent) error
	PublishTransaction(ctx context.Context, ev TransactionEvent) error
}
