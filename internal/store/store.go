// Package store is the optional, best-effort identity cache. The protocol
// must work with no store at all, so callers treat every error here as a
// soft outcome.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("store: identity not found")
	ErrUnavailable = errors.New("store: unavailable")
)

// Store persists the last authenticated wallet address per partner.
type Store interface {
	SaveIdentity(ctx context.Context, partnerID, address string, ttl time.Duration) error
	LoadIdentity(ctx context.Context, partnerID string) (string, error)
	ClearIdentity(ctx context.Context, partnerID string) error
}
