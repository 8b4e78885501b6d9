package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/ledgebase/framelink/internal/protocol"
)

// SignResult is what the external signing collaborator returns on success.
type SignResult struct {
	Hash        string
	ExplorerURL string
}

// Signer is the external wallet signing collaborator. Implementations should
// return an error satisfying errors.Is(err, ErrUserCancelled) or exposing
// UserCancelled() when the user declined in the wallet UI.
type Signer interface {
	Sign(ctx context.Context, messages []protocol.TransactionMessage, validUntil time.Time) (SignResult, error)
}

// Prover is the wallet-side collaborator that signs a challenge into an
// identity proof.
type Prover interface {
	ProveIdentity(ctx context.Context, challenge string) (protocol.ProofPayload, error)
}

// userCancelledErr matches external signer error types that flag user
// cancellation without wrapping our sentinel.
type userCancelledErr interface {
	UserCancelled() bool
}

func signCancelled(err error) bool {
	if errors.Is(err, ErrUserCancelled) {
		return true
	}
	var uc userCancelledErr
	if errors.As(err, &uc) {
		return uc.UserCancelled()
	}
	return false
}
