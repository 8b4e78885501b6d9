package bridge

import "errors"

var (
	ErrClosed               = errors.New("bridge: closed")
	ErrTransactionBusy      = errors.New("bridge: transaction already pending")
	ErrNoPendingTransaction = errors.New("bridge: no pending transaction")
	ErrDeadlinePassed       = errors.New("bridge: transaction deadline passed")
	ErrUserCancelled        = errors.New("bridge: user cancelled signing")
	ErrNoWallet             = errors.New("bridge: no wallet connected")
)
