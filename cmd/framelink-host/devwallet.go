package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/ledgebase/framelink/internal/bridge"
	"github.com/ledgebase/framelink/internal/protocol"
)

// devProver and devSigner stand in for a real wallet during local runs. They
// produce well-formed but unverifiable artifacts.

type devProver struct{}

func (devProver) ProveIdentity(ctx context.Context, challenge string) (protocol.ProofPayload, error) {
	return protocol.ProofPayload{
		Payload:   challenge,
		Signature: randomHex(64),
		Timestamp: time.Now().Unix(),
		Domain:    "localhost",
	}, nil
}

type devSigner struct{}

func (devSigner) Sign(ctx context.Context, messages []protocol.TransactionMessage, validUntil time.Time) (bridge.SignResult, error) {
	hash := randomHex(32)
	return bridge.SignResult{
		Hash:        hash,
		ExplorerURL: "https://tonviewer.com/transaction/" + hash,
	}, nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
