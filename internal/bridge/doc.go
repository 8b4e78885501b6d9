// Package bridge owns the host-side protocol core: origin gating, request
// correlation, the session lifecycle state machine, and the transaction
// delegation handshake.
//
// State transitions live in a pure reducer (Reduce); the Bridge shell around
// it performs the actual sends, timers, and collaborator calls.
package bridge
