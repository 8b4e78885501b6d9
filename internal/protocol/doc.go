// Package protocol owns the wire contract between the host page and the
// embedded widget frame.
//
// Ownership boundary:
// - envelope shape and message kinds
// - typed payloads and their validation
// - the single decode choke point for untrusted inbound bytes
package protocol
