// Package challenge issues and verifies the time-bounded proof challenge the
// widget embeds in its identity proof.
package challenge

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"
)

const (
	expirySize  = 4
	macSize     = 28
	payloadSize = expirySize + macSize

	// DefaultTTL keeps issued challenges inside the 5-30 minute policy band.
	DefaultTTL = 10 * time.Minute

	// DefaultMaxWindow bounds how far in the future a presented expiration
	// may sit before the payload is rejected outright.
	DefaultMaxWindow = 30 * time.Minute
)

var ErrEmptySecret = errors.New("challenge: empty secret")

// Codec builds and checks the fixed 32-byte challenge layout: a big-endian
// expiration (seconds) followed by a truncated HMAC-SHA256 over those bytes.
type Codec struct {
	Secret    []byte
	TTL       time.Duration
	MaxWindow time.Duration
	Now       func() time.Time
}

func NewCodec(secret []byte) Codec {
	return Codec{Secret: secret, TTL: DefaultTTL, MaxWindow: DefaultMaxWindow}
}

func (c Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Codec) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultTTL
}

func (c Codec) maxWindow() time.Duration {
	if c.MaxWindow > 0 {
		return c.MaxWindow
	}
	return DefaultMaxWindow
}

// Issue returns a hex-encoded 32-byte challenge expiring TTL from now.
func (c Codec) Issue() (string, error) {
	if len(c.Secret) == 0 {
		return "", ErrEmptySecret
	}
	expiry := c.now().Add(c.ttl()).Unix()
	var buf [payloadSize]byte
	binary.BigEndian.PutUint32(buf[:expirySize], uint32(expiry))
	copy(buf[expirySize:], c.mac(buf[:expirySize]))
	return hex.EncodeToString(buf[:]), nil
}

// Verify reports whether the hex payload decodes to exactly 32 bytes, is
// unexpired, sits within the max future window, and carries a matching MAC.
// The MAC comparison is constant-time.
func (c Codec) Verify(payload string) bool {
	if len(c.Secret) == 0 {
		return false
	}
	raw, err := hex.DecodeString(payload)
	if err != nil || len(raw) != payloadSize {
		return false
	}
	expiry := time.Unix(int64(binary.BigEndian.Uint32(raw[:expirySize])), 0)
	now := c.now()
	if !expiry.After(now) {
		return false
	}
	if expiry.After(now.Add(c.maxWindow())) {
		return false
	}
	return subtle.ConstantTimeCompare(c.mac(raw[:expirySize]), raw[expirySize:]) == 1
}

func (c Codec) mac(expiry []byte) []byte {
	h := hmac.New(sha256.New, c.Secret)
	h.Write(expiry)
	return h.Sum(nil)[:macSize]
}
