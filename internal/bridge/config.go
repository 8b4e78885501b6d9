package bridge

import (
	"time"

	"github.com/ledgebase/framelink/internal/protocol"
)

// Config defines protocol policy for one host/widget channel. Timeouts are
// integrator-tunable defaults, not wire-mandated values.
type Config struct {
	PartnerID      string
	AllowedOrigins []string
	TargetOrigin   string

	// SkipAuth bypasses the auth-status query after frame load.
	SkipAuth bool
	// AllowImmediateReady forces READY on credential failure or timeout. It
	// masks real authentication failures and must stay off in production.
	AllowImmediateReady bool

	AuthStatusTimeout  time.Duration
	CredentialTimeout  time.Duration
	TransactionTimeout time.Duration

	// IdentityTTL bounds the best-effort identity cache entry.
	IdentityTTL time.Duration

	Style protocol.StyleUpdate
	Logo  protocol.LogoUpdate
}

// DefaultConfig returns the recommended per-operation budget.
func DefaultConfig() Config {
	return Config{
		TargetOrigin:       "*",
		AuthStatusTimeout:  5 * time.Second,
		CredentialTimeout:  30 * time.Second,
		TransactionTimeout: 60 * time.Second,
		IdentityTTL:        24 * time.Hour,
	}
}

// withDefaults fills any unset timeout from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.AuthStatusTimeout <= 0 {
		c.AuthStatusTimeout = def.AuthStatusTimeout
	}
	if c.CredentialTimeout <= 0 {
		c.CredentialTimeout = def.CredentialTimeout
	}
	if c.TransactionTimeout <= 0 {
		c.TransactionTimeout = def.TransactionTimeout
	}
	if c.IdentityTTL <= 0 {
		c.IdentityTTL = def.IdentityTTL
	}
	if c.TargetOrigin == "" {
		c.TargetOrigin = def.TargetOrigin
	}
	return c
}
