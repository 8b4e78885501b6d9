// Package config loads the TOML files the framelink binaries run from.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// HostConfig drives one host-side bridge instance.
type HostConfig struct {
	PartnerID      string   `toml:"partner_id"`
	WidgetURL      string   `toml:"widget_url"`
	TargetOrigin   string   `toml:"target_origin"`
	AllowedOrigins []string `toml:"allowed_origins"`

	// Secret is the shared challenge secret for local issuance. ChallengeURL,
	// when set, is tried first and Secret becomes the fallback; ChallengeToken
	// is the bearer credential the remote endpoint expects, if any.
	Secret         string `toml:"secret"`
	ChallengeURL   string `toml:"challenge_url"`
	ChallengeToken string `toml:"challenge_token"`

	SkipAuth            bool `toml:"skip_auth"`
	AllowImmediateReady bool `toml:"allow_immediate_ready"`

	AuthStatusTimeoutMS  int64 `toml:"auth_status_timeout_ms"`
	CredentialTimeoutMS  int64 `toml:"credential_timeout_ms"`
	TransactionTimeoutMS int64 `toml:"transaction_timeout_ms"`

	RedisAddr string `toml:"redis_addr"`

	Theme   string `toml:"theme"`
	LogoURL string `toml:"logo_url"`
}

// ChallengedConfig drives the partner challenge/verify service. APIToken,
// when set, gates the v1 routes behind a bearer token.
type ChallengedConfig struct {
	Addr     string `toml:"addr"`
	Secret   string `toml:"secret"`
	APIToken string `toml:"api_token"`
}

func LoadHostConfig(path string) (HostConfig, error) {
	var cfg HostConfig
	if err := loadToml(path, &cfg); err != nil {
		return HostConfig{}, err
	}
	if cfg.TargetOrigin == "" {
		cfg.TargetOrigin = "*"
	}
	if cfg.Theme == "" {
		cfg.Theme = "light"
	}
	if err := ValidateHostConfig(cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

func ValidateHostConfig(cfg HostConfig) error {
	if cfg.PartnerID == "" {
		return fmt.Errorf("%w: missing partner_id", ErrInvalidConfig)
	}
	if cfg.WidgetURL == "" {
		return fmt.Errorf("%w: missing widget_url", ErrInvalidConfig)
	}
	if len(cfg.AllowedOrigins) == 0 {
		return fmt.Errorf("%w: missing allowed_origins", ErrInvalidConfig)
	}
	if cfg.Secret == "" && cfg.ChallengeURL == "" {
		return fmt.Errorf("%w: need secret or challenge_url", ErrInvalidConfig)
	}
	return nil
}

func LoadChallengedConfig(path string) (ChallengedConfig, error) {
	var cfg ChallengedConfig
	if err := loadToml(path, &cfg); err != nil {
		return ChallengedConfig{}, err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9400"
	}
	if cfg.Secret == "" {
		return ChallengedConfig{}, fmt.Errorf("%w: missing secret", ErrInvalidConfig)
	}
	return cfg, nil
}

// AuthStatusTimeout returns the configured budget, zero meaning "use the
// bridge default".
func (c HostConfig) AuthStatusTimeout() time.Duration {
	return time.Duration(c.AuthStatusTimeoutMS) * time.Millisecond
}

func (c HostConfig) CredentialTimeout() time.Duration {
	return time.Duration(c.CredentialTimeoutMS) * time.Millisecond
}

func (c HostConfig) TransactionTimeout() time.Duration {
	return time.Duration(c.TransactionTimeoutMS) * time.Millisecond
}

func loadToml(path string, out any) error {
	if _, err := toml.DecodeFile(path, out); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}
