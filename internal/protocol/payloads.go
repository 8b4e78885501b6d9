package protocol

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Payload is one of the per-kind payload shapes. Validate enforces the
// structural contract for inbound data; unknown extra fields are ignored by
// the JSON layer.
type Payload interface {
	Validate() error
}

// Disconnect reasons.
const (
	DisconnectUserInitiated  = "user_initiated"
	DisconnectSessionExpired = "session_expired"
	DisconnectWalletChanged  = "wallet_changed"
)

// Re-auth reasons the widget may send.
const (
	ReauthJWTExpired         = "jwt_expired"
	ReauthSessionInvalid     = "session_invalid"
	ReauthStorageUnavailable = "storage_unavailable"
)

// Transaction result error codes.
const (
	TxErrUserRejected = "USER_REJECTED"
	TxErrFailed       = "TRANSACTION_FAILED"
	TxErrBusy         = "TRANSACTION_BUSY"
	TxErrTimeout      = "TRANSACTION_TIMEOUT"
)

// Auth result error codes.
const (
	AuthErrInvalidProof    = "INVALID_PROOF"
	AuthErrExpiredPayload  = "EXPIRED_PAYLOAD"
	AuthErrAddressMismatch = "ADDRESS_MISMATCH"
	AuthErrUnknownPartner  = "UNKNOWN_PARTNER"
	AuthErrTimeout         = "AUTH_TIMEOUT"
)

// LoadNotification announces the widget frame has booted.
type LoadNotification struct {
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

func (p *LoadNotification) Validate() error {
	if strings.TrimSpace(p.Version) == "" {
		return SchemaError{Kind: KindLoadNotification, Field: "version", Reason: "missing required field"}
	}
	return nil
}

// StyleUpdate carries the host theme for the widget to apply.
type StyleUpdate struct {
	Theme   string            `json:"theme"`
	Palette map[string]string `json:"palette,omitempty"`
}

func (p *StyleUpdate) Validate() error {
	if strings.TrimSpace(p.Theme) == "" {
		return SchemaError{Kind: KindStyleUpdate, Field: "theme", Reason: "missing required field"}
	}
	return nil
}

// LogoUpdate carries the partner logo the widget should render.
type LogoUpdate struct {
	LogoURL string `json:"logoUrl"`
}

func (p *LogoUpdate) Validate() error {
	if strings.TrimSpace(p.LogoURL) == "" {
		return SchemaError{Kind: KindLogoUpdate, Field: "logoUrl", Reason: "missing required field"}
	}
	return nil
}

// AuthStatusQuery asks the widget whether it considers itself authenticated
// for the given wallet address.
type AuthStatusQuery struct {
	Address string `json:"address,omitempty"`
}

func (p *AuthStatusQuery) Validate() error { return nil }

// AuthStatusReply answers an AuthStatusQuery.
type AuthStatusReply struct {
	Authenticated    bool   `json:"authenticated"`
	MatchesRequested bool   `json:"matchesRequested"`
	Address          string `json:"address,omitempty"`
}

func (p *AuthStatusReply) Validate() error { return nil }

// ProofPayload is the signed, time-bounded challenge proving control of a
// wallet identity.
type ProofPayload struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	Domain    string `json:"domain,omitempty"`
	StateInit string `json:"stateInit,omitempty"`
}

// AuthCredentialsSubmit hands the widget a fresh identity proof to verify
// against the external verifier.
type AuthCredentialsSubmit struct {
	Address   string       `json:"address"`
	PartnerID string       `json:"partnerId"`
	Proof     ProofPayload `json:"proof"`
}

func (p *AuthCredentialsSubmit) Validate() error {
	if strings.TrimSpace(p.Address) == "" {
		return SchemaError{Kind: KindAuthCredentialsSubmit, Field: "address", Reason: "missing required field"}
	}
	if strings.TrimSpace(p.Proof.Payload) == "" {
		return SchemaError{Kind: KindAuthCredentialsSubmit, Field: "proof.payload", Reason: "missing required field"}
	}
	if strings.TrimSpace(p.Proof.Signature) == "" {
		return SchemaError{Kind: KindAuthCredentialsSubmit, Field: "proof.signature", Reason: "missing required field"}
	}
	return nil
}

// AuthResult closes a credentials exchange.
type AuthResult struct {
	Success      bool   `json:"success"`
	Address      string `json:"address,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (p *AuthResult) Validate() error {
	if !p.Success && strings.TrimSpace(p.ErrorCode) == "" {
		return SchemaError{Kind: KindAuthResult, Field: "errorCode", Reason: "required when success is false"}
	}
	return nil
}

// AuthReauthRequest asks the host for fresh credentials.
type AuthReauthRequest struct {
	Reason string `json:"reason"`
}

func (p *AuthReauthRequest) Validate() error {
	if strings.TrimSpace(p.Reason) == "" {
		return SchemaError{Kind: KindAuthReauthRequest, Field: "reason", Reason: "missing required field"}
	}
	return nil
}

// DisconnectNotification tells the widget the wallet is gone.
type DisconnectNotification struct {
	Reason string `json:"reason"`
}

func (p *DisconnectNotification) Validate() error {
	if strings.TrimSpace(p.Reason) == "" {
		return SchemaError{Kind: KindDisconnectNotification, Field: "reason", Reason: "missing required field"}
	}
	return nil
}

// Amount is a repayment amount record.
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Ticker   string          `json:"ticker"`
	Decimals int32           `json:"decimals"`
}

// TransactionMessage is one pre-built destination message of a repayment.
type TransactionMessage struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
	Payload string `json:"payload,omitempty"`
}

// TransactionRequest asks the host wallet to sign and send a repayment.
type TransactionRequest struct {
	LoanID     int64                `json:"loanId"`
	NFTIndex   int64                `json:"nftIndex"`
	Amount     Amount               `json:"amount"`
	Messages   []TransactionMessage `json:"messages"`
	ValidUntil int64                `json:"validUntil"`
	Context    map[string]string    `json:"context,omitempty"`
}

func (p *TransactionRequest) Validate() error {
	if p.LoanID <= 0 {
		return SchemaError{Kind: KindTransactionRequest, Field: "loanId", Reason: "missing or non-positive"}
	}
	if strings.TrimSpace(p.Amount.Ticker) == "" {
		return SchemaError{Kind: KindTransactionRequest, Field: "amount.ticker", Reason: "missing required field"}
	}
	if p.Amount.Value.Sign() <= 0 {
		return SchemaError{Kind: KindTransactionRequest, Field: "amount.value", Reason: "must be positive"}
	}
	if len(p.Messages) == 0 {
		return SchemaError{Kind: KindTransactionRequest, Field: "messages", Reason: "must be non-empty"}
	}
	for i, m := range p.Messages {
		if strings.TrimSpace(m.Address) == "" {
			return SchemaError{Kind: KindTransactionRequest, Field: "messages", Reason: "missing address at index " + strconv.Itoa(i)}
		}
		if strings.TrimSpace(m.Amount) == "" {
			return SchemaError{Kind: KindTransactionRequest, Field: "messages", Reason: "missing amount at index " + strconv.Itoa(i)}
		}
	}
	return nil
}

// TransactionResult closes a transaction delegation.
type TransactionResult struct {
	Success       bool   `json:"success"`
	Hash          string `json:"hash,omitempty"`
	ExplorerURL   string `json:"explorerUrl,omitempty"`
	ErrorCode     string `json:"errorCode,omitempty"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	UserCancelled bool   `json:"userCancelled"`
}

func (p *TransactionResult) Validate() error {
	if p.Success && strings.TrimSpace(p.Hash) == "" {
		return SchemaError{Kind: KindTransactionResult, Field: "hash", Reason: "required when success is true"}
	}
	if !p.Success && strings.TrimSpace(p.ErrorCode) == "" {
		return SchemaError{Kind: KindTransactionResult, Field: "errorCode", Reason: "required when success is false"}
	}
	return nil
}

// ErrorNotification surfaces a protocol-level failure to the other side.
type ErrorNotification struct {
	Code        string `json:"code"`
	Message     string `json:"message,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

func (p *ErrorNotification) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return SchemaError{Kind: KindErrorNotification, Field: "code", Reason: "missing required field"}
	}
	return nil
}

// payloadFactories enumerates every known kind. Kinds mapping to a nil
// payload carry none on the wire.
var payloadFactories = map[Kind]func() Payload{
	KindLoadNotification:       func() Payload { return new(LoadNotification) },
	KindStyleUpdate:            func() Payload { return new(StyleUpdate) },
	KindLogoUpdate:             func() Payload { return new(LogoUpdate) },
	KindAuthStatusQuery:        func() Payload { return new(AuthStatusQuery) },
	KindAuthStatusReply:        func() Payload { return new(AuthStatusReply) },
	KindAuthCredentialsSubmit:  func() Payload { return new(AuthCredentialsSubmit) },
	KindAuthResult:             func() Payload { return new(AuthResult) },
	KindAuthReauthRequest:      func() Payload { return new(AuthReauthRequest) },
	KindReadyNotification:      func() Payload { return nil },
	KindDisconnectNotification: func() Payload { return new(DisconnectNotification) },
	KindTransactionRequest:     func() Payload { return new(TransactionRequest) },
	KindTransactionResult:      func() Payload { return new(TransactionResult) },
	KindErrorNotification:      func() Payload { return new(ErrorNotification) },
}
