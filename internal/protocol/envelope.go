package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind identifies one of the thirteen wire message kinds.
type Kind string

const (
	KindLoadNotification       Kind = "load-notification"
	KindStyleUpdate            Kind = "style-update"
	KindLogoUpdate             Kind = "logo-update"
	KindAuthStatusQuery        Kind = "auth-status-query"
	KindAuthStatusReply        Kind = "auth-status-reply"
	KindAuthCredentialsSubmit  Kind = "auth-credentials-submit"
	KindAuthResult             Kind = "auth-result"
	KindAuthReauthRequest      Kind = "auth-reauth-request"
	KindReadyNotification      Kind = "ready-notification"
	KindDisconnectNotification Kind = "disconnect-notification"
	KindTransactionRequest     Kind = "transaction-request"
	KindTransactionResult      Kind = "transaction-result"
	KindErrorNotification      Kind = "error-notification"
)

// MaxMessageSize caps raw inbound messages before any parsing happens.
const MaxMessageSize = 64 * 1024

// correlated lists the kinds that open or close a request/response pair and
// therefore must carry a requestId.
var correlated = map[Kind]bool{
	KindAuthStatusQuery:       true,
	KindAuthStatusReply:       true,
	KindAuthCredentialsSubmit: true,
	KindAuthResult:            true,
	KindTransactionRequest:    true,
	KindTransactionResult:     true,
}

// Correlated reports whether k opens or closes a request/response pair.
func Correlated(k Kind) bool { return correlated[k] }

// Envelope is the JSON wire shape common to every message.
type Envelope struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Message is a validated inbound or outbound message. Payload is nil for
// kinds that carry none.
type Message struct {
	Kind      Kind
	RequestID string
	Timestamp int64
	Payload   Payload
}

// wireEnvelope defers every field so Decode can distinguish missing from
// mistyped before trusting anything.
type wireEnvelope struct {
	Type      json.RawMessage `json:"type"`
	RequestID json.RawMessage `json:"requestId"`
	Timestamp json.RawMessage `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode is the single choke point for untrusted inbound bytes. It returns a
// validated Message or an error; it never panics on malformed input.
func Decode(raw []byte) (Message, error) {
	if len(raw) > MaxMessageSize {
		return Message{}, ErrMessageTooLarge
	}
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrNotObject, err)
	}

	if len(env.Type) == 0 {
		return Message{}, ErrMissingType
	}
	var typ string
	if err := json.Unmarshal(env.Type, &typ); err != nil {
		return Message{}, ErrInvalidType
	}
	kind := Kind(typ)
	if _, ok := payloadFactories[kind]; !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, typ)
	}

	if len(env.Timestamp) == 0 {
		return Message{}, ErrMissingTimestamp
	}
	var ts float64
	if err := json.Unmarshal(env.Timestamp, &ts); err != nil {
		return Message{}, ErrInvalidTimestamp
	}

	msg := Message{Kind: kind, Timestamp: int64(ts)}

	if Correlated(kind) {
		if len(env.RequestID) == 0 {
			return Message{}, fmt.Errorf("%w: kind=%s", ErrMissingRequestID, kind)
		}
		if err := json.Unmarshal(env.RequestID, &msg.RequestID); err != nil {
			return Message{}, ErrInvalidRequestID
		}
		if msg.RequestID == "" {
			return Message{}, fmt.Errorf("%w: kind=%s", ErrMissingRequestID, kind)
		}
	}

	payload, err := decodePayload(kind, env.Payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = payload
	return msg, nil
}

// Encode serializes an outbound message, stamping the envelope timestamp from
// the supplied clock.
func Encode(msg Message, now time.Time) ([]byte, error) {
	env := Envelope{
		Type:      string(msg.Kind),
		RequestID: msg.RequestID,
		Timestamp: now.UnixMilli(),
	}
	if msg.Timestamp != 0 {
		env.Timestamp = msg.Timestamp
	}
	if msg.Payload != nil {
		body, err := json.Marshal(msg.Payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s: %w", msg.Kind, err)
		}
		env.Payload = body
	}
	return json.Marshal(env)
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	payload := payloadFactories[kind]()
	if payload == nil {
		// Payload-less kind; any payload bytes are ignored for forward
		// compatibility.
		return nil, nil
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, payload); err != nil {
			return nil, SchemaError{Kind: kind, Reason: fmt.Sprintf("malformed payload: %v", err)}
		}
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}
