package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrNotObject        = errors.New("protocol: message is not a JSON object")
	ErrMessageTooLarge  = errors.New("protocol: message too large")
	ErrMissingType      = errors.New("protocol: missing type")
	ErrInvalidType      = errors.New("protocol: type is not a string")
	ErrUnknownKind      = errors.New("protocol: unknown message kind")
	ErrMissingTimestamp = errors.New("protocol: missing timestamp")
	ErrInvalidTimestamp = errors.New("protocol: timestamp is not numeric")
	ErrMissingRequestID = errors.New("protocol: missing requestId")
	ErrInvalidRequestID = errors.New("protocol: requestId is not a string")
	ErrInvalidPayload   = errors.New("protocol: invalid payload")
)

// SchemaError reports which kind and field failed structural validation.
type SchemaError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: kind=%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("protocol: kind=%s field=%s: %s", e.Kind, e.Field, e.Reason)
}

func (e SchemaError) Unwrap() error { return ErrInvalidPayload }
