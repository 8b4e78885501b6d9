package challenge

import (
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"
)

func fixedCodec(secret string, at time.Time) Codec {
	codec := NewCodec([]byte(secret))
	codec.Now = func() time.Time { return at }
	return codec
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	codec := fixedCodec("shared-secret", now)

	payload, err := codec.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(payload) != payloadSize*2 {
		t.Fatalf("unexpected payload length %d", len(payload))
	}
	if !codec.Verify(payload) {
		t.Fatalf("fresh payload must verify")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload, err := fixedCodec("secret-a", now).Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if fixedCodec("secret-b", now).Verify(payload) {
		t.Fatalf("payload issued under another secret must not verify")
	}
}

func TestVerifyRejectsShortPayload(t *testing.T) {
	codec := fixedCodec("shared-secret", time.Unix(1700000000, 0))
	payload, _ := codec.Issue()
	cases := map[string]string{
		"empty":     "",
		"not hex":   "zz",
		"way short": payload[:2],
		"31 bytes":  payload[:len(payload)-2],
		"33 bytes":  payload + "ab",
	}
	for name, raw := range cases {
		if codec.Verify(raw) {
			t.Fatalf("%s payload %q must not verify", name, raw)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	codec := fixedCodec("shared-secret", issued)
	payload, _ := codec.Issue()

	late := fixedCodec("shared-secret", issued.Add(codec.ttl()+time.Second))
	if late.Verify(payload) {
		t.Fatalf("expired payload must not verify")
	}
}

func TestVerifyRejectsBeyondMaxWindow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	codec := fixedCodec("shared-secret", now)
	codec.TTL = time.Hour // beyond DefaultMaxWindow
	payload, _ := codec.Issue()

	checker := fixedCodec("shared-secret", now)
	if checker.Verify(payload) {
		t.Fatalf("payload expiring beyond the max window must not verify")
	}
}

func TestVerifyRejectsTamperedTail(t *testing.T) {
	now := time.Unix(1700000000, 0)
	codec := fixedCodec("shared-secret", now)
	payload, _ := codec.Issue()

	raw, _ := hex.DecodeString(payload)
	raw[len(raw)-1] ^= 0x01
	if codec.Verify(hex.EncodeToString(raw)) {
		t.Fatalf("tampered MAC must not verify")
	}
}

func TestVerifyRejectsTamperedExpiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	codec := fixedCodec("shared-secret", now)
	payload, _ := codec.Issue()

	raw, _ := hex.DecodeString(payload)
	// Shift the expiry forward without recomputing the MAC.
	expiry := binary.BigEndian.Uint32(raw[:4])
	binary.BigEndian.PutUint32(raw[:4], expiry+60)
	if codec.Verify(hex.EncodeToString(raw)) {
		t.Fatalf("tampered expiry must not verify")
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	codec := Codec{}
	if _, err := codec.Issue(); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if codec.Verify("00") {
		t.Fatalf("verify with empty secret must fail")
	}
}
