package challengehttp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ledgebase/framelink/internal/auth"
	"github.com/ledgebase/framelink/internal/challenge"
	"github.com/ledgebase/framelink/internal/testutil/testlog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, challenge.Codec) {
	codec := challenge.NewCodec([]byte("challengehttp-test-secret"))
	return NewServer(codec, nil, testlog.Logger(t)), codec
}

func TestChallengeEndpoint(t *testing.T) {
	srv, codec := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/challenge", nil)
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
	var body struct {
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !codec.Verify(body.Challenge) {
		t.Fatalf("issued challenge does not verify: %q", body.Challenge)
	}
}

func TestVerifyEndpoint(t *testing.T) {
	srv, codec := newTestServer(t)
	valid, err := codec.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	foreign, err := challenge.NewCodec([]byte("some-other-secret")).Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := []struct {
		name       string
		payload    string
		wantValid  bool
		wantReason string
	}{
		{name: "fresh payload", payload: valid, wantValid: true},
		{name: "wrong secret", payload: foreign, wantValid: false, wantReason: "EXPIRED_PAYLOAD"},
		{name: "garbage payload", payload: "zz", wantValid: false, wantReason: "EXPIRED_PAYLOAD"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := fmt.Sprintf(`{
				"address": "EQwallet",
				"partnerId": "partner-1",
				"proof": {"payload": %q, "signature": "sig", "timestamp": 1700000000}
			}`, tc.payload)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/proof/verify", bytes.NewReader([]byte(body)))
			req.Header.Set("Content-Type", "application/json")
			srv.Router().ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status=%d, want 200", w.Code)
			}
			var resp VerifyResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Valid != tc.wantValid || resp.Reason != tc.wantReason {
				t.Fatalf("resp=%+v, want valid=%v reason=%q", resp, tc.wantValid, tc.wantReason)
			}
		})
	}
}

func TestVerifyEndpointBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, body := range map[string]string{
		"not json":        `nope`,
		"missing address": `{"partnerId": "partner-1", "proof": {"payload": "p", "signature": "s"}}`,
		"missing proof":   `{"address": "EQwallet", "partnerId": "partner-1"}`,
		"missing payload": `{"address": "EQwallet", "partnerId": "partner-1", "proof": {"signature": "s"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/proof/verify", bytes.NewReader([]byte(body)))
			req.Header.Set("Content-Type", "application/json")
			srv.Router().ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status=%d, want 400", w.Code)
			}
		})
	}
}

func TestTokenGuard(t *testing.T) {
	codec := challenge.NewCodec([]byte("challengehttp-test-secret"))
	srv := NewServer(codec, auth.StaticToken{Token: "partner-api-token"}, testlog.Logger(t))
	router := srv.Router()

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "wrong token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic partner-api-token", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer partner-api-token", want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/challenge", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d", w.Code, tc.want)
			}
		})
	}

	// Health stays open for probes.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health status=%d, want 200", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", w.Code)
	}
}
