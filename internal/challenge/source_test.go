package challenge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgebase/framelink/internal/testutil/testlog"
)

func TestRemoteSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer partner-api-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"challenge":"cafe0123"}`))
	}))
	defer srv.Close()

	src := RemoteSource{URL: srv.URL, Token: "partner-api-token", Timeout: time.Second}
	challenge, err := src.Challenge(context.Background())
	if err != nil {
		t.Fatalf("remote challenge: %v", err)
	}
	if challenge != "cafe0123" {
		t.Fatalf("unexpected challenge %q", challenge)
	}
}

func TestRemoteSourceRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := RemoteSource{URL: srv.URL, Timeout: time.Second}
	if _, err := src.Challenge(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRemoteSourceRejectsEmptyChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"challenge":""}`))
	}))
	defer srv.Close()

	src := RemoteSource{URL: srv.URL, Timeout: time.Second}
	if _, err := src.Challenge(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestChainSourceFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	codec := NewCodec([]byte("shared-secret"))
	chain := ChainSource{
		Sources: []Source{
			RemoteSource{URL: srv.URL, Timeout: time.Second},
			LocalSource{Codec: codec},
		},
		Log: testlog.Logger(t),
	}

	challenge, err := chain.Challenge(context.Background())
	if err != nil {
		t.Fatalf("chain challenge: %v", err)
	}
	if !codec.Verify(challenge) {
		t.Fatalf("fallback challenge must come from the local codec")
	}
}

func TestChainSourceEmpty(t *testing.T) {
	chain := ChainSource{Log: testlog.Logger(t)}
	if _, err := chain.Challenge(context.Background()); err == nil {
		t.Fatalf("expected error for empty chain")
	}
}
