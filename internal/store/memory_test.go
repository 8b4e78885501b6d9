package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.LoadIdentity(ctx, "partner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load before save err=%v, want ErrNotFound", err)
	}

	if err := s.SaveIdentity(ctx, "partner-1", "EQwallet", time.Hour); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	addr, err := s.LoadIdentity(ctx, "partner-1")
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if addr != "EQwallet" {
		t.Fatalf("address=%q, want EQwallet", addr)
	}

	// Partners are isolated.
	if _, err := s.LoadIdentity(ctx, "partner-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-partner load err=%v, want ErrNotFound", err)
	}

	if err := s.ClearIdentity(ctx, "partner-1"); err != nil {
		t.Fatalf("ClearIdentity: %v", err)
	}
	if _, err := s.LoadIdentity(ctx, "partner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load after clear err=%v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	if err := s.SaveIdentity(context.Background(), "partner-1", "EQwallet", time.Minute); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}

	now = now.Add(30 * time.Second)
	if _, err := s.LoadIdentity(context.Background(), "partner-1"); err != nil {
		t.Fatalf("load inside ttl: %v", err)
	}

	now = now.Add(31 * time.Second)
	if _, err := s.LoadIdentity(context.Background(), "partner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("load past ttl err=%v, want ErrNotFound", err)
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.SaveIdentity(ctx, "partner-1", "EQold", time.Hour); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	if err := s.SaveIdentity(ctx, "partner-1", "EQnew", time.Hour); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	addr, err := s.LoadIdentity(ctx, "partner-1")
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if addr != "EQnew" {
		t.Fatalf("address=%q, want EQnew", addr)
	}
}
