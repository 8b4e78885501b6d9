package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrNoSource     = errors.New("challenge: no source configured")
	ErrRemoteStatus = errors.New("challenge: unexpected remote status")
	ErrRemoteEmpty  = errors.New("challenge: remote returned empty challenge")
)

// Source produces a challenge payload for the next credentials exchange. The
// two interchangeable strategies are local HMAC issuance and a remote
// issuance endpoint.
type Source interface {
	Challenge(ctx context.Context) (string, error)
}

// LocalSource issues challenges with the shared-secret codec.
type LocalSource struct {
	Codec Codec
}

func (s LocalSource) Challenge(ctx context.Context) (string, error) {
	return s.Codec.Issue()
}

// RemoteSource fetches a challenge from the partner backend. The fetch is
// bounded by Timeout so a collaborator outage never stalls the protocol.
// Token, when set, is presented as a bearer credential.
type RemoteSource struct {
	URL     string
	Token   string
	Client  *http.Client
	Timeout time.Duration
}

type remoteChallengeResponse struct {
	Challenge string `json:"challenge"`
}

func (s RemoteSource) Challenge(ctx context.Context) (string, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("challenge: build remote request: %w", err)
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("challenge: fetch remote: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrRemoteStatus, resp.StatusCode)
	}
	var body remoteChallengeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("challenge: decode remote response: %w", err)
	}
	if body.Challenge == "" {
		return "", ErrRemoteEmpty
	}
	return body.Challenge, nil
}

// ChainSource tries each source in order and returns the first success, so a
// remote outage falls back to local issuance.
type ChainSource struct {
	Sources []Source
	Log     zerolog.Logger
}

func (s ChainSource) Challenge(ctx context.Context) (string, error) {
	var lastErr error = ErrNoSource
	for _, src := range s.Sources {
		challenge, err := src.Challenge(ctx)
		if err == nil {
			return challenge, nil
		}
		s.Log.Debug().Err(err).Msg("challenge source failed, trying next")
		lastErr = err
	}
	return "", lastErr
}
