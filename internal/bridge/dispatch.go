package bridge

import "github.com/ledgebase/framelink/internal/protocol"

// Outbound is a message the reducer wants sent. Expect marks messages that
// open a request/response pair and must be registered with the correlator.
type Outbound struct {
	Kind    protocol.Kind
	Payload protocol.Payload
	// ReplyTo echoes the requestId of the inbound request this closes.
	ReplyTo string
	Expect  bool
}

// Effect is a side effect the shell performs on the reducer's behalf.
type Effect interface{ effect() }

// EffectIssueCredentials asks the shell to obtain a challenge, have the
// wallet prove identity, and submit fresh credentials.
type EffectIssueCredentials struct{}

// EffectPersistIdentity caches the authenticated address (best-effort).
type EffectPersistIdentity struct {
	Address string
}

// EffectClearIdentity drops the cached identity (best-effort).
type EffectClearIdentity struct{}

func (EffectIssueCredentials) effect() {}
func (EffectPersistIdentity) effect()  {}
func (EffectClearIdentity) effect()    {}

// Reduce applies one event to the session and returns the new session plus
// the outbound messages and effects it implies. It is pure: no I/O, no
// timers, no clock. Transitions are guarded by current state, never by
// assumed message order.
func Reduce(sess Session, cfg Config, ev Event) (Session, []Outbound, []Effect) {
	switch ev := ev.(type) {
	case EvFrameLoaded:
		return reduceFrameLoaded(sess, cfg, ev)

	case EvAuthStatus:
		if ev.Authenticated && ev.MatchesRequested {
			// Already converged; no credential message.
			return sess, nil, nil
		}
		sess.Lifecycle = StatePendingAuth
		if sess.WalletConnected {
			return sess, nil, []Effect{EffectIssueCredentials{}}
		}
		return sess, nil, nil

	case EvAuthStatusTimeout:
		// No answer is treated like not-authenticated: the widget must defer
		// to a fresh exchange rather than its own persisted session.
		sess.Lifecycle = StatePendingAuth
		if sess.WalletConnected {
			return sess, nil, []Effect{EffectIssueCredentials{}}
		}
		return sess, nil, nil

	case EvAuthResult:
		sess.PendingProof = ""
		if ev.Success {
			// READY is signaled by the widget's own ready-notification, not
			// derived from auth success.
			sess.AuthenticatedAddress = ev.Address
			return sess, nil, []Effect{EffectPersistIdentity{Address: ev.Address}}
		}
		if cfg.AllowImmediateReady {
			sess.Lifecycle = StateReady
			return sess, nil, nil
		}
		sess.Lifecycle = StateError
		return sess, nil, nil

	case EvCredentialsTimeout:
		sess.PendingProof = ""
		if cfg.AllowImmediateReady {
			// Deliberate leniency: a widget that never answers the exchange
			// is allowed through in degraded mode.
			sess.Lifecycle = StateReady
			return sess, nil, nil
		}
		// Recoverable: stay pending, the integrator may retry.
		sess.Lifecycle = StatePendingAuth
		return sess, nil, nil

	case EvRemoteReady:
		sess.Lifecycle = StateReady
		return sess, nil, nil

	case EvReauthRequested:
		if sess.WalletConnected {
			return sess, nil, []Effect{EffectIssueCredentials{}}
		}
		// The host is the authority on wallet connectivity; tell the widget
		// the session is gone instead of pretending credentials exist.
		out := Outbound{
			Kind:    protocol.KindDisconnectNotification,
			Payload: &protocol.DisconnectNotification{Reason: protocol.DisconnectSessionExpired},
		}
		return sess, []Outbound{out}, nil

	case EvRemoteError:
		if !ev.Recoverable {
			sess.Lifecycle = StateError
		}
		return sess, nil, nil

	case EvWalletConnected:
		changed := sess.WalletConnected && sess.WalletAddress != ev.Address
		sess.WalletConnected = true
		sess.WalletAddress = ev.Address
		if !sess.FrameLoaded {
			return sess, nil, nil
		}
		var outs []Outbound
		if changed {
			sess.AuthenticatedAddress = ""
			sess.PendingProof = ""
			outs = append(outs, Outbound{
				Kind:    protocol.KindDisconnectNotification,
				Payload: &protocol.DisconnectNotification{Reason: protocol.DisconnectWalletChanged},
			})
		}
		if !cfg.SkipAuth {
			outs = append(outs, Outbound{
				Kind:    protocol.KindAuthStatusQuery,
				Payload: &protocol.AuthStatusQuery{Address: ev.Address},
				Expect:  true,
			})
		}
		return sess, outs, nil

	case EvWalletDisconnected:
		wasLoaded := sess.FrameLoaded
		sess.WalletConnected = false
		sess.WalletAddress = ""
		sess.AuthenticatedAddress = ""
		sess.PendingProof = ""
		effects := []Effect{EffectClearIdentity{}}
		if !wasLoaded {
			return sess, nil, effects
		}
		out := Outbound{
			Kind:    protocol.KindDisconnectNotification,
			Payload: &protocol.DisconnectNotification{Reason: protocol.DisconnectUserInitiated},
		}
		return sess, []Outbound{out}, effects

	case EvCredentialsIssued:
		sess.PendingProof = ev.Challenge
		return sess, nil, nil

	case EvForceReady:
		sess.Lifecycle = StateReady
		return sess, nil, nil
	}

	return sess, nil, nil
}

func reduceFrameLoaded(sess Session, cfg Config, ev EvFrameLoaded) (Session, []Outbound, []Effect) {
	// A reload resets everything the frame previously told us.
	next := NewSession()
	next.FrameLoaded = true
	next.RemoteVersion = ev.Version
	next.RemoteCapabilities = append([]string(nil), ev.Capabilities...)
	next.WalletConnected = sess.WalletConnected
	next.WalletAddress = sess.WalletAddress

	var outs []Outbound
	if cfg.Style.Theme != "" {
		style := cfg.Style
		outs = append(outs, Outbound{Kind: protocol.KindStyleUpdate, Payload: &style})
	}
	if cfg.Logo.LogoURL != "" {
		logo := cfg.Logo
		outs = append(outs, Outbound{Kind: protocol.KindLogoUpdate, Payload: &logo})
	}
	if cfg.SkipAuth {
		return next, outs, nil
	}
	outs = append(outs, Outbound{
		Kind:    protocol.KindAuthStatusQuery,
		Payload: &protocol.AuthStatusQuery{Address: next.WalletAddress},
		Expect:  true,
	})
	return next, outs, nil
}

// normalizeReauthReason maps unknown widget reasons onto session_invalid so
// downstream handling stays closed over the known set.
func normalizeReauthReason(reason string) string {
	switch reason {
	case protocol.ReauthJWTExpired, protocol.ReauthSessionInvalid, protocol.ReauthStorageUnavailable:
		return reason
	default:
		return protocol.ReauthSessionInvalid
	}
}
