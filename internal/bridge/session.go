package bridge

// LifecycleState describes the widget frame's readiness as the host sees it.
type LifecycleState string

const (
	StateLoading     LifecycleState = "loading"
	StatePendingAuth LifecycleState = "pending_auth"
	StateReady       LifecycleState = "ready"
	StateError       LifecycleState = "error"
)

// Session is the authoritative host-side view of one widget channel. It is
// created on frame-load start and reset on frame reload; only Reduce mutates
// it.
type Session struct {
	Lifecycle            LifecycleState
	RemoteVersion        string
	RemoteCapabilities   []string
	AuthenticatedAddress string
	WalletConnected      bool
	WalletAddress        string
	FrameLoaded          bool
	// PendingProof holds the challenge consumed by the in-flight credentials
	// exchange; cleared once the exchange closes or the wallet disconnects.
	PendingProof string
}

// NewSession returns a session in its initial state.
func NewSession() Session {
	return Session{Lifecycle: StateLoading}
}

// HasCapability reports whether the widget announced name at load.
func (s Session) HasCapability(name string) bool {
	for _, c := range s.RemoteCapabilities {
		if c == name {
			return true
		}
	}
	return false
}

// Event is one input to the session reducer: a validated inbound message
// mapped to its meaning, a correlated reply outcome, or a local wallet event.
type Event interface{ event() }

// EvFrameLoaded corresponds to an inbound load-notification.
type EvFrameLoaded struct {
	Version      string
	Capabilities []string
}

// EvAuthStatus is the correlated reply to an auth-status-query.
type EvAuthStatus struct {
	Authenticated    bool
	MatchesRequested bool
	Address          string
}

// EvAuthStatusTimeout fires when the auth-status-query goes unanswered.
type EvAuthStatusTimeout struct{}

// EvAuthResult is the correlated reply to an auth-credentials-submit.
type EvAuthResult struct {
	Success      bool
	Address      string
	ErrorCode    string
	ErrorMessage string
}

// EvCredentialsTimeout fires when the credentials exchange goes unanswered.
type EvCredentialsTimeout struct{}

// EvRemoteReady corresponds to an inbound ready-notification. READY is only
// ever remote-asserted; auth success alone never implies it.
type EvRemoteReady struct{}

// EvReauthRequested corresponds to an inbound auth-reauth-request.
type EvReauthRequested struct {
	Reason string
}

// EvRemoteError corresponds to an inbound error-notification.
type EvRemoteError struct {
	Code        string
	Message     string
	Recoverable bool
}

// EvWalletConnected is the local wallet-connect event.
type EvWalletConnected struct {
	Address string
}

// EvWalletDisconnected is the local wallet-disconnect event.
type EvWalletDisconnected struct{}

// EvCredentialsIssued records the challenge consumed by the in-flight
// credentials exchange.
type EvCredentialsIssued struct {
	Challenge string
}

// EvForceReady is the explicit manual override to READY.
type EvForceReady struct{}

func (EvFrameLoaded) event()        {}
func (EvAuthStatus) event()         {}
func (EvAuthStatusTimeout) event()  {}
func (EvAuthResult) event()         {}
func (EvCredentialsTimeout) event() {}
func (EvRemoteReady) event()        {}
func (EvReauthRequested) event()    {}
func (EvRemoteError) event()        {}
func (EvWalletConnected) event()    {}
func (EvWalletDisconnected) event() {}
func (EvCredentialsIssued) event()  {}
func (EvForceReady) event()         {}
