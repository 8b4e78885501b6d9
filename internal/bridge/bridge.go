package bridge

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgebase/framelink/internal/challenge"
	"github.com/ledgebase/framelink/internal/events"
	"github.com/ledgebase/framelink/internal/protocol"
	"github.com/ledgebase/framelink/internal/store"
	"github.com/ledgebase/framelink/internal/transport"
)

// collaboratorTimeout bounds best-effort calls (store, events) so they never
// hold up message handling.
const collaboratorTimeout = 2 * time.Second

// Deps are the collaborators the shell drives. Transport is required;
// Identities and Events are optional and failures there are soft.
type Deps struct {
	Transport  transport.Transport
	Challenges challenge.Source
	Prover     Prover
	Signer     Signer
	Identities store.Store
	Events     events.Publisher
}

// Hooks surface protocol moments to the integrator. All hooks are invoked
// outside the session lock and may be nil.
type Hooks struct {
	// OnTransactionRequest surfaces a pending delegation to the confirmation
	// surface. The integrator answers via ConfirmTransaction or
	// RejectTransaction.
	OnTransactionRequest func(PendingTransaction)
	OnStateChange        func(from, to LifecycleState)
	OnRemoteError        func(code, message string, recoverable bool)
}

// Bridge is the host-side shell: it gates origins, decodes inbound bytes,
// correlates replies, feeds the reducer, and performs the resulting sends
// and effects.
type Bridge struct {
	cfg   Config
	deps  Deps
	hooks Hooks
	gate  *OriginGate
	corr  *Correlator
	tx    *Handshake
	log   zerolog.Logger

	mu   sync.Mutex
	sess Session
}

func New(cfg Config, deps Deps, hooks Hooks, log zerolog.Logger) (*Bridge, error) {
	if deps.Transport == nil {
		return nil, errors.New("bridge: transport is required")
	}
	cfg = cfg.withDefaults()
	b := &Bridge{
		cfg:   cfg,
		deps:  deps,
		hooks: hooks,
		gate:  NewOriginGate(cfg.AllowedOrigins),
		corr:  NewCorrelator(log),
		log:   log,
		sess:  NewSession(),
	}
	b.tx = NewHandshake(deps.Signer, cfg.TransactionTimeout, b.transactionExpired, log)
	return b, nil
}

// Start attaches the bridge to its transport.
func (b *Bridge) Start() {
	b.deps.Transport.Receive(b.handleInbound)
}

// Close tears the channel down. Pending correlations are dropped without
// delivery.
func (b *Bridge) Close() error {
	b.corr.Close()
	return b.deps.Transport.Close()
}

// Session returns a copy of the current session state.
func (b *Bridge) Session() Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sess
}

// WalletConnected feeds the local wallet-connect event.
func (b *Bridge) WalletConnected(address string) {
	b.apply(EvWalletConnected{Address: address})
}

// WalletDisconnected feeds the local wallet-disconnect event.
func (b *Bridge) WalletDisconnected() {
	b.apply(EvWalletDisconnected{})
}

// ForceReady is the explicit manual override to READY.
func (b *Bridge) ForceReady() {
	b.apply(EvForceReady{})
}

// LoadCachedIdentity returns the best-effort remembered wallet address.
func (b *Bridge) LoadCachedIdentity(ctx context.Context) (string, error) {
	if b.deps.Identities == nil {
		return "", store.ErrUnavailable
	}
	return b.deps.Identities.LoadIdentity(ctx, b.cfg.PartnerID)
}

// PendingTransaction exposes the in-flight delegation, if any.
func (b *Bridge) PendingTransaction() (PendingTransaction, bool) {
	return b.tx.Pending()
}

// ConfirmTransaction signs and closes the pending delegation. The returned
// error is ErrDeadlinePassed when the confirm happened after the request's
// validity window; the result has still been sent.
func (b *Bridge) ConfirmTransaction(ctx context.Context) (TransactionOutcome, error) {
	if b.deps.Signer == nil {
		return TransactionOutcome{}, errors.New("bridge: no signer configured")
	}
	outcome, err := b.tx.Confirm(ctx)
	if err != nil {
		return TransactionOutcome{}, err
	}
	b.finishTransaction(outcome)
	if outcome.DeadlinePassed {
		return outcome, ErrDeadlinePassed
	}
	return outcome, nil
}

// RejectTransaction closes the pending delegation without signing.
func (b *Bridge) RejectTransaction(code string) (TransactionOutcome, error) {
	outcome, err := b.tx.Reject(code)
	if err != nil {
		return TransactionOutcome{}, err
	}
	b.finishTransaction(outcome)
	return outcome, nil
}

// handleInbound is the trust boundary: origin gate, then the decode choke
// point, then correlation or unsolicited dispatch.
func (b *Bridge) handleInbound(in transport.Inbound) {
	if !b.gate.Allow(in.Origin) {
		// Silent toward the remote: no error message leaks gate contents.
		b.log.Debug().Str("origin", in.Origin).Msg("origin rejected")
		return
	}

	msg, err := protocol.Decode(in.Data)
	if err != nil {
		b.log.Warn().Err(err).Str("origin", in.Origin).Msg("malformed message dropped")
		var schemaErr protocol.SchemaError
		if errors.As(err, &schemaErr) {
			// The envelope itself was sound, so answering is safe.
			b.send(protocol.KindErrorNotification, &protocol.ErrorNotification{
				Code:        "MALFORMED_PAYLOAD",
				Message:     schemaErr.Error(),
				Recoverable: true,
			}, "")
		}
		return
	}

	switch msg.Kind {
	case protocol.KindAuthStatusReply, protocol.KindAuthResult, protocol.KindTransactionResult:
		if !b.corr.Resolve(msg.RequestID, msg) {
			// Late or duplicate reply: idempotent no-op.
			b.log.Debug().Str("request_id", msg.RequestID).Str("kind", string(msg.Kind)).Msg("reply with no pending request ignored")
		}
		return
	}

	b.dispatchUnsolicited(msg)
}

func (b *Bridge) dispatchUnsolicited(msg protocol.Message) {
	switch msg.Kind {
	case protocol.KindLoadNotification:
		p := msg.Payload.(*protocol.LoadNotification)
		b.apply(EvFrameLoaded{Version: p.Version, Capabilities: p.Capabilities})

	case protocol.KindReadyNotification:
		b.apply(EvRemoteReady{})

	case protocol.KindAuthReauthRequest:
		p := msg.Payload.(*protocol.AuthReauthRequest)
		b.apply(EvReauthRequested{Reason: normalizeReauthReason(p.Reason)})

	case protocol.KindErrorNotification:
		p := msg.Payload.(*protocol.ErrorNotification)
		if b.hooks.OnRemoteError != nil {
			b.hooks.OnRemoteError(p.Code, p.Message, p.Recoverable)
		}
		b.apply(EvRemoteError{Code: p.Code, Message: p.Message, Recoverable: p.Recoverable})

	case protocol.KindTransactionRequest:
		p := msg.Payload.(*protocol.TransactionRequest)
		b.handleTransactionRequest(msg.RequestID, *p)

	default:
		// Host-to-widget kinds arriving here travel the wrong direction.
		b.log.Debug().Str("kind", string(msg.Kind)).Msg("unexpected inbound kind dropped")
	}
}

func (b *Bridge) handleTransactionRequest(requestID string, req protocol.TransactionRequest) {
	if err := b.tx.Begin(requestID, req); err != nil {
		// Busy: the first request's result obligation stays intact; the
		// newcomer gets an immediate rejection.
		b.send(protocol.KindTransactionResult, &protocol.TransactionResult{
			ErrorCode:    protocol.TxErrBusy,
			ErrorMessage: "another transaction is pending",
		}, requestID)
		return
	}
	if b.hooks.OnTransactionRequest != nil {
		pending, _ := b.tx.Pending()
		b.hooks.OnTransactionRequest(pending)
	}
}

// apply runs the reducer under the session lock, then performs outbounds and
// effects outside it.
func (b *Bridge) apply(ev Event) {
	b.mu.Lock()
	prev := b.sess
	next, outs, effects := Reduce(prev, b.cfg, ev)
	b.sess = next
	b.mu.Unlock()

	if prev.Lifecycle != next.Lifecycle {
		b.stateChanged(prev.Lifecycle, next.Lifecycle)
	}
	for _, out := range outs {
		b.sendOutbound(out)
	}
	for _, eff := range effects {
		b.perform(eff)
	}
}

func (b *Bridge) stateChanged(from, to LifecycleState) {
	b.log.Info().Str("from", string(from)).Str("to", string(to)).Msg("session state changed")
	if b.hooks.OnStateChange != nil {
		b.hooks.OnStateChange(from, to)
	}
	if b.deps.Events != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
			defer cancel()
			ev := events.LifecycleEvent{PartnerID: b.cfg.PartnerID, From: string(from), To: string(to), At: time.Now()}
			if err := b.deps.Events.PublishLifecycle(ctx, ev); err != nil {
				b.log.Debug().Err(err).Msg("lifecycle publish failed")
			}
		}()
	}
}

func (b *Bridge) sendOutbound(out Outbound) {
	if !out.Expect {
		b.send(out.Kind, out.Payload, out.ReplyTo)
		return
	}
	id, err := b.corr.Issue(out.Kind, b.timeoutFor(out.Kind), b.replyHandler(out.Kind))
	if err != nil {
		b.log.Warn().Err(err).Str("kind", string(out.Kind)).Msg("issue failed")
		return
	}
	b.send(out.Kind, out.Payload, id)
}

func (b *Bridge) timeoutFor(kind protocol.Kind) time.Duration {
	switch kind {
	case protocol.KindAuthStatusQuery:
		return b.cfg.AuthStatusTimeout
	case protocol.KindAuthCredentialsSubmit:
		return b.cfg.CredentialTimeout
	default:
		return b.cfg.TransactionTimeout
	}
}

// replyHandler maps a correlated reply (or its timeout) back onto a session
// event.
func (b *Bridge) replyHandler(kind protocol.Kind) func(Reply) {
	return func(reply Reply) {
		switch kind {
		case protocol.KindAuthStatusQuery:
			if reply.TimedOut || reply.Message.Kind != protocol.KindAuthStatusReply {
				b.apply(EvAuthStatusTimeout{})
				return
			}
			p := reply.Message.Payload.(*protocol.AuthStatusReply)
			b.apply(EvAuthStatus{Authenticated: p.Authenticated, MatchesRequested: p.MatchesRequested, Address: p.Address})

		case protocol.KindAuthCredentialsSubmit:
			if reply.TimedOut || reply.Message.Kind != protocol.KindAuthResult {
				b.apply(EvCredentialsTimeout{})
				return
			}
			p := reply.Message.Payload.(*protocol.AuthResult)
			b.apply(EvAuthResult{Success: p.Success, Address: p.Address, ErrorCode: p.ErrorCode, ErrorMessage: p.ErrorMessage})
		}
	}
}

func (b *Bridge) send(kind protocol.Kind, payload protocol.Payload, requestID string) {
	data, err := protocol.Encode(protocol.Message{Kind: kind, RequestID: requestID, Payload: payload}, time.Now())
	if err != nil {
		b.log.Error().Err(err).Str("kind", string(kind)).Msg("encode failed")
		return
	}
	if err := b.deps.Transport.Send(data, b.cfg.TargetOrigin); err != nil {
		b.log.Warn().Err(err).Str("kind", string(kind)).Msg("send failed")
	}
}

func (b *Bridge) perform(eff Effect) {
	switch eff := eff.(type) {
	case EffectIssueCredentials:
		go b.issueCredentials()

	case EffectPersistIdentity:
		if b.deps.Identities == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
			defer cancel()
			if err := b.deps.Identities.SaveIdentity(ctx, b.cfg.PartnerID, eff.Address, b.cfg.IdentityTTL); err != nil {
				b.log.Debug().Err(err).Msg("identity save skipped")
			}
		}()

	case EffectClearIdentity:
		if b.deps.Identities == nil {
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
			defer cancel()
			if err := b.deps.Identities.ClearIdentity(ctx, b.cfg.PartnerID); err != nil {
				b.log.Debug().Err(err).Msg("identity clear skipped")
			}
		}()
	}
}

// issueCredentials obtains a challenge, has the wallet prove identity, and
// submits the proof as a correlated credentials exchange.
func (b *Bridge) issueCredentials() {
	if b.deps.Challenges == nil || b.deps.Prover == nil {
		b.log.Error().Msg("credentials requested without challenge source or prover")
		return
	}
	sess := b.Session()
	if !sess.WalletConnected || sess.WalletAddress == "" {
		b.log.Debug().Err(ErrNoWallet).Msg("credentials skipped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.CredentialTimeout)
	defer cancel()

	ch, err := b.deps.Challenges.Challenge(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("challenge issuance failed")
		b.apply(EvCredentialsTimeout{})
		return
	}
	b.apply(EvCredentialsIssued{Challenge: ch})

	proof, err := b.deps.Prover.ProveIdentity(ctx, ch)
	if err != nil {
		b.log.Warn().Err(err).Msg("identity proof failed")
		b.apply(EvAuthResult{Success: false, ErrorCode: protocol.AuthErrInvalidProof, ErrorMessage: err.Error()})
		return
	}

	b.sendOutbound(Outbound{
		Kind: protocol.KindAuthCredentialsSubmit,
		Payload: &protocol.AuthCredentialsSubmit{
			Address:   sess.WalletAddress,
			PartnerID: b.cfg.PartnerID,
			Proof:     proof,
		},
		Expect: true,
	})
}

// transactionExpired is the handshake's timeout path: the widget still gets
// a terminal result.
func (b *Bridge) transactionExpired(outcome TransactionOutcome) {
	b.finishTransaction(outcome)
}

func (b *Bridge) finishTransaction(outcome TransactionOutcome) {
	b.send(protocol.KindTransactionResult, &outcome.Result, outcome.RequestID)
	if b.deps.Events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTimeout)
		defer cancel()
		ev := events.TransactionEvent{
			PartnerID:     b.cfg.PartnerID,
			RequestID:     outcome.RequestID,
			Success:       outcome.Result.Success,
			ErrorCode:     outcome.Result.ErrorCode,
			Hash:          outcome.Result.Hash,
			UserCancelled: outcome.Result.UserCancelled,
			At:            time.Now(),
		}
		if err := b.deps.Events.PublishTransaction(ctx, ev); err != nil {
			b.log.Debug().Err(err).Msg("transaction publish failed")
		}
	}()
}
