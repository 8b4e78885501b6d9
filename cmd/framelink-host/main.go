package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/ledgebase/framelink/internal/bridge"
	"github.com/ledgebase/framelink/internal/challenge"
	"github.com/ledgebase/framelink/internal/config"
	"github.com/ledgebase/framelink/internal/events"
	"github.com/ledgebase/framelink/internal/logging"
	"github.com/ledgebase/framelink/internal/protocol"
	"github.com/ledgebase/framelink/internal/store"
	"github.com/ledgebase/framelink/internal/transport"
)

func main() {
	configPath := flag.String("config", "framelink.toml", "path to host config")
	walletAddress := flag.String("wallet", "", "wallet address to connect at startup")
	flag.Parse()

	log := logging.New("framelink-host")

	cfg, err := config.LoadHostConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framelink-host: %v\n", err)
		os.Exit(1)
	}

	var identities store.Store = store.NewMemoryStore()
	if cfg.RedisAddr != "" {
		identities = store.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubsub.Close()

	var sources []challenge.Source
	if cfg.ChallengeURL != "" {
		sources = append(sources, challenge.RemoteSource{URL: cfg.ChallengeURL, Token: cfg.ChallengeToken})
	}
	if cfg.Secret != "" {
		sources = append(sources, challenge.LocalSource{Codec: challenge.NewCodec([]byte(cfg.Secret))})
	}

	peerOrigin := cfg.AllowedOrigins[0]
	conn, err := transport.DialWS(cfg.WidgetURL, peerOrigin, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framelink-host: dial widget: %v\n", err)
		os.Exit(1)
	}

	bridgeCfg := bridge.Config{
		PartnerID:           cfg.PartnerID,
		AllowedOrigins:      cfg.AllowedOrigins,
		TargetOrigin:        cfg.TargetOrigin,
		SkipAuth:            cfg.SkipAuth,
		AllowImmediateReady: cfg.AllowImmediateReady,
		AuthStatusTimeout:   cfg.AuthStatusTimeout(),
		CredentialTimeout:   cfg.CredentialTimeout(),
		TransactionTimeout:  cfg.TransactionTimeout(),
		Style:               protocol.StyleUpdate{Theme: cfg.Theme},
		Logo:                protocol.LogoUpdate{LogoURL: cfg.LogoURL},
	}

	var b *bridge.Bridge
	hooks := bridge.Hooks{
		OnStateChange: func(from, to bridge.LifecycleState) {
			log.Info().Str("from", string(from)).Str("to", string(to)).Msg("lifecycle")
		},
		OnRemoteError: func(code, message string, recoverable bool) {
			log.Warn().Str("code", code).Bool("recoverable", recoverable).Msg(message)
		},
		OnTransactionRequest: func(pending bridge.PendingTransaction) {
			// Dev harness behavior: approve immediately with the dev signer.
			log.Info().Str("request_id", pending.RequestID).Int64("loan_id", pending.Request.LoanID).Msg("auto-confirming transaction")
			go func() {
				if _, err := b.ConfirmTransaction(context.Background()); err != nil {
					log.Warn().Err(err).Msg("confirm failed")
				}
			}()
		},
	}

	b, err = bridge.New(bridgeCfg, bridge.Deps{
		Transport:  conn,
		Challenges: challenge.ChainSource{Sources: sources, Log: log},
		Prover:     devProver{},
		Signer:     devSigner{},
		Identities: identities,
		Events:     events.NewWatermillPublisher(pubsub),
	}, hooks, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framelink-host: %v\n", err)
		os.Exit(1)
	}

	b.Start()
	if *walletAddress != "" {
		b.WalletConnected(*walletAddress)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	if err := b.Close(); err != nil {
		log.Warn().Err(err).Msg("close failed")
	}
}
