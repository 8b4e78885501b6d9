package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ledgebase/framelink/internal/auth"
	"github.com/ledgebase/framelink/internal/challenge"
	"github.com/ledgebase/framelink/internal/challengehttp"
	"github.com/ledgebase/framelink/internal/config"
	"github.com/ledgebase/framelink/internal/logging"
)

func main() {
	configPath := flag.String("config", "challenged.toml", "path to service config")
	flag.Parse()

	log := logging.New("challenged")

	cfg, err := config.LoadChallengedConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "challenged: %v\n", err)
		os.Exit(1)
	}

	codec := challenge.NewCodec([]byte(cfg.Secret))
	var tokens auth.Validator
	if cfg.APIToken != "" {
		tokens = auth.StaticToken{Token: cfg.APIToken}
	}
	srv := challengehttp.NewServer(codec, tokens, log)

	log.Info().Str("addr", cfg.Addr).Msg("challenge service listening")
	if err := srv.Router().Run(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "challenged: %v\n", err)
		os.Exit(1)
	}
}
