package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gravadigital/smartpolls/internal/cli"
	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/identity"
	"github.com/gravadigital/smartpolls/internal/logger"
	"github.com/gravadigital/smartpolls/internal/repository"
	"github.com/gravadigital/smartpolls/internal/transport"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	fs := flag.NewFlagSet("pollctl", flag.ContinueOnError)
	apiURL := fs.String("api", cfg.API.BaseURL, "Polls API origin (env POLLS_API_URL)")
	fs.StringVar(&cfg.Voter.Store, "voter-store", cfg.Voter.Store, "Voter ID store: file, memory, sqlite or postgres (env VOTER_STORE)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (env LOG_LEVEL)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return cli.ExitUsage
	}
	cfg.API.BaseURL = config.NormalizeBaseURL(*apiURL)

	logger.Initialize(cfg.LogLevel)
	log := logger.CLI()

	store, closeStore, err := identity.Open(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitFailure
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("Failed to close voter store", "error", err)
		}
	}()

	voter := identity.NewVoter(store)
	client := transport.New(transport.ConfigFrom(cfg))

	voterStore := cfg.Voter.Store
	if cfg.Voter.Store != identity.StoreMemory {
		voterStore += " (" + cfg.Voter.Path + ")"
	}

	app := cli.New(cli.Services{
		Polls:      repository.NewPollRepository(client),
		Results:    repository.NewResultsRepository(client, voter),
		Voter:      voter,
		VoterStore: voterStore,
		APIURL:     client.BaseURL(),
	}, os.Stdout, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Run(ctx, fs.Args())
}
