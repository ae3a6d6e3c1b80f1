package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tourmaster/tourctl/internal/api"
	"github.com/tourmaster/tourctl/internal/auth"
	"github.com/tourmaster/tourctl/internal/backoff"
	"github.com/tourmaster/tourctl/internal/config"
	"github.com/tourmaster/tourctl/internal/logging"
	"github.com/tourmaster/tourctl/internal/ui"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "tourctl",
		Short: "Command-line client for the Tour Master booking backend",
		Long: `tourctl talks to the Tour Master REST backend: log in as customer or
admin, browse tour packages and destinations, manage banners, schedules and
enquiries, and export whole collections as JSONL.

Sessions are kept alive transparently: expired access tokens are refreshed
once per failure and the original call is replayed. When the refresh token
itself is rejected, stored credentials are wiped and you are asked to log in
again.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	config.SetupFlags(rootCmd)

	rootCmd.AddCommand(
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newPackagesCmd(),
		newBannersCmd(),
		newCountriesCmd(),
		newSchedulesCmd(),
		newEnquiriesCmd(),
		newUsersCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logging.Close()
		os.Exit(1)
	}
	logging.Close()
}

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	store   *auth.Store
	client  *api.Client
	backoff *backoff.GlobalBackoff
}

// setup loads configuration and wires the full client stack: credential
// store with persistence, refresh coordinator, authenticating transport and
// the REST client on top.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if cfg.LogFile != "" {
		if err := logging.Init(cfg.LogFile, cfg.Verbose); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	var keeper auth.Keeper
	if cfg.UseKeyring {
		keeper = &auth.KeyringKeeper{}
	} else {
		fk, err := auth.NewFileKeeper(cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		keeper = fk
	}

	store, err := auth.NewStore(keeper)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored credentials: %w", err)
	}

	// Shared base transport for connection pooling across the refresh
	// client and the main pipeline.
	baseTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	refreshClient := &http.Client{Timeout: cfg.HTTPTimeout, Transport: baseTransport}
	coordinator := auth.NewCoordinator(refreshClient, cfg.RefreshEndpoint(), store)

	// The CLI analog of the front end's hard redirect: tell the user where
	// to log back in. Credentials are already cleared when this fires.
	onLogout := func(reason error) {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(
			fmt.Sprintf("Session expired (%v).", reason)))
		fmt.Fprintln(os.Stderr, ui.MutedStyle.Render(
			fmt.Sprintf("Log in again with `tourctl login` (web: %s).", cfg.LoginRoute)))
	}

	transport := auth.NewTransport(baseTransport, store, coordinator, onLogout)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout, Transport: transport}

	notifier := api.NotifierFunc(func(message string) {
		fmt.Fprintln(os.Stderr, ui.WarningStyle.Render(message))
	})

	bo := backoff.New(cfg.GetBackoffConfig())
	client := api.NewClient(httpClient, cfg.BaseURL, store, bo, notifier, cfg.MaxRetries)

	return &app{cfg: cfg, store: store, client: client, backoff: bo}, nil
}

// isTerminal checks if stdout is a terminal
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
