// ABOUTME: Root Cobra command and composition root for the feelink CLI.
// ABOUTME: Wires storage, remote client, sync engine, connectivity, and entity stores.
package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/feelink/internal/api"
	"github.com/harperreed/feelink/internal/config"
	"github.com/harperreed/feelink/internal/connectivity"
	"github.com/harperreed/feelink/internal/stores"
	"github.com/harperreed/feelink/internal/storage"
	syncer "github.com/harperreed/feelink/internal/sync"
)

// app is the composition root: every component is built here and injected,
// nothing is reached through package globals.
type app struct {
	cfg     *config.Config
	db      *storage.DB
	creds   *api.CredentialStore
	client  *api.Client
	engine  *syncer.Engine
	monitor *connectivity.Monitor
	metrics *stores.MetricsStore
	entries *stores.EntriesStore
	user    *stores.UserStore
}

var (
	theApp      *app
	flagOffline bool
)

var rootCmd = &cobra.Command{
	Use:   "feelink",
	Short: "Offline-first personal metrics tracker",
	Long: `Feelink tracks personal metrics and daily log entries, working offline
and reconciling with the server whenever a connection is available.

HOW SYNC WORKS:

  Reads come from the local cache first, then refresh from the server.
  Writes made offline apply to the cache immediately and queue a sync
  operation. The queue drains in order whenever the app is online; an
  operation failing 5 times is quarantined for inspection.

QUICK START:

  $ feelink register you@example.com      # Create an account
  $ feelink metric add mood psychological range --min 1 --max 10
  $ feelink log 2024-06-01 --set 1=7 --notes "Good day"
  $ feelink entries                       # See recent entries
  $ feelink sync status                   # Queue and connectivity state

OFFLINE USE:

  All commands work without a connection against the local cache.
  Pass --offline to skip the connectivity probe entirely.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Help and completion need no wiring.
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		theApp = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if theApp != nil {
			return theApp.db.Close()
		}
		return nil
	},
}

// newApp builds the full component graph from config.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(cfg.GetLogLevel()),
	})

	db, err := cfg.OpenStorage()
	if err != nil {
		return nil, err
	}

	creds, err := api.OpenCredentialStore(api.DefaultCredentialsPath())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	client := api.NewClient(cfg.GetServer(), creds,
		api.WithSessionInvalidHandler(func() {
			color.Red("Session expired. Run 'feelink login' to sign in again.")
		}))

	engine := syncer.NewEngine(db, client, syncer.WithLogger(logger))
	monitor := connectivity.NewMonitor(client, connectivity.WithLogger(logger))
	monitor.Online().Subscribe(engine.SetOnline)

	if flagOffline {
		monitor.SetOnline(false)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		monitor.Probe(ctx)
		cancel()
	}

	temp := &stores.TempIDs{}
	return &app{
		cfg:     cfg,
		db:      db,
		creds:   creds,
		client:  client,
		engine:  engine,
		monitor: monitor,
		metrics: stores.NewMetricsStore(db, client, engine, temp),
		entries: stores.NewEntriesStore(db, client, engine, temp),
		user:    stores.NewUserStore(db, client, engine),
	}, nil
}

func parseLogLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "skip the connectivity probe and work from the local cache")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(metricCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
