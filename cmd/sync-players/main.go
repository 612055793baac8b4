package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/playerstock/internal/playersync"
	"github.com/okian/playerstock/pkg/logger"
)

// Default configuration constants.
const (
	defaultBaseURL  = "https://api.sleeper.app/v1"
	defaultSport    = "nfl"
	defaultDBPath   = "data/playerstock.db"
	defaultTimeout  = 60 * time.Second
	defaultDeadline = 5 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", defaultBaseURL, "Upstream API base URL")
		sport   = flag.String("sport", defaultSport, "Sport whose players are synced")
		dbPath  = flag.String("db", defaultDBPath, "SQLite database file")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		dryRun  = flag.Bool("dry-run", false, "Parse the feed and report counts without writing")
		verbose = flag.Bool("verbose", false, "Log every skipped entry")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		playersync.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultDeadline)
	defer cancel()

	config := &playersync.Config{
		BaseURL: *baseURL,
		Sport:   *sport,
		DBPath:  *dbPath,
		Timeout: *timeout,
		DryRun:  *dryRun,
		Verbose: *verbose,
	}

	if _, err := playersync.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "player sync failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
