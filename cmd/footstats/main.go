package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/footstats/internal/config"
	"github.com/richard-senior/footstats/internal/logger"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, cfg *config.Config, args []string) error
}

var commands = []command{
	{"elo-ranking", "fetch the Club Elo ranking for a day", runEloRanking},
	{"elo-history", "fetch the Elo history of one club", runEloHistory},
	{"standings", "fetch the current league table from football-data.org", runStandings},
	{"fixtures", "fetch a season's fixtures into a workbook, one sheet per matchday", runFixtures},
	{"seasons", "list the historical results files published for a country", runSeasons},
	{"prepare", "filter match data and split it into train, validation and test sets", runPrepare},
	{"serve", "serve the predictions page and api", runServe},
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: footstats <command> [flags]")
	fmt.Fprintln(os.Stderr)
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-12s %s\n", c.name, c.summary)
	}
}

// configureLogging applies the level and output destination from the configuration
// to the package level logger
func configureLogging(cfg *config.Config) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	modes := map[string]rune{"console": 'c', "file": 'f', "both": 'b'}
	mode, ok := modes[cfg.LogOutput]
	if !ok {
		return fmt.Errorf("unknown log output: %s", cfg.LogOutput)
	}
	if err := logger.SetLogOutput(mode, cfg.LogFile); err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetShowDateTime(true)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}
	if err := configureLogging(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger.Debug("Running command", name, os.Args[2:])
		if err := c.run(ctx, cfg, os.Args[2:]); err != nil {
			logger.Error("Command failed:", name, err)
			stop()
			os.Exit(1)
		}
		return
	}

	if name != "-h" && name != "--help" && name != "help" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	}
	usage()
	os.Exit(2)
}
