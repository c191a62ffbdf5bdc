package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/richard-senior/footstats/internal/config"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/clubelo"
	"github.com/richard-senior/footstats/pkg/dataset"
	"github.com/richard-senior/footstats/pkg/store"
	"github.com/richard-senior/footstats/pkg/web"
	"github.com/robfig/cron/v3"
)

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.ListenAddr, "listen address")
	predictionsPath := fs.String("predictions", cfg.PredictionsPath, "predictions csv to serve")
	schedule := fs.String("refresh", cfg.RefreshSchedule, "cron schedule for refreshing scraped data, empty disables it")
	dbPath := fs.String("db", cfg.DBPath, "sqlite database refreshed data is persisted into, empty disables it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *schedule != "" {
		db, err := openStore(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		c := cron.New()
		if _, err := c.AddFunc(*schedule, func() { refreshAll(ctx, cfg, db) }); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", *schedule, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		logger.Info("Scheduled data refresh", *schedule)
	}

	return web.NewServer(*addr, *predictionsPath, cfg.PerPage).ListenAndServe(ctx)
}

// refreshAll re-scrapes today's Elo ranking and, when an api key is configured, the
// league table and fixtures. Failures are logged so the next run can try again.
func refreshAll(ctx context.Context, cfg *config.Config, db *store.DB) {
	logger.Info("Refreshing scraped data")
	today := time.Now()

	ratings, err := clubelo.NewClient(cfg.ClubEloBaseURL, transportOptions(cfg, false)...).DailyRanking(ctx, today)
	if err != nil {
		logger.Error("Elo refresh failed", err)
	} else {
		path := filepath.Join(cfg.OutputPath, "elo", fmt.Sprintf("ranking-%s.csv", today.Format("2006-01-02")))
		if err := dataset.WriteCSVFile(path, clubelo.RatingsTable(ratings)); err != nil {
			logger.Error("Failed to write Elo ranking", err)
		}
		if err := persist(db, ratings); err != nil {
			logger.Error("Failed to persist Elo ranking", err)
		}
	}

	if err := cfg.RequireFootballDataKey(); err != nil {
		logger.Warn("Skipping standings and fixtures refresh:", err)
		return
	}
	standingsPath := filepath.Join(cfg.OutputPath, cfg.Competition, cfg.Competition+" Standings.csv")
	if err := refreshStandings(ctx, cfg, cfg.Competition, standingsPath, db); err != nil {
		logger.Error("Standings refresh failed", err)
	}
	fixturesPath := filepath.Join(cfg.OutputPath, cfg.Competition, "Fixtures.xlsx")
	if err := refreshFixtures(ctx, cfg, cfg.Competition, cfg.Season, fixturesPath, db); err != nil {
		logger.Error("Fixtures refresh failed", err)
	}
}
