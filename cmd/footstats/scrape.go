package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richard-senior/footstats/internal/config"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/clubelo"
	"github.com/richard-senior/footstats/pkg/dataset"
	"github.com/richard-senior/footstats/pkg/footballdata"
	"github.com/richard-senior/footstats/pkg/matchdata"
	"github.com/richard-senior/footstats/pkg/store"
	"github.com/richard-senior/footstats/pkg/transport"
)

func transportOptions(cfg *config.Config, withTimeout bool) []transport.Option {
	var opts []transport.Option
	if withTimeout {
		opts = append(opts, transport.WithTimeout(cfg.HTTPTimeout))
	}
	if cfg.CABundle != "" {
		opts = append(opts, transport.WithCABundle(cfg.CABundle))
	}
	return opts
}

// openStore opens the sqlite database when persistence was asked for, nil otherwise
func openStore(path string) (*store.DB, error) {
	if path == "" {
		return nil, nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateTables(&clubelo.Rating{}, &footballdata.Standing{}, &footballdata.Match{}); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func persist[T any, PT interface {
	*T
	store.Persistable
}](db *store.DB, items []T) error {
	if db == nil || len(items) == 0 {
		return nil
	}
	objs := make([]store.Persistable, len(items))
	for i := range items {
		objs[i] = PT(&items[i])
	}
	if err := db.SaveAll(objs...); err != nil {
		return err
	}
	logger.Info("Persisted", len(items), "rows to", objs[0].GetTableName())
	return nil
}

func runEloRanking(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("elo-ranking", flag.ContinueOnError)
	date := fs.String("date", time.Now().Format("2006-01-02"), "day of the ranking (YYYY-MM-DD)")
	country := fs.String("country", "", "only keep clubs from this country code (e.g. ENG)")
	out := fs.String("out", "", "csv file to write (default <output>/elo/ranking-<date>.csv)")
	dbPath := fs.String("db", cfg.DBPath, "sqlite database the ranking is persisted into, empty disables it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	ratings, err := clubelo.NewClient(cfg.ClubEloBaseURL, transportOptions(cfg, false)...).DailyRanking(ctx, day)
	if err != nil {
		return err
	}
	if *country != "" {
		kept := ratings[:0]
		for _, r := range ratings {
			if strings.EqualFold(r.Country, *country) {
				kept = append(kept, r)
			}
		}
		ratings = kept
	}
	clubelo.SortByElo(ratings)

	path := *out
	if path == "" {
		path = filepath.Join(cfg.OutputPath, "elo", fmt.Sprintf("ranking-%s.csv", *date))
	}
	if err := dataset.WriteCSVFile(path, clubelo.RatingsTable(ratings)); err != nil {
		return err
	}
	logger.Info("Wrote", len(ratings), "ratings to", path)

	db, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return persist(db, ratings)
}

func runEloHistory(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("elo-history", flag.ContinueOnError)
	club := fs.String("club", "", "club name, matched loosely against the day's ranking, e.g. \"man city\"")
	date := fs.String("date", time.Now().Format("2006-01-02"), "day used to resolve the club and report its rating (YYYY-MM-DD)")
	out := fs.String("out", "", "csv file to write (default <output>/elo/<club>.csv)")
	dbPath := fs.String("db", cfg.DBPath, "sqlite database the history is persisted into, empty disables it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *club == "" {
		return fmt.Errorf("-club is required")
	}
	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		return fmt.Errorf("invalid -date: %w", err)
	}

	client := clubelo.NewClient(cfg.ClubEloBaseURL, transportOptions(cfg, false)...)
	ranking, err := client.DailyRanking(ctx, day)
	if err != nil {
		return err
	}
	match, err := clubelo.FindClub(ranking, *club)
	if err != nil {
		return err
	}
	if match.Club != *club {
		logger.Info("Resolved", *club, "to", match.Club)
	}

	history, err := client.ClubHistory(ctx, match.Club)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return fmt.Errorf("no Elo history for %q", match.Club)
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.OutputPath, "elo", strings.ReplaceAll(match.Club, " ", "")+".csv")
	}
	if err := dataset.WriteCSVFile(path, clubelo.RatingsTable(history)); err != nil {
		return err
	}
	logger.Info("Wrote", len(history), "ratings to", path)

	if r, err := clubelo.EloOn(history, day); err != nil {
		logger.Warn("No Elo for", match.Club, "on", *date)
	} else {
		fmt.Printf("%s\t%s\t%.1f\n", r.Club, *date, r.Elo)
	}

	db, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return persist(db, history)
}

func runStandings(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("standings", flag.ContinueOnError)
	competition := fs.String("competition", cfg.Competition, "football-data.org competition code")
	out := fs.String("out", "", "csv file to write (default <output>/<competition>/<competition> Standings.csv)")
	dbPath := fs.String("db", cfg.DBPath, "sqlite database the table is persisted into, empty disables it")
	stored := fs.Bool("stored", false, "print the table last persisted into -db instead of fetching it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *stored {
		if *dbPath == "" {
			return fmt.Errorf("-stored needs a -db")
		}
		db, err := openStore(*dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		return printStoredStandings(os.Stdout, db, *competition)
	}
	if err := cfg.RequireFootballDataKey(); err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.OutputPath, *competition, *competition+" Standings.csv")
	}
	db, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return refreshStandings(ctx, cfg, *competition, path, db)
}

func refreshStandings(ctx context.Context, cfg *config.Config, competition string, path string, db *store.DB) error {
	client := footballdata.NewClient(cfg.FootballDataBaseURL, cfg.FootballDataAPIKey, transportOptions(cfg, true)...)
	standings, err := client.Standings(ctx, competition)
	if err != nil {
		return err
	}
	if err := footballdata.WriteStandingsFile(path, standings); err != nil {
		return err
	}
	return persist(db, standings)
}

func printStoredStandings(w io.Writer, db *store.DB, competition string) error {
	standings, err := store.FindWhere[footballdata.Standing](db, "competition = ? ORDER BY position", competition)
	if err != nil {
		return err
	}
	if len(standings) == 0 {
		return fmt.Errorf("no stored standings for %s", competition)
	}
	for _, s := range standings {
		fmt.Fprintf(w, "%2d\t%-24s\t%2d\t%3d\t%+d\n", s.Position, s.Team, s.Played, s.Points, s.GoalDiff)
	}
	return nil
}

func runFixtures(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fixtures", flag.ContinueOnError)
	competition := fs.String("competition", cfg.Competition, "football-data.org competition code")
	season := fs.Int("season", cfg.Season, "first year of the season")
	out := fs.String("out", "", "xlsx file to write (default <output>/<competition>/Fixtures.xlsx)")
	dbPath := fs.String("db", cfg.DBPath, "sqlite database the matches are persisted into, empty disables it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.RequireFootballDataKey(); err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(cfg.OutputPath, *competition, "Fixtures.xlsx")
	}
	db, err := openStore(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return refreshFixtures(ctx, cfg, *competition, *season, path, db)
}

func refreshFixtures(ctx context.Context, cfg *config.Config, competition string, season int, path string, db *store.DB) error {
	client := footballdata.NewClient(cfg.FootballDataBaseURL, cfg.FootballDataAPIKey, transportOptions(cfg, true)...)
	matches, err := client.Matches(ctx, competition, season)
	if err != nil {
		return err
	}
	if err := footballdata.WriteFixturesWorkbook(path, matches); err != nil {
		return err
	}
	return persist(db, matches)
}

func runSeasons(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("seasons", flag.ContinueOnError)
	page := fs.String("page", "englandm.php", "country page on football-data.co.uk")
	if err := fs.Parse(args); err != nil {
		return err
	}
	src := matchdata.NewSource(cfg.MatchDataBaseURL, cfg.CachePath, transportOptions(cfg, true)...)
	files, err := src.Seasons(ctx, *page)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Printf("%s\t%s\t%s\n", f.Season, f.Division, f.URL)
	}
	return nil
}
