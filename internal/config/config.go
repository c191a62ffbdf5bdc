package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the scrapers, the dataset preparation and the display
// server need. It is loaded once in main and handed to constructors.
type Config struct {
	// === Remote APIs ===
	FootballDataAPIKey  string // X-Auth-Token for api.football-data.org
	FootballDataBaseURL string // default: https://api.football-data.org/v4
	ClubEloBaseURL      string // default: http://api.clubelo.com
	MatchDataBaseURL    string // historical csv archive, default: https://www.football-data.co.uk
	HTTPTimeout         time.Duration
	CABundle            string // extra PEM roots for TLS inspecting proxies

	// === Local paths ===
	AssetsPath      string // base directory for everything footstats writes
	CachePath       string // downloaded historical csv files
	DBPath          string // sqlite database
	OutputPath      string // exported csv/xlsx files
	PredictionsPath string // precomputed predictions served by the web app

	// === Scraping defaults ===
	Competition string // football-data.org competition code (default: PL)
	Season      int    // first year of the season (default: 2024)

	// === Web ===
	ListenAddr      string
	PerPage         int
	RefreshSchedule string // cron spec, empty disables the scheduled refresh

	LogLevel  string
	LogOutput string // console, file or both
	LogFile   string // used when LogOutput writes to a file, empty means the logger default
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	assets := ".footstats"
	return &Config{
		FootballDataBaseURL: "https://api.football-data.org/v4",
		ClubEloBaseURL:      "http://api.clubelo.com",
		MatchDataBaseURL:    "https://www.football-data.co.uk",
		HTTPTimeout:         30 * time.Second,

		AssetsPath:      assets,
		CachePath:       filepath.Join(assets, "cache"),
		DBPath:          filepath.Join(assets, "footstats.db"),
		OutputPath:      "results",
		PredictionsPath: filepath.Join("output_data", "predictions.csv"),

		Competition: "PL",
		Season:      2024,

		ListenAddr: ":5001",
		PerPage:    15,

		LogLevel:  "INFO",
		LogOutput: "console",
	}
}

// Load reads the given .env files (default ".env") and then overlays environment
// variables on top of Default(). A missing .env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	c := Default()
	if err := c.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("FOOTBALL_DATA_API_KEY", &c.FootballDataAPIKey)
	str("FOOTSTATS_FOOTBALL_DATA_URL", &c.FootballDataBaseURL)
	str("FOOTSTATS_CLUBELO_URL", &c.ClubEloBaseURL)
	str("FOOTSTATS_MATCHDATA_URL", &c.MatchDataBaseURL)
	str("FOOTSTATS_OUTPUT_PATH", &c.OutputPath)
	str("FOOTSTATS_PREDICTIONS_PATH", &c.PredictionsPath)
	str("FOOTSTATS_COMPETITION", &c.Competition)
	str("FOOTSTATS_LISTEN_ADDR", &c.ListenAddr)
	str("FOOTSTATS_REFRESH_SCHEDULE", &c.RefreshSchedule)
	str("FOOTSTATS_LOG_LEVEL", &c.LogLevel)
	str("FOOTSTATS_LOG_OUTPUT", &c.LogOutput)
	str("FOOTSTATS_LOG_FILE", &c.LogFile)
	str("FOOTSTATS_CA_BUNDLE", &c.CABundle)

	// derived paths follow the assets path unless set explicitly
	if v, ok := lookup("FOOTSTATS_ASSETS_PATH"); ok && v != "" {
		c.AssetsPath = v
		c.CachePath = filepath.Join(v, "cache")
		c.DBPath = filepath.Join(v, "footstats.db")
	}
	str("FOOTSTATS_CACHE_PATH", &c.CachePath)
	str("FOOTSTATS_DB_PATH", &c.DBPath)

	if v, ok := lookup("FOOTSTATS_SEASON"); ok && v != "" {
		season, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FOOTSTATS_SEASON must be a year, got %q: %w", v, err)
		}
		c.Season = season
	}
	if v, ok := lookup("FOOTSTATS_PER_PAGE"); ok && v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FOOTSTATS_PER_PAGE must be an integer, got %q: %w", v, err)
		}
		c.PerPage = perPage
	}
	if v, ok := lookup("FOOTSTATS_HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FOOTSTATS_HTTP_TIMEOUT must be a duration, got %q: %w", v, err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

// Validate ensures all configuration values are usable
func (c *Config) Validate() error {
	if c.FootballDataBaseURL == "" || c.ClubEloBaseURL == "" || c.MatchDataBaseURL == "" {
		return fmt.Errorf("api base urls must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTPTimeout must be positive, got: %s", c.HTTPTimeout)
	}
	if c.Season < 1888 || c.Season > 2100 {
		return fmt.Errorf("Season should be the first year of a season, got: %d", c.Season)
	}
	if c.PerPage < 1 {
		return fmt.Errorf("PerPage must be at least 1, got: %d", c.PerPage)
	}
	if c.Competition == "" {
		return fmt.Errorf("Competition must not be empty")
	}
	switch c.LogOutput {
	case "console", "file", "both":
	default:
		return fmt.Errorf("LogOutput must be console, file or both, got: %q", c.LogOutput)
	}
	return nil
}

// RequireFootballDataKey is called by commands that talk to api.football-data.org
func (c *Config) RequireFootballDataKey() error {
	if c.FootballDataAPIKey == "" {
		return fmt.Errorf("FOOTBALL_DATA_API_KEY is not set")
	}
	return nil
}
