package matchdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/dataset"
	"github.com/richard-senior/footstats/pkg/transport"
	"github.com/richard-senior/footstats/pkg/util"
)

const DefaultBaseURL = "https://www.football-data.co.uk"

// Column names of the football-data.co.uk files
const (
	DateColumn      = "Date"
	DivColumn       = "Div"
	FullTimeResult  = "FTR"
	TargetColumn    = "result"
	archiveTemplate = "%s/mmz4281/%s/%s.csv"
)

// Source downloads historical results from football-data.co.uk and keeps a copy of
// every file on disk. Files for the season in progress are always downloaded again.
type Source struct {
	baseURL   string
	cachePath string
	http      *transport.Client
	now       func() time.Time
}

// NewSource returns a Source caching into cachePath
func NewSource(baseURL string, cachePath string, opts ...transport.Option) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cachePath: cachePath,
		http:      transport.NewClient(opts...),
		now:       time.Now,
	}
}

// Raw returns the csv for a division ("E0") and season (any form ParseSeason accepts)
func (s *Source) Raw(ctx context.Context, division string, season string) ([]byte, error) {
	if division == "" {
		return nil, fmt.Errorf("must supply a division")
	}
	code, err := util.SeasonCode(season)
	if err != nil {
		return nil, err
	}

	cacheFilename := filepath.Join(s.cachePath, fmt.Sprintf("%s-%s.csv", code, division))
	if util.IsCurrentSeason(code, s.now()) {
		if err := os.Remove(cacheFilename); err == nil {
			logger.Info("Deleting stale cache file for current season:", cacheFilename)
		}
	}

	data, err := os.ReadFile(cacheFilename)
	if err == nil {
		logger.Debug("Returning data from cached file for", division, code)
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading cache file, perhaps consider deleting it %s: %w", cacheFilename, err)
	}

	logger.Info("Fetching historical data from football-data.co.uk for", division, code)
	data, err = s.http.Get(ctx, fmt.Sprintf(archiveTemplate, s.baseURL, code, division), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from external source: %w", err)
	}
	if err := os.MkdirAll(s.cachePath, 0o755); err != nil {
		logger.Warn("Failed to create cache directory", s.cachePath, err)
	} else if err := os.WriteFile(cacheFilename, data, 0o644); err != nil {
		logger.Warn("Failed to write cache file", cacheFilename, err)
	} else {
		logger.Info("Cached data to", cacheFilename)
	}
	return data, nil
}

// Fetch downloads (or reads from cache) one division and season and normalises it
func (s *Source) Fetch(ctx context.Context, division string, season string) (*dataset.Table, error) {
	data, err := s.Raw(ctx, division, season)
	if err != nil {
		return nil, err
	}
	// some archive files start with a byte order mark which ReadCSV strips
	t, err := dataset.ReadCSV(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s %s: %w", division, season, err)
	}
	return Normalise(t, division)
}

// Load fetches every division for every season and concatenates the results onto the
// schema of the first file. Later files missing one of those columns are an error.
func (s *Source) Load(ctx context.Context, divisions []string, seasons []string) (*dataset.Table, error) {
	if len(divisions) == 0 || len(seasons) == 0 {
		return nil, fmt.Errorf("must supply at least one division and one season")
	}
	var all *dataset.Table
	for _, season := range seasons {
		for _, division := range divisions {
			t, err := s.Fetch(ctx, division, season)
			if err != nil {
				return nil, err
			}
			if all == nil {
				all = t
				continue
			}
			if all, err = all.Concat(t); err != nil {
				return nil, fmt.Errorf("cannot combine %s %s: %w", division, season, err)
			}
		}
	}
	logger.Info("Loaded", all.Len(), "matches from", len(divisions), "divisions and", len(seasons), "seasons")
	return all, nil
}

// Normalise adds the columns dataset.Filter and dataset.Split expect by default: an
// ISO "date", the "Division" and a "result" target copied from FTR. Rows without a
// date or a full time result (unplayed fixtures) are dropped.
func Normalise(t *dataset.Table, division string) (*dataset.Table, error) {
	for _, c := range []string{DateColumn, FullTimeResult} {
		if !t.HasColumn(c) {
			return nil, &dataset.SchemaError{Column: c, Reason: "missing from match data"}
		}
	}
	dateIdx, _ := t.ColumnIndex(DateColumn)
	ftrIdx, _ := t.ColumnIndex(FullTimeResult)
	divIdx, hasDiv := -1, t.HasColumn(DivColumn)
	if hasDiv {
		divIdx, _ = t.ColumnIndex(DivColumn)
	}

	played := t.Where(func(r dataset.Row) bool {
		return strings.TrimSpace(r.Values[dateIdx]) != "" && strings.TrimSpace(r.Values[ftrIdx]) != ""
	})
	if dropped := t.Len() - played.Len(); dropped > 0 {
		logger.Debug("Dropped", dropped, "rows without a date or result from", division)
	}

	out, err := played.WithColumn(dataset.DefaultDateColumn, func(r dataset.Row) (string, error) {
		d, err := dataset.ParseDate(r.Values[dateIdx])
		if err != nil {
			return "", err
		}
		return d.Format("2006-01-02"), nil
	})
	if err != nil {
		return nil, err
	}
	out, err = out.WithColumn(dataset.DefaultDivisionColumn, func(r dataset.Row) (string, error) {
		if hasDiv && strings.TrimSpace(r.Values[divIdx]) != "" {
			return strings.TrimSpace(r.Values[divIdx]), nil
		}
		return division, nil
	})
	if err != nil {
		return nil, err
	}
	return out.WithColumn(TargetColumn, func(r dataset.Row) (string, error) {
		switch v := strings.ToUpper(strings.TrimSpace(r.Values[ftrIdx])); v {
		case "H", "D", "A":
			return v, nil
		default:
			return "", fmt.Errorf("unexpected full time result %q", v)
		}
	})
}
