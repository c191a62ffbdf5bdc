package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/richard-senior/footstats/internal/config"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/dataset"
	"github.com/richard-senior/footstats/pkg/matchdata"
)

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func runPrepare(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("prepare", flag.ContinueOnError)
	in := fs.String("in", "", "csv file of match data; when empty, data is downloaded for -divisions and -seasons")
	divisions := fs.String("divisions", "E0", "comma separated divisions to keep (and download)")
	seasons := fs.String("seasons", "", "comma separated seasons to download, e.g. 2324,2425")
	start := fs.String("start", "", "first match day to keep (YYYY-MM-DD)")
	end := fs.String("end", "", "last match day to keep (YYYY-MM-DD)")
	columns := fs.String("columns", "", "comma separated columns to keep, empty keeps all")
	target := fs.String("target", matchdata.TargetColumn, "column holding the class label")
	validation := fs.Float64("validation", 0.15, "fraction of rows held out for validation")
	test := fs.Float64("test", 0.15, "fraction of rows held out for testing")
	seed := fs.Int64("seed", 42, "seed for the shuffle")
	legacy := fs.Bool("legacy", false, "use the unseeded 80/20 train/test split")
	out := fs.String("out", "", "directory for the partitions (default <output>/dataset)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	startDay, err := dataset.ParseDate(*start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	endDay, err := dataset.ParseDate(*end)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}

	var raw *dataset.Table
	if *in != "" {
		raw, err = dataset.ReadCSVFile(*in)
	} else {
		if *seasons == "" {
			return fmt.Errorf("either -in or -seasons is required")
		}
		src := matchdata.NewSource(cfg.MatchDataBaseURL, cfg.CachePath, transportOptions(cfg, true)...)
		raw, err = src.Load(ctx, splitList(*divisions), splitList(*seasons))
	}
	if err != nil {
		return err
	}

	criteria := dataset.FilterCriteria{
		Start:     startDay,
		End:       endDay,
		Columns:   splitList(*columns),
		Divisions: splitList(*divisions),
	}
	// the splitter needs the target among the kept columns
	if len(criteria.Columns) > 0 && !slices.Contains(criteria.Columns, *target) {
		criteria.Columns = append(criteria.Columns, *target)
	}
	filtered, err := dataset.Filter(raw, criteria)
	if err != nil {
		return err
	}
	logger.Info("Filtered", raw.Len(), "rows down to", filtered.Len())

	dir := *out
	if dir == "" {
		dir = filepath.Join(cfg.OutputPath, "dataset")
	}

	if *legacy {
		train, testSet := dataset.TrainTestSplit(filtered)
		if err := dataset.WriteCSVFile(filepath.Join(dir, "train.csv"), train); err != nil {
			return err
		}
		if err := dataset.WriteCSVFile(filepath.Join(dir, "test.csv"), testSet); err != nil {
			return err
		}
		logger.Warn("Used the unseeded legacy split:", train.Len(), "train and", testSet.Len(), "test rows in", dir)
		return nil
	}

	res, err := dataset.Split(filtered, dataset.SplitOptions{
		Target:             *target,
		ValidationFraction: *validation,
		TestFraction:       *test,
		Seed:               *seed,
	})
	if err != nil {
		return err
	}
	if err := dataset.WriteSplit(dir, *target, res); err != nil {
		return err
	}
	logger.Info("Wrote", res.Train.Len(), "train,", res.Validation.Len(), "validation and", res.Test.Len(), "test rows to", dir)
	return nil
}
