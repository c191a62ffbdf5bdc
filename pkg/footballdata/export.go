package footballdata

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/xuri/excelize/v2"
)

var fixtureHeader = []any{"Home Team", "Away Team", "Score", "Status"}

// WriteStandingsCSV writes the league table with the columns
// Position,Team,Played,Won,Draw,Lost,Points,GF,GA,GD
func WriteStandingsCSV(w io.Writer, standings []Standing) error {
	if err := gocsv.Marshal(&standings, w); err != nil {
		return fmt.Errorf("failed to write standings: %w", err)
	}
	return nil
}

// WriteStandingsFile writes the league table csv to path, creating parent directories
func WriteStandingsFile(path string, standings []Standing) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteStandingsCSV(f, standings); err != nil {
		f.Close()
		return err
	}
	logger.Info("Wrote standings to", path)
	return f.Close()
}

// Matchday is the set of matches played in one round
type Matchday struct {
	Number  int
	Matches []Match
}

// GroupByMatchday groups matches by round in ascending order, keeping the api's order
// within a round. Matches without a matchday are skipped.
func GroupByMatchday(matches []Match) []Matchday {
	index := map[int]int{}
	var days []Matchday
	for _, m := range matches {
		if m.Matchday <= 0 {
			continue
		}
		i, ok := index[m.Matchday]
		if !ok {
			i = len(days)
			index[m.Matchday] = i
			days = append(days, Matchday{Number: m.Matchday})
		}
		days[i].Matches = append(days[i].Matches, m)
	}
	sort.Slice(days, func(a, b int) bool { return days[a].Number < days[b].Number })
	return days
}

// WriteFixturesWorkbook writes an xlsx workbook with one "Matchday N" sheet per round
func WriteFixturesWorkbook(path string, matches []Match) error {
	days := GroupByMatchday(matches)
	if len(days) == 0 {
		return fmt.Errorf("no matches with a matchday to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for _, day := range days {
		sheet := fmt.Sprintf("Matchday %d", day.Number)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
		if err := f.SetSheetRow(sheet, "A1", &fixtureHeader); err != nil {
			return err
		}
		for i, m := range day.Matches {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			row := []any{m.HomeTeam, m.AwayTeam, m.Score(), m.Status}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s: %w", sheet, err)
			}
		}
	}
	// the default sheet goes once the matchday sheets exist
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	logger.Info("Wrote fixtures workbook", path, len(days), "matchdays")
	return nil
}
