package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richard-senior/footstats/internal/config"
	"github.com/richard-senior/footstats/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMatches(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,Division,HomeTeam,AwayTeam,B365H,result\n")
	results := []string{"H", "D", "A"}
	for i := 0; i < 60; i++ {
		div := "E0"
		if i%4 == 3 {
			div = "E1"
		}
		fmt.Fprintf(&b, "2024-%02d-%02d,%s,Home%d,Away%d,%.2f,%s\n", 1+i%12, 1+i%28, div, i, i, 1.5+float64(i)/100, results[i%3])
	}
	path := filepath.Join(dir, "matches.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"E0", "E1"}, splitList(" E0, ,E1,"))
	assert.Nil(t, splitList(""))
}

func TestRunPrepare(t *testing.T) {
	dir := t.TempDir()
	in := writeMatches(t, dir)
	out := filepath.Join(dir, "dataset")

	err := runPrepare(context.Background(), config.Default(), []string{
		"-in", in, "-start", "2024-01-01", "-end", "2024-12-31",
		"-divisions", "E0", "-columns", "HomeTeam,B365H", "-out", out,
	})
	require.NoError(t, err)

	total := 0
	for _, name := range []string{"train.csv", "validation.csv", "test.csv"} {
		tbl, err := dataset.ReadCSVFile(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Equal(t, []string{"HomeTeam", "B365H", "result"}, tbl.Columns(), name)
		assert.Positive(t, tbl.Len(), name)
		total += tbl.Len()
	}
	assert.Equal(t, 45, total)
}

func TestRunPrepareLegacy(t *testing.T) {
	dir := t.TempDir()
	in := writeMatches(t, dir)
	out := filepath.Join(dir, "legacy")

	err := runPrepare(context.Background(), config.Default(), []string{
		"-in", in, "-start", "2024-01-01", "-end", "2024-12-31", "-divisions", "E0,E1", "-legacy", "-out", out,
	})
	require.NoError(t, err)

	train, err := dataset.ReadCSVFile(filepath.Join(out, "train.csv"))
	require.NoError(t, err)
	test, err := dataset.ReadCSVFile(filepath.Join(out, "test.csv"))
	require.NoError(t, err)
	assert.Equal(t, 48, train.Len())
	assert.Equal(t, 12, test.Len())
}

func TestRunPrepareErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeMatches(t, dir)
	cfg := config.Default()

	err := runPrepare(context.Background(), cfg, []string{"-in", in, "-end", "2024-12-31"})
	assert.Error(t, err)

	err = runPrepare(context.Background(), cfg, []string{"-start", "2024-01-01", "-end", "2024-12-31"})
	assert.ErrorContains(t, err, "-seasons")

	err = runPrepare(context.Background(), cfg, []string{
		"-in", in, "-start", "2024-12-31", "-end", "2024-01-01", "-out", filepath.Join(dir, "x"),
	})
	assert.ErrorIs(t, err, dataset.ErrValidation)

	// a single E1 match in the window cannot be split three ways
	err = runPrepare(context.Background(), cfg, []string{
		"-in", in, "-start", "2024-04-04", "-end", "2024-04-04", "-divisions", "E1", "-out", filepath.Join(dir, "y"),
	})
	assert.ErrorIs(t, err, dataset.ErrInsufficientData)
}
