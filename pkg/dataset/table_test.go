package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableRejectsBadSchemas(t *testing.T) {
	_, err := NewTable([]string{"date", "date"})
	assert.ErrorIs(t, err, ErrSchema)

	_, err = NewTable([]string{"date", " "})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestAppendChecksWidth(t *testing.T) {
	tbl := MustTable([]string{"a", "b"})
	assert.Error(t, tbl.Append([]string{"1"}))
	require.NoError(t, tbl.Append([]string{"1", "2"}))
	assert.Equal(t, 1, tbl.Len())
}

func TestSelectKeepsIDsAndDoesNotShareRows(t *testing.T) {
	tbl := MustTable([]string{"a", "b", "c"}, []string{"1", "2", "3"}, []string{"4", "5", "6"})
	sel, err := tbl.Select([]string{"c", "a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a"}, sel.Columns())
	assert.Equal(t, []string{"3", "1"}, sel.Row(0).Values)
	assert.Equal(t, []int{0, 1}, sel.IDs())

	sel.Row(0).Values[0] = "x"
	v, err := tbl.Value(0, "c")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestConcatRenumbers(t *testing.T) {
	a := MustTable([]string{"date", "FTR"}, []string{"2024-01-01", "H"})
	b := MustTable([]string{"FTR", "date", "extra"}, []string{"A", "2024-01-02", "x"}, []string{"D", "2024-01-03", "y"})

	out, err := a.Concat(b)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, out.IDs())
	assert.Equal(t, []string{"2024-01-02", "A"}, out.Row(1).Values)

	_, err = b.Concat(a)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestReadCSVHandlesFootballDataQuirks(t *testing.T) {
	in := "\ufeffDiv,Date,HomeTeam,AwayTeam,FTR,,\n" +
		"E0,11/08/2023,Burnley,Man City,A,,\n" +
		",,,,,,\n" +
		"E0,12/08/2023,Arsenal,Nott'm Forest\n"

	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Div", "Date", "HomeTeam", "AwayTeam", "FTR"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "", tbl.Row(1).Values[4])
}

func TestReadCSVRejectsOverlongRows(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	assert.Error(t, err)
}

func TestWriteSplitRoundTrip(t *testing.T) {
	in := labelledTable(map[string]int{"H": 10, "D": 10, "A": 10})
	res, err := Split(in, defaultOptions())
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, WriteSplit(dir, "FTR", res))

	train, err := ReadCSVFile(filepath.Join(dir, "train.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"HomeTeam", "HomeElo", "FTR"}, train.Columns())
	assert.Equal(t, res.Train.Len(), train.Len())
	labels, err := train.Column("FTR")
	require.NoError(t, err)
	assert.Equal(t, res.TrainTarget, labels)

	for _, name := range []string{"validation.csv", "test.csv"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	tbl := MustTable([]string{"Team", "Points"}, []string{"Liverpool, FC", "84"})
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "Team,Points\n\"Liverpool, FC\",84\n", buf.String())
}
