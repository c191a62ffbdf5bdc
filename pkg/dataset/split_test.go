package dataset

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labelledTable(counts map[string]int) *Table {
	t := MustTable([]string{"HomeTeam", "HomeElo", "FTR"})
	var labels []string
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	// interleave the classes so input order is not grouped by label
	remaining := map[string]int{}
	for k, v := range counts {
		remaining[k] = v
	}
	for i := 0; ; i++ {
		added := false
		for _, l := range labels {
			if remaining[l] == 0 {
				continue
			}
			remaining[l]--
			added = true
			if err := t.Append([]string{fmt.Sprintf("team%d", t.Len()), fmt.Sprint(1400 + i), l}); err != nil {
				panic(err)
			}
		}
		if !added {
			return t
		}
	}
}

func countLabels(labels []string) map[string]int {
	ret := map[string]int{}
	for _, l := range labels {
		ret[l]++
	}
	return ret
}

func defaultOptions() SplitOptions {
	return SplitOptions{Target: "FTR", ValidationFraction: 0.15, TestFraction: 0.15, Seed: 42}
}

func TestSplitIsExhaustiveAndDisjoint(t *testing.T) {
	in := labelledTable(map[string]int{"H": 46, "D": 27, "A": 31})
	res, err := Split(in, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, in.Len(), res.Len())
	seen := map[int]string{}
	for name, part := range map[string]*Table{"train": res.Train, "validation": res.Validation, "test": res.Test} {
		for _, id := range part.IDs() {
			prev, dup := seen[id]
			assert.False(t, dup, "row %d in both %s and %s", id, prev, name)
			seen[id] = name
		}
	}
	assert.Len(t, seen, in.Len())
}

func TestSplitDropsTargetFromFeatures(t *testing.T) {
	in := labelledTable(map[string]int{"H": 10, "A": 10})
	res, err := Split(in, defaultOptions())
	require.NoError(t, err)

	for _, part := range []*Table{res.Train, res.Validation, res.Test} {
		assert.Equal(t, []string{"HomeTeam", "HomeElo"}, part.Columns())
	}
	assert.Len(t, res.TrainTarget, res.Train.Len())
	assert.Len(t, res.ValidationTarget, res.Validation.Len())
	assert.Len(t, res.TestTarget, res.Test.Len())

	// targets line up with their rows
	labels, err := in.Column("FTR")
	require.NoError(t, err)
	for i, id := range res.Test.IDs() {
		assert.Equal(t, labels[id], res.TestTarget[i])
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	in := labelledTable(map[string]int{"H": 40, "D": 25, "A": 35})
	first, err := Split(in, defaultOptions())
	require.NoError(t, err)
	second, err := Split(in, defaultOptions())
	require.NoError(t, err)

	assert.Equal(t, first.Train.IDs(), second.Train.IDs())
	assert.Equal(t, first.Validation.IDs(), second.Validation.IDs())
	assert.Equal(t, first.Test.IDs(), second.Test.IDs())
}

func TestSplitStratifiesBalancedClasses(t *testing.T) {
	in := labelledTable(map[string]int{"A": 100, "B": 100})
	res, err := Split(in, defaultOptions())
	require.NoError(t, err)

	for name, labels := range map[string][]string{
		"train":      res.TrainTarget,
		"validation": res.ValidationTarget,
		"test":       res.TestTarget,
	} {
		counts := countLabels(labels)
		half := len(labels) / 2
		assert.InDelta(t, half, counts["A"], 2, name)
		assert.InDelta(t, half, counts["B"], 2, name)
	}
	assert.InDelta(t, 140, res.Train.Len(), 2)
	assert.InDelta(t, 30, res.Validation.Len(), 2)
	assert.InDelta(t, 30, res.Test.Len(), 2)
}

func TestSplitEveryClassReachesEveryPartition(t *testing.T) {
	in := labelledTable(map[string]int{"H": 50, "D": 3, "A": 4})
	res, err := Split(in, SplitOptions{Target: "FTR", ValidationFraction: 0.05, TestFraction: 0.05, Seed: 1})
	require.NoError(t, err)

	for _, labels := range [][]string{res.TrainTarget, res.ValidationTarget, res.TestTarget} {
		counts := countLabels(labels)
		for _, class := range []string{"H", "D", "A"} {
			assert.GreaterOrEqual(t, counts[class], 1, class)
		}
	}
}

func TestSplitPreservesInputOrderWithinPartitions(t *testing.T) {
	in := labelledTable(map[string]int{"H": 30, "A": 30})
	res, err := Split(in, defaultOptions())
	require.NoError(t, err)
	for _, part := range []*Table{res.Train, res.Validation, res.Test} {
		assert.True(t, sort.IntsAreSorted(part.IDs()))
	}
}

func TestSplitSingleMemberClass(t *testing.T) {
	in := labelledTable(map[string]int{"H": 20, "D": 1, "A": 20})
	_, err := Split(in, defaultOptions())

	var insufficient *InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "D", insufficient.Class)
	assert.Equal(t, 1, insufficient.Count)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestSplitValidation(t *testing.T) {
	in := labelledTable(map[string]int{"H": 20, "A": 20})
	tests := []struct {
		name string
		opts SplitOptions
		want error
	}{
		{"missing target", SplitOptions{Target: "Result", ValidationFraction: 0.1, TestFraction: 0.1}, ErrSchema},
		{"zero validation", SplitOptions{Target: "FTR", ValidationFraction: 0, TestFraction: 0.1}, ErrValidation},
		{"negative test", SplitOptions{Target: "FTR", ValidationFraction: 0.1, TestFraction: -0.1}, ErrValidation},
		{"sum is one", SplitOptions{Target: "FTR", ValidationFraction: 0.5, TestFraction: 0.5}, ErrValidation},
		{"sum above one", SplitOptions{Target: "FTR", ValidationFraction: 0.7, TestFraction: 0.4}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(in, tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFilterThenSplit(t *testing.T) {
	raw := MustTable([]string{"date", "Division", "HomeElo", "FTR"})
	results := []string{"H", "D", "A"}
	for i := 0; i < 90; i++ {
		div := "E0"
		if i%4 == 0 {
			div = "E1"
		}
		require.NoError(t, raw.Append([]string{
			fmt.Sprintf("2023-%02d-%02d", i%12+1, i%28+1), div, fmt.Sprint(1500 + i), results[i%3],
		}))
	}

	filtered, err := Filter(raw, FilterCriteria{
		Start:     date("2023-01-01"),
		End:       date("2023-12-31"),
		Columns:   []string{"HomeElo", "FTR"},
		Divisions: []string{"E0"},
	})
	require.NoError(t, err)

	res, err := Split(filtered, defaultOptions())
	require.NoError(t, err)
	assert.Equal(t, filtered.Len(), res.Len())
	assert.Equal(t, []string{"HomeElo"}, res.Train.Columns())
}

func TestLegacyTrainTestSplit(t *testing.T) {
	in := labelledTable(map[string]int{"H": 60, "A": 40})
	train, test := TrainTestSplit(in)

	assert.Equal(t, 80, train.Len())
	assert.Equal(t, 20, test.Len())
	assert.Equal(t, in.Columns(), train.Columns())

	ids := append(train.IDs(), test.IDs()...)
	sort.Ints(ids)
	assert.Equal(t, in.IDs(), ids)
}
