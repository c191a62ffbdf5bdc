package dataset

import (
	"math/rand"
)

// TrainTestSplit shuffles the table and returns the first 80% of rows as the train
// set and the remainder as the test set.
//
// Deprecated: the split is neither stratified nor reproducible. Use Split, which
// takes an explicit seed and keeps class proportions across three partitions.
func TrainTestSplit(filtered *Table) (train *Table, test *Table) {
	rows := append([]Row(nil), filtered.Rows()...)
	rand.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	n := int(float64(len(rows)) * 0.8)
	return filtered.subset(rows[:n]), filtered.subset(rows[n:])
}
