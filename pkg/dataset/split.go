package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// stratifiedPartitions is the number of partitions every class must reach
const stratifiedPartitions = 3

// SplitOptions configures Split
type SplitOptions struct {
	Target             string
	ValidationFraction float64
	TestFraction       float64
	Seed               int64
}

// SplitResult holds the three disjoint partitions of a filtered table. The feature
// tables do not contain the target column, its values are in the matching target
// slices.
type SplitResult struct {
	Train      *Table
	Validation *Table
	Test       *Table

	TrainTarget      []string
	ValidationTarget []string
	TestTarget       []string
}

// Len returns the total number of rows across the partitions
func (r *SplitResult) Len() int {
	return r.Train.Len() + r.Validation.Len() + r.Test.Len()
}

// Validate checks the options against the table they will be applied to
func (o SplitOptions) Validate(t *Table) error {
	if !t.HasColumn(o.Target) {
		return &SchemaError{Column: o.Target, Reason: "target column not in table schema"}
	}
	if math.IsNaN(o.ValidationFraction) || o.ValidationFraction <= 0 || o.ValidationFraction >= 1 {
		return &ValidationError{Field: "validation fraction", Reason: fmt.Sprintf("must be in (0,1), got %v", o.ValidationFraction)}
	}
	if math.IsNaN(o.TestFraction) || o.TestFraction <= 0 || o.TestFraction >= 1 {
		return &ValidationError{Field: "test fraction", Reason: fmt.Sprintf("must be in (0,1), got %v", o.TestFraction)}
	}
	if o.ValidationFraction+o.TestFraction >= 1 {
		return &ValidationError{
			Field:  "fractions",
			Reason: fmt.Sprintf("validation + test must be below 1, got %v", o.ValidationFraction+o.TestFraction),
		}
	}
	return nil
}

// Split partitions a filtered table into train, validation and test sets, stratified
// on the target column. The table is first split into train and a held out set of
// fraction ValidationFraction+TestFraction, then the held out set is split into
// validation and test in the ratio ValidationFraction:TestFraction. Both stages keep
// each class's share of rows.
//
// The same table and seed always give the same partitions. Every class must have at
// least three rows, one for each partition.
func Split(filtered *Table, o SplitOptions) (*SplitResult, error) {
	if err := o.Validate(filtered); err != nil {
		return nil, err
	}
	targetIdx, _ := filtered.ColumnIndex(o.Target)

	classes := make(map[string][]int)
	for i, r := range filtered.Rows() {
		label := r.Values[targetIdx]
		classes[label] = append(classes[label], i)
	}
	labels := make([]string, 0, len(classes))
	for label, members := range classes {
		if len(members) < stratifiedPartitions {
			return nil, &InsufficientDataError{Class: label, Count: len(members), Required: stratifiedPartitions}
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rng := rand.New(rand.NewSource(o.Seed))
	heldFraction := o.ValidationFraction + o.TestFraction
	testShare := o.TestFraction / heldFraction

	var train, validation, test []int
	for _, label := range labels {
		members := append([]int(nil), classes[label]...)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })

		// held out rows need one each for validation and test, train keeps at least one
		nHeld := apportion(len(members), heldFraction, 2, 1)
		held := members[:nHeld]
		train = append(train, members[nHeld:]...)

		nTest := apportion(len(held), testShare, 1, 1)
		test = append(test, held[:nTest]...)
		validation = append(validation, held[nTest:]...)
	}

	features, err := filtered.Drop(o.Target)
	if err != nil {
		return nil, err
	}
	res := &SplitResult{}
	res.Train, res.TrainTarget = partition(features, filtered, targetIdx, train)
	res.Validation, res.ValidationTarget = partition(features, filtered, targetIdx, validation)
	res.Test, res.TestTarget = partition(features, filtered, targetIdx, test)
	return res, nil
}

// apportion returns how many of n rows go to the side given fraction f, rounded to
// the nearest row and clamped so that side gets at least minTaken and the other side
// keeps at least minLeft
func apportion(n int, f float64, minTaken int, minLeft int) int {
	k := int(math.Round(float64(n) * f))
	if k < minTaken {
		k = minTaken
	}
	if k > n-minLeft {
		k = n - minLeft
	}
	return k
}

// partition builds one output partition, restoring input order
func partition(features *Table, source *Table, targetIdx int, positions []int) (*Table, []string) {
	sort.Ints(positions)
	rows := make([]Row, len(positions))
	target := make([]string, len(positions))
	for i, p := range positions {
		rows[i] = features.rows[p]
		target[i] = source.rows[p].Values[targetIdx]
	}
	return features.subset(rows), target
}
