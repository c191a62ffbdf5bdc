package dataset

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultDateColumn     = "date"
	DefaultDivisionColumn = "Division"
)

// dateLayouts are tried in order when reading a date cell. The first four cover the
// iso dates used by the match dataset and the rating APIs, the last two are the
// football-data.co.uk day/month/year forms.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02/01/2006",
	"02/01/06",
}

// FilterCriteria selects the rows and columns of a raw match table that a model is
// trained on. Start and End are inclusive and compared by calendar day.
type FilterCriteria struct {
	Start     time.Time
	End       time.Time
	Columns   []string
	Divisions []string

	// DateColumn and DivisionColumn default to "date" and "Division"
	DateColumn     string
	DivisionColumn string
}

// ParseDate reads a date cell in any of the supported layouts
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c FilterCriteria) dateColumn() string {
	if c.DateColumn == "" {
		return DefaultDateColumn
	}
	return c.DateColumn
}

func (c FilterCriteria) divisionColumn() string {
	if c.DivisionColumn == "" {
		return DefaultDivisionColumn
	}
	return c.DivisionColumn
}

// Validate checks the criteria against the schema of the table they will be applied to
func (c FilterCriteria) Validate(t *Table) error {
	if c.Start.IsZero() || c.End.IsZero() {
		return &ValidationError{Field: "date range", Reason: "start and end dates are required"}
	}
	if day(c.Start).After(day(c.End)) {
		return &ValidationError{
			Field:  "date range",
			Reason: fmt.Sprintf("start %s is after end %s", c.Start.Format("2006-01-02"), c.End.Format("2006-01-02")),
		}
	}
	for _, col := range c.Columns {
		if !t.HasColumn(col) {
			return &SchemaError{Column: col, Reason: "relevant column not in table schema"}
		}
	}
	for _, col := range []string{c.dateColumn(), c.divisionColumn()} {
		if !t.HasColumn(col) {
			return &SchemaError{Column: col, Reason: "filter column not in table schema"}
		}
	}
	return nil
}

// Filter projects the raw table onto the relevant columns and keeps the rows whose
// date lies in [Start, End] and whose division is one of Divisions. Both conditions
// must hold. Row order is preserved. An empty Divisions set gives an empty table.
//
// The date and division predicates are evaluated on the raw row, so those columns
// need not be among the relevant columns.
func Filter(raw *Table, c FilterCriteria) (*Table, error) {
	if err := c.Validate(raw); err != nil {
		return nil, err
	}
	dateIdx, _ := raw.ColumnIndex(c.dateColumn())
	divIdx, _ := raw.ColumnIndex(c.divisionColumn())

	allowed := make(map[string]struct{}, len(c.Divisions))
	for _, d := range c.Divisions {
		allowed[strings.TrimSpace(d)] = struct{}{}
	}
	start, end := day(c.Start), day(c.End)

	var kept []Row
	for _, r := range raw.Rows() {
		if _, ok := allowed[strings.TrimSpace(r.Values[divIdx])]; !ok {
			continue
		}
		d, err := ParseDate(r.Values[dateIdx])
		if err != nil {
			return nil, &ValidationError{Field: c.dateColumn(), Reason: fmt.Sprintf("row %d: %v", r.ID, err)}
		}
		d = day(d)
		if d.Before(start) || d.After(end) {
			continue
		}
		kept = append(kept, r)
	}

	columns := c.Columns
	if len(columns) == 0 {
		columns = raw.Columns()
	}
	return raw.subset(kept).Select(columns)
}
