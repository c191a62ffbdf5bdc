package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ReadCSV reads a table from csv with a header row. Blank lines of empty cells are
// skipped, short rows are padded with empty cells and trailing empty cells beyond the
// header are ignored.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header row")
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	// football-data.co.uk files sometimes end the header with empty names
	for len(headers) > 0 && strings.TrimSpace(headers[len(headers)-1]) == "" {
		headers = headers[:len(headers)-1]
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	t, err := NewTable(headers)
	if err != nil {
		return nil, err
	}

	for i, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		if len(record) > len(headers) {
			if !isBlank(record[len(headers):]) {
				return nil, fmt.Errorf("row %d has %d values, header has %d", i+2, len(record), len(headers))
			}
			record = record[:len(headers)]
		}
		for len(record) < len(headers) {
			record = append(record, "")
		}
		if err := t.Append(record); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	return t, nil
}

// ReadCSVFile reads a table from a csv file
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes the header and rows of a table as csv
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range t.Rows() {
		if err := writer.Write(r.Values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes a table to path, creating parent directories
func WriteCSVFile(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WithTarget returns features with the target values appended as a column named name.
// Used to write a partition back out in one file.
func WithTarget(features *Table, name string, target []string) (*Table, error) {
	if len(target) != features.Len() {
		return nil, fmt.Errorf("target has %d values, table has %d rows", len(target), features.Len())
	}
	pos := make(map[int]int, len(target))
	for i, r := range features.Rows() {
		pos[r.ID] = i
	}
	return features.WithColumn(name, func(r Row) (string, error) {
		return target[pos[r.ID]], nil
	})
}

// WriteSplit writes train.csv, validation.csv and test.csv into dir, each with the
// target column appended
func WriteSplit(dir string, target string, res *SplitResult) error {
	parts := []struct {
		name     string
		features *Table
		target   []string
	}{
		{"train.csv", res.Train, res.TrainTarget},
		{"validation.csv", res.Validation, res.ValidationTarget},
		{"test.csv", res.Test, res.TestTarget},
	}
	for _, p := range parts {
		t, err := WithTarget(p.features, target, p.target)
		if err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		if err := WriteCSVFile(filepath.Join(dir, p.name), t); err != nil {
			return err
		}
	}
	return nil
}
