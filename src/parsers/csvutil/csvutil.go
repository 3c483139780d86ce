// Package csvutil holds the header handling shared by the exchange CSV parsers.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/kathytingcheng-oss/crypto-quant-os/src/security/validation"
)

// Table is a CSV file whose columns are addressed by header name.
type Table struct {
	columns map[string]int
	Rows    [][]string
}

// Read loads the whole file. Header names are matched case-insensitively and
// every cell is stripped of unprintable characters.
func Read(file io.Reader) (*Table, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV records: %w", err)
	}

	t := &Table{columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		t.columns[strings.ToLower(strings.TrimSpace(validation.StripUnprintable(name)))] = i
	}
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(validation.StripUnprintable(rec[i]))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Require fails when any of names is missing from the header.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func (t *Table) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Get returns the named cell of row, or "" when the column is absent or the
// row is short.
func (t *Table) Get(row []string, name string) string {
	i, ok := t.columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
