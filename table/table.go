// Package table provides the row-oriented source the dataset builder scans.
//
// A Table is an ordered list of rows over a fixed set of named columns. It is
// typically produced by the query package or read from a CSV export.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Row maps column names to values. Absent values are missing keys.
type Row map[string]string

// Get returns the value of column and whether it is set.
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Table is an immutable, ordered collection of rows.
type Table struct {
	columns []string
	rows    []Row
}

// New creates a table with the given columns. Rows are copied.
// Values for columns outside the declared set are rejected.
func New(columns []string, rows []Row) (*Table, error) {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := known[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c)
		}
		known[c] = struct{}{}
	}

	t := &Table{
		columns: slices.Clone(columns),
		rows:    make([]Row, 0, len(rows)),
	}
	for i, r := range rows {
		for k := range r {
			if _, ok := known[k]; !ok {
				return nil, fmt.Errorf("table: row %d has undeclared column %q", i, k)
			}
		}
		t.rows = append(t.rows, maps.Clone(r))
	}
	return t, nil
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HasColumns reports the sorted subset of names that the table does not declare.
func (t *Table) HasColumns(names ...string) (missing []string) {
	for _, n := range names {
		if !slices.Contains(t.columns, n) {
			missing = append(missing, n)
		}
	}
	slices.Sort(missing)
	return missing
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns a copy of row i.
func (t *Table) Row(i int) Row { return maps.Clone(t.rows[i]) }

// All iterates the rows in order.
func (t *Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, r := range t.rows {
			if !yield(i, maps.Clone(r)) {
				return
			}
		}
	}
}

// ReadCSV reads a table from CSV. The first record names the columns.
// Empty cells are stored as absent values.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("table: missing header")
		}
		return nil, fmt.Errorf("table: read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: read row %d: %w", len(rows), err)
		}

		row := make(Row, len(header))
		for i, v := range record {
			if v != "" {
				row[header[i]] = v
			}
		}
		rows = append(rows, row)
	}

	return New(header, rows)
}
