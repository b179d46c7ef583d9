// Package query builds and runs the SQL queries that select labelled captures.
//
// A CapturesQuery selects up to SamplesPerClass rows per class from a captures
// table. The Client runs it through gorm against SQLite or MySQL and returns
// the result as a table.Table ready for the builder.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hupe1980/cocogo"
)

// Column names of the captures table.
const (
	ColumnBucketRegion       = "BucketRegion"
	ColumnS3Bucket           = "S3Bucket"
	ColumnCaptureFolderID    = "CaptureFolderId"
	ColumnSpecificationClass = "SpecificationClass"
	ColumnCaptureDate        = "CaptureDate"
	ColumnBoothName          = "BoothName"
)

// selected lists the columns returned by CapturesQuery, in order.
var selected = []string{
	ColumnBucketRegion,
	ColumnS3Bucket,
	ColumnCaptureFolderID,
	ColumnSpecificationClass,
	ColumnCaptureDate,
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Query is a parameterized SQL statement.
type Query struct {
	Statement string
	Args      []any
}

func (q Query) String() string { return q.Statement }

// CapturesQuery selects labelled captures.
type CapturesQuery struct {
	// Table is the captures table, optionally schema-qualified.
	Table string
	// Booth restricts the result to one booth when set.
	Booth string
	// Classes restricts the result to these classes. Empty selects all classes.
	Classes []string
	// SamplesPerClass caps the number of rows per class. Zero means no cap.
	SamplesPerClass int
	// StartDate and EndDate bound CaptureDate to [StartDate, EndDate).
	// Either may be empty.
	StartDate string
	EndDate   string
}

// Build renders the query. Rows are ordered by class, then capture date and
// folder, so equal database contents yield equal results.
func (cq CapturesQuery) Build() (Query, error) {
	if !identifier.MatchString(cq.Table) {
		return Query{}, &cocogo.ValidationError{
			Field:  "table",
			Reason: fmt.Sprintf("invalid identifier %q", cq.Table),
		}
	}
	if cq.SamplesPerClass < 0 {
		return Query{}, &cocogo.ValidationError{
			Field:  "samples_per_class",
			Reason: fmt.Sprintf("must be non-negative, got %d", cq.SamplesPerClass),
		}
	}

	var (
		where []string
		args  []any
	)
	if cq.Booth != "" {
		where = append(where, ColumnBoothName+" = ?")
		args = append(args, cq.Booth)
	}
	if len(cq.Classes) > 0 {
		where = append(where, ColumnSpecificationClass+" IN ("+placeholders(len(cq.Classes))+")")
		for _, c := range cq.Classes {
			args = append(args, c)
		}
	}
	if cq.StartDate != "" {
		where = append(where, ColumnCaptureDate+" >= ?")
		args = append(args, cq.StartDate)
	}
	if cq.EndDate != "" {
		where = append(where, ColumnCaptureDate+" < ?")
		args = append(args, cq.EndDate)
	}

	columns := strings.Join(selected, ", ")
	order := ColumnCaptureDate + ", " + ColumnCaptureFolderID

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s\nFROM (\n", columns)
	fmt.Fprintf(&b, "  SELECT %s,\n", columns)
	fmt.Fprintf(&b, "    ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS rn\n", ColumnSpecificationClass, order)
	fmt.Fprintf(&b, "  FROM %s\n", cq.Table)
	if len(where) > 0 {
		fmt.Fprintf(&b, "  WHERE %s\n", strings.Join(where, "\n    AND "))
	}
	b.WriteString(") ranked\n")
	if cq.SamplesPerClass > 0 {
		b.WriteString("WHERE rn <= ?\n")
		args = append(args, cq.SamplesPerClass)
	}
	fmt.Fprintf(&b, "ORDER BY %s, %s", ColumnSpecificationClass, order)

	return Query{Statement: b.String(), Args: args}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
