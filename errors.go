package cocogo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema is returned when a persisted dataset document is malformed or incomplete.
	ErrSchema = errors.New("schema violation")

	// ErrValidation is returned when caller input does not match what an operation requires.
	ErrValidation = errors.New("validation failed")

	// ErrAllocationInvariant is returned when more than one allocated entry matches a natural key.
	ErrAllocationInvariant = errors.New("allocation invariant violated")

	// ErrResolution is returned when a folder reference cannot be resolved to storage locations.
	ErrResolution = errors.New("resolution failed")

	// ErrNoCandidates indicates that a channel prefix holds no candidate objects.
	ErrNoCandidates = errors.New("no candidate locations")

	// ErrFrameOutOfRange indicates that the configured frame index exceeds the available candidates.
	ErrFrameOutOfRange = errors.New("frame index out of range")

	// ErrEmptyResult is returned when a query produced zero rows.
	ErrEmptyResult = errors.New("empty result")

	// ErrDanglingReference is returned when an annotation references an image or
	// category that is not part of the dataset.
	ErrDanglingReference = errors.New("dangling reference")
)

// SchemaError describes a malformed persisted dataset document.
//
// Path is a JSON-pointer-like location of the offending element
// (e.g. "images[3].file_name"). The original underlying error (if any)
// can be accessed via errors.Unwrap.
type SchemaError struct {
	Path   string
	Reason string
	cause  error
}

func newSchemaError(path, reason string, cause error) *SchemaError {
	return &SchemaError{Path: path, Reason: reason, cause: cause}
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema violation: %s", e.Reason)
	}
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func (e *SchemaError) Unwrap() error { return e.cause }

// ValidationError reports the exact offending set of names or fields.
//
// Missing lists names that were expected but not supplied, Unknown lists
// names that were supplied but are not recognized. Both are sorted.
type ValidationError struct {
	Field   string
	Missing []string
	Unknown []string
	Reason  string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	if e.Field != "" {
		b.WriteString(" for ")
		b.WriteString(e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": missing %q", e.Missing)
	}
	if len(e.Unknown) > 0 {
		fmt.Fprintf(&b, ": unknown %q", e.Unknown)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AllocationInvariantError indicates corrupted allocator state: more than one
// existing entry shares the same natural key.
type AllocationInvariantError struct {
	Kind    string // "image" or "category"
	Key     string
	Matches int
}

func (e *AllocationInvariantError) Error() string {
	return fmt.Sprintf("%s %q has %d matches", e.Kind, e.Key, e.Matches)
}

func (e *AllocationInvariantError) Is(target error) bool { return target == ErrAllocationInvariant }

// ResolutionError is returned by resolvers when a folder cannot be mapped to
// a storage location. It matches ErrResolution and, depending on the cause,
// ErrNoCandidates or ErrFrameOutOfRange.
type ResolutionError struct {
	Prefix    string
	Frame     int
	Available int
	kind      error
}

// NewNoCandidatesError creates a ResolutionError for an empty prefix.
func NewNoCandidatesError(prefix string) *ResolutionError {
	return &ResolutionError{Prefix: prefix, kind: ErrNoCandidates}
}

// NewFrameOutOfRangeError creates a ResolutionError for a frame index that
// exceeds the number of available candidates.
func NewFrameOutOfRangeError(prefix string, frame, available int) *ResolutionError {
	return &ResolutionError{Prefix: prefix, Frame: frame, Available: available, kind: ErrFrameOutOfRange}
}

func (e *ResolutionError) Error() string {
	if e.kind == ErrFrameOutOfRange {
		return fmt.Sprintf("missing frame: %d of %d in folder %q", e.Frame, e.Available, e.Prefix)
	}
	return fmt.Sprintf("storage path empty: %q", e.Prefix)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

func (e *ResolutionError) Unwrap() error { return e.kind }

// EmptyResultError is returned when a query returns zero rows.
type EmptyResultError struct {
	Statement string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("query returned no rows:\n%s", e.Statement)
}

func (e *EmptyResultError) Is(target error) bool { return target == ErrEmptyResult }
