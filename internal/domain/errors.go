package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFixture means an expected artifact was never generated or committed.
	ErrMissingFixture = errors.New("missing fixture")
	// ErrMalformedArtifact means the producer returned data the serializer cannot encode.
	ErrMalformedArtifact = errors.New("malformed artifact")
	// ErrIOFailure covers disk and permission errors.
	ErrIOFailure = errors.New("io failure")
	// ErrNamingConvention means an artifact name lacks the "actual" token.
	ErrNamingConvention = errors.New("naming convention violation")
)

// ArtifactError carries enough context to locate a verification failure.
// Row is -1 when the failure is not tied to a row.
type ArtifactError struct {
	Kind   error
	Path   string
	Column string
	Row    int
	Err    error
}

func (e *ArtifactError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q", e.Column)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause to errors.Is.
func (e *ArtifactError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewPathError builds an ArtifactError for a whole file.
func NewPathError(kind error, path string, err error) *ArtifactError {
	return &ArtifactError{Kind: kind, Path: path, Row: -1, Err: err}
}

// NewCellError builds an ArtifactError pointing at a column, and a row when row >= 0.
func NewCellError(kind error, path, column string, row int, err error) *ArtifactError {
	return &ArtifactError{Kind: kind, Path: path, Column: column, Row: row, Err: err}
}

// ErrorKindOf maps an error to the label used in reports and metrics.
func ErrorKindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingFixture):
		return "missing_fixture"
	case errors.Is(err, ErrMalformedArtifact):
		return "malformed_artifact"
	case errors.Is(err, ErrNamingConvention):
		return "naming_convention"
	case errors.Is(err, ErrIOFailure):
		return "io_failure"
	default:
		return "unknown"
	}
}
