package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome is the verdict of one verification.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	// OutcomeMismatch is a normal failed assertion, not a system fault.
	OutcomeMismatch Outcome = "mismatch"
	OutcomeError    Outcome = "error"
)

// CellReport is the serialized form of a CellDiff.
type CellReport struct {
	Row      int    `json:"row"`
	Column   string `json:"column"`
	Actual   string `json:"actual"`
	Expected string `json:"expected"`
}

// Report describes one verified artifact.
type Report struct {
	RunID        string       `json:"run_id"`
	Name         string       `json:"name"`
	Kind         ArtifactKind `json:"kind"`
	Outcome      Outcome      `json:"outcome"`
	ErrorKind    string       `json:"error_kind,omitempty"`
	Error        string       `json:"error,omitempty"`
	ActualPath   string       `json:"actual_path,omitempty"`
	ExpectedPath string       `json:"expected_path,omitempty"`
	Detail       string       `json:"detail,omitempty"`
	Cells        []CellReport `json:"cells,omitempty"`
	VerifiedAt   time.Time    `json:"verified_at"`
}

// NewReport starts a report stamped with the package clock.
func NewReport(runID, name string, kind ArtifactKind) Report {
	return Report{
		RunID:      runID,
		Name:       name,
		Kind:       kind,
		VerifiedAt: clock.Now().UTC(),
	}
}

// Passed reports whether the artifact matched its fixture.
func (r Report) Passed() bool { return r.Outcome == OutcomePass }

// WithError records a verification error.
func (r Report) WithError(err error) Report {
	r.Outcome = OutcomeError
	r.ErrorKind = ErrorKindOf(err)
	r.Error = err.Error()
	return r
}

// WithTableDiff records the result of a table comparison.
func (r Report) WithTableDiff(d TableDiff) Report {
	if d.Equal() {
		r.Outcome = OutcomePass
		return r
	}
	r.Outcome = OutcomeMismatch
	switch {
	case !d.ColumnsMatch():
		r.Detail = "column sets differ"
	case !d.RowsMatch():
		r.Detail = "row counts differ"
	default:
		r.Detail = "cell values differ"
	}
	r.Cells = make([]CellReport, len(d.Cells))
	for i, c := range d.Cells {
		r.Cells[i] = CellReport{Row: c.Row, Column: c.Column, Actual: c.Actual.String(), Expected: c.Expected.String()}
	}
	return r
}

// WithBinaryResult records the result of a byte comparison.
func (r Report) WithBinaryResult(equal bool) Report {
	if equal {
		r.Outcome = OutcomePass
		return r
	}
	r.Outcome = OutcomeMismatch
	r.Detail = "file contents differ"
	return r
}

// SerializeReport converts a report into the message published on the report topic.
func SerializeReport(r Report) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(r.Name),
		Value: data,
		Headers: map[string]string{
			"outcome":     string(r.Outcome),
			"run_id":      r.RunID,
			"verified_at": r.VerifiedAt.Format(time.RFC3339),
		},
	}, nil
}
