package verify

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/cdms-golden-verifier/internal/adapter/csvfile"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/couchcryptid/cdms-golden-verifier/internal/observability"
)

const chunkSize = 32 * 1024

// TableSource loads expected tables. csvfile.Codec and fixture.CachedSource
// both satisfy it.
type TableSource interface {
	ReadFile(path string) (*domain.Table, error)
}

// Options tunes comparison.
type Options struct {
	// IgnoreRowOrder sorts both tables into a canonical row order before
	// comparing. Off by default: rows are compared positionally.
	IgnoreRowOrder bool
}

// Verifier checks produced artifacts against the expected subtree of a layout.
type Verifier struct {
	layout   domain.Layout
	codec    *csvfile.Codec
	expected TableSource
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Verifier. A nil expected source reads fixtures straight
// through the codec.
func New(layout domain.Layout, codec *csvfile.Codec, expected TableSource, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Verifier {
	if expected == nil {
		expected = codec
	}
	return &Verifier{
		layout:   layout,
		codec:    codec,
		expected: expected,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// Layout returns the results layout the verifier reads and writes.
func (v *Verifier) Layout() domain.Layout {
	return v.layout
}

// WriteActual is the first pipeline stage: serialize the produced table to
// its actual path, replacing any previous run's file. When the write fails the
// previous file is removed too, so a later run never verifies stale output.
func (v *Verifier) WriteActual(path string, produced *domain.Table) error {
	err := v.codec.WriteFile(path, produced)
	if err == nil {
		return nil
	}
	if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		v.logger.Warn("remove stale actual artifact failed", "path", path, "error", rmErr)
	}
	return err
}

// Reload is the second pipeline stage: read the actual file back so that it
// carries exactly what the text format preserved.
func (v *Verifier) Reload(path string) (*domain.Table, error) {
	t, err := v.codec.ReadFile(path)
	if err != nil && errors.Is(err, domain.ErrMissingFixture) {
		// The file was just written; its absence is an I/O fault, not a missing fixture.
		return nil, notProduced(err, path)
	}
	return t, err
}

// VerifyTableAt round-trips produced through actualPath and compares it with
// the fixture at expectedPath. A mismatch is reported in the diff, never as
// an error; errors are reserved for ErrMissingFixture, ErrMalformedArtifact
// and ErrIOFailure.
func (v *Verifier) VerifyTableAt(produced *domain.Table, actualPath, expectedPath string) (domain.TableDiff, error) {
	if err := v.WriteActual(actualPath, produced); err != nil {
		return domain.TableDiff{}, err
	}
	actual, err := v.Reload(actualPath)
	if err != nil {
		return domain.TableDiff{}, err
	}
	expected, err := v.expected.ReadFile(expectedPath)
	if err != nil {
		return domain.TableDiff{}, err
	}

	if !v.opts.IgnoreRowOrder {
		return domain.CompareTables(actual, expected), nil
	}
	sortedActual, order := actual.SortedRows()
	sortedExpected, _ := expected.SortedRows()
	diff := domain.CompareTables(sortedActual, sortedExpected)
	// Report rows as the producer emitted them, not by sorted position.
	for i := range diff.Cells {
		diff.Cells[i].Row = order[diff.Cells[i].Row]
	}
	return diff, nil
}

// VerifyTable verifies a produced table under its conventional actual name,
// e.g. "climatic_summary_actual010.csv".
func (v *Verifier) VerifyTable(name string, produced *domain.Table) (domain.TableDiff, error) {
	actualPath, expectedPath, err := v.layout.Paths(name)
	if err != nil {
		return domain.TableDiff{}, err
	}
	return v.VerifyTableAt(produced, actualPath, expectedPath)
}

// VerifyBinaryAt reports whether two files are byte-identical.
func (v *Verifier) VerifyBinaryAt(actualPath, expectedPath string) (bool, error) {
	actualInfo, err := statArtifact(actualPath)
	if err != nil {
		return false, err
	}
	expectedInfo, err := statArtifact(expectedPath)
	if err != nil {
		return false, err
	}
	if actualInfo.Size() != expectedInfo.Size() {
		return false, nil
	}
	return sameContents(actualPath, expectedPath)
}

// VerifyBinary verifies a rendered artifact under its conventional actual name.
func (v *Verifier) VerifyBinary(name string) (bool, error) {
	actualPath, expectedPath, err := v.layout.Paths(name)
	if err != nil {
		return false, err
	}
	return v.VerifyBinaryAt(actualPath, expectedPath)
}

// Verify checks an artifact already present in the actual subtree and folds
// the outcome, including errors, into a report. Tables are decoded from the
// producer's file and then taken through the same round-trip as VerifyTable.
func (v *Verifier) Verify(runID, name string, kind domain.ArtifactKind) domain.Report {
	if kind == "" {
		kind = domain.KindForName(name)
	}
	report := domain.NewReport(runID, name, kind)
	start := time.Now()

	actualPath, expectedPath, err := v.layout.Paths(name)
	if err != nil {
		return v.finish(report.WithError(err), start)
	}
	report.ActualPath = actualPath
	report.ExpectedPath = expectedPath

	switch kind {
	case domain.ArtifactTable:
		produced, err := v.codec.ReadFile(actualPath)
		if err != nil {
			if errors.Is(err, domain.ErrMissingFixture) {
				err = notProduced(err, actualPath)
			}
			return v.finish(report.WithError(err), start)
		}
		diff, err := v.VerifyTableAt(produced, actualPath, expectedPath)
		if err != nil {
			return v.finish(report.WithError(err), start)
		}
		v.metrics.CellMismatches.Add(float64(len(diff.Cells)))
		return v.finish(report.WithTableDiff(diff), start)
	default:
		equal, err := v.VerifyBinaryAt(actualPath, expectedPath)
		if err != nil {
			return v.finish(report.WithError(err), start)
		}
		return v.finish(report.WithBinaryResult(equal), start)
	}
}

func (v *Verifier) finish(r domain.Report, start time.Time) domain.Report {
	v.metrics.Verifications.WithLabelValues(string(r.Kind), string(r.Outcome)).Inc()
	v.metrics.VerificationDuration.WithLabelValues(string(r.Kind)).Observe(time.Since(start).Seconds())

	switch r.Outcome {
	case domain.OutcomePass:
		v.logger.Debug("artifact verified", "name", r.Name, "kind", r.Kind, "outcome", r.Outcome)
	case domain.OutcomeMismatch:
		v.logger.Warn("artifact differs from fixture",
			"name", r.Name, "kind", r.Kind, "detail", r.Detail, "cells", len(r.Cells))
	default:
		v.logger.Error("artifact verification failed",
			"name", r.Name, "kind", r.Kind, "error_kind", r.ErrorKind, "error", r.Error)
	}
	return r
}

// notProduced reclassifies a missing actual file as an I/O failure: only
// expected artifacts are fixtures. The MissingFixture sentinel is dropped from
// the chain and only the underlying cause is kept.
func notProduced(err error, path string) error {
	cause := err
	var ae *domain.ArtifactError
	if errors.As(err, &ae) && ae.Err != nil {
		cause = ae.Err
	}
	return domain.NewPathError(domain.ErrIOFailure, path, fmt.Errorf("actual artifact not produced: %w", cause))
}

func statArtifact(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewPathError(domain.ErrMissingFixture, path, err)
		}
		return nil, domain.NewPathError(domain.ErrIOFailure, path, err)
	}
	if info.IsDir() {
		return nil, domain.NewPathError(domain.ErrIOFailure, path, errors.New("is a directory"))
	}
	return info, nil
}

func sameContents(aPath, bPath string) (bool, error) {
	a, err := os.Open(aPath)
	if err != nil {
		return false, domain.NewPathError(domain.ErrIOFailure, aPath, err)
	}
	defer a.Close()

	b, err := os.Open(bPath)
	if err != nil {
		return false, domain.NewPathError(domain.ErrIOFailure, bPath, err)
	}
	defer b.Close()

	ra := bufio.NewReaderSize(a, chunkSize)
	rb := bufio.NewReaderSize(b, chunkSize)
	bufA := make([]byte, chunkSize)
	bufB := make([]byte, chunkSize)
	for {
		na, errA := io.ReadFull(ra, bufA)
		nb, errB := io.ReadFull(rb, bufB)
		if errA != nil && !isEOF(errA) {
			return false, domain.NewPathError(domain.ErrIOFailure, aPath, errA)
		}
		if errB != nil && !isEOF(errB) {
			return false, domain.NewPathError(domain.ErrIOFailure, bPath, errB)
		}
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if isEOF(errA) || isEOF(errB) {
			return isEOF(errA) && isEOF(errB), nil
		}
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
