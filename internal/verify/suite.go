package verify

import (
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
)

// Summary tallies a suite run.
type Summary struct {
	Passed     int
	Mismatched int
	Errored    int
}

// Total returns the number of verified artifacts.
func (s Summary) Total() int { return s.Passed + s.Mismatched + s.Errored }

// OK reports whether every artifact passed.
func (s Summary) OK() bool { return s.Mismatched == 0 && s.Errored == 0 }

// Summarize tallies reports by outcome.
func Summarize(reports []domain.Report) Summary {
	var s Summary
	for _, r := range reports {
		switch r.Outcome {
		case domain.OutcomePass:
			s.Passed++
		case domain.OutcomeMismatch:
			s.Mismatched++
		default:
			s.Errored++
		}
	}
	return s
}

// Discover lists the artifact names in the actual subtree that follow the
// naming convention, sorted. Hidden files (including in-flight temporary
// writes) and directories are skipped.
func (v *Verifier) Discover() ([]string, error) {
	entries, err := os.ReadDir(v.layout.ActualDir)
	if err != nil {
		return nil, domain.NewPathError(domain.ErrIOFailure, v.layout.ActualDir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !domain.IsActualName(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RunSuite verifies each named artifact in order.
func (v *Verifier) RunSuite(runID string, names []string) []domain.Report {
	reports := make([]domain.Report, 0, len(names))
	for _, name := range names {
		reports = append(reports, v.Verify(runID, name, ""))
	}
	s := Summarize(reports)
	v.logger.Info("suite verified",
		"run_id", runID,
		"total", s.Total(),
		"passed", s.Passed,
		"mismatched", s.Mismatched,
		"errored", s.Errored,
	)
	return reports
}
