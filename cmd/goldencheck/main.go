// Command goldencheck verifies every actual artifact in a results layout
// against its committed golden file and prints a pass/fail summary.
//
// Usage:
//
//	go run ./cmd/goldencheck -results-dir results
//	go run ./cmd/goldencheck -results-dir results climatic_summary_actual010.csv
//	go run ./cmd/goldencheck -results-dir results -update
//
// With -update the actual artifacts are promoted to expected instead of being
// checked. Exit status is 0 when everything passes, 1 on any mismatch or
// verification error, and 2 on usage or configuration errors.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/cdms-golden-verifier/internal/config"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/couchcryptid/cdms-golden-verifier/internal/fixture"
	"github.com/couchcryptid/cdms-golden-verifier/internal/observability"
	"github.com/couchcryptid/cdms-golden-verifier/internal/verify"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	exitOK       = 0
	exitFailures = 1
	exitUsage    = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("goldencheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	resultsDir := fs.String("results-dir", "", "results root holding actual/ and expected/ (default $RESULTS_DIR)")
	actualDir := fs.String("actual-dir", "", "override the actual subtree")
	expectedDir := fs.String("expected-dir", "", "override the expected subtree")
	update := fs.Bool("update", false, "promote actual artifacts to expected instead of verifying")
	asJSON := fs.Bool("json", false, "print one JSON report per line")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: load config: %v\n", err)
		return exitUsage
	}
	applyDirFlags(cfg, *resultsDir, *actualDir, *expectedDir)
	if cfg.ActualDir == cfg.ExpectedDir {
		fmt.Fprintln(stderr, "FATAL: actual and expected directories must differ")
		return exitUsage
	}

	// Progress goes to stdout as text; structured logs stay on stderr.
	logger := observability.NewLoggerTo(stderr, cfg)
	v := verify.NewFromConfig(cfg, logger, observability.NewMetricsWith(prometheus.NewRegistry()))

	names := fs.Args()
	if len(names) == 0 {
		names, err = v.Discover()
		if err != nil {
			fmt.Fprintf(stderr, "FATAL: discover artifacts: %v\n", err)
			return exitFailures
		}
	}

	if *update {
		return promote(v.Layout(), names, stdout, stderr)
	}

	runID := uuid.NewString()
	reports := v.RunSuite(runID, names)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				fmt.Fprintf(stderr, "FATAL: encode report: %v\n", err)
				return exitFailures
			}
		}
	} else {
		printReports(stdout, runID, cfg.ActualDir, reports)
	}

	if !verify.Summarize(reports).OK() {
		return exitFailures
	}
	return exitOK
}

func applyDirFlags(cfg *config.Config, resultsDir, actualDir, expectedDir string) {
	if resultsDir != "" {
		cfg.ResultsDir = resultsDir
		cfg.ActualDir = filepath.Join(resultsDir, "actual")
		cfg.ExpectedDir = filepath.Join(resultsDir, "expected")
	}
	if actualDir != "" {
		cfg.ActualDir = actualDir
	}
	if expectedDir != "" {
		cfg.ExpectedDir = expectedDir
	}
}

func promote(layout domain.Layout, names []string, stdout, stderr io.Writer) int {
	code := exitOK
	for _, name := range names {
		path, err := fixture.Promote(layout, name)
		if err != nil {
			fmt.Fprintf(stderr, "  %-42s \033[31mFAIL\033[0m %v\n", name, err)
			code = exitFailures
			continue
		}
		fmt.Fprintf(stdout, "  %-42s -> %s\n", name, path)
	}
	return code
}

func printReports(w io.Writer, runID, actualDir string, reports []domain.Report) {
	fmt.Fprintf(w, "=== Golden Output Verification (%s) ===\n", actualDir)
	fmt.Fprintf(w, "run %s\n\n", runID)

	for _, r := range reports {
		status := "\033[32mPASS\033[0m"
		switch r.Outcome {
		case domain.OutcomeMismatch:
			status = "\033[31mFAIL\033[0m " + r.Detail
		case domain.OutcomeError:
			status = "\033[31mERROR\033[0m " + r.ErrorKind
		}
		fmt.Fprintf(w, "  %-42s %s\n", r.Name, status)
	}

	// Print detailed differences.
	for _, r := range reports {
		if r.Passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", r.Name)
		if r.Error != "" {
			fmt.Fprintf(w, "  %s\n", r.Error)
		}
		for i, c := range r.Cells {
			fmt.Fprintf(w, "  [%d] row %d column %q: actual %s, expected %s\n", i+1, c.Row, c.Column, c.Actual, c.Expected)
		}
	}

	s := verify.Summarize(reports)
	fmt.Fprintf(w, "\n%d artifacts: %d passed, %d mismatched, %d errored\n", s.Total(), s.Passed, s.Mismatched, s.Errored)
	if s.OK() {
		fmt.Fprintln(w, "\nAll artifacts match their fixtures.")
		return
	}
	fmt.Fprintln(w, "\nVerification FAILED.")
}
