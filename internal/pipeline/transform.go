package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/google/uuid"
)

// ArtifactVerifier checks one named artifact against its golden fixture.
type ArtifactVerifier interface {
	Verify(runID, name string, kind domain.ArtifactKind) domain.Report
}

// VerifyTransformer implements Transformer by running the verifier for each
// request and serializing the resulting report.
type VerifyTransformer struct {
	verifier ArtifactVerifier
	logger   *slog.Logger
	newRunID func() string
}

// NewTransformer creates a VerifyTransformer. Requests without a run ID get a
// fresh UUID so reports from unrelated producers can still be told apart.
func NewTransformer(verifier ArtifactVerifier, logger *slog.Logger) *VerifyTransformer {
	return &VerifyTransformer{
		verifier: verifier,
		logger:   logger,
		newRunID: uuid.NewString,
	}
}

// Transform returns an error only when the request itself is unusable. A
// mismatch or a failed verification is a report, not an error.
func (t *VerifyTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.OutputEvent{}, err
	}

	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if req.RunID == "" {
		req.RunID = t.newRunID()
	}

	report := t.verifier.Verify(req.RunID, req.Name, req.Kind)
	if !report.Passed() {
		t.logger.Debug("artifact did not pass",
			"run_id", report.RunID,
			"name", report.Name,
			"outcome", report.Outcome,
			"detail", report.Detail,
		)
	}
	return domain.SerializeReport(report)
}
