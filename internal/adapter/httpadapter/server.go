package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxRequestBytes caps the body of a verification request.
const maxRequestBytes = 64 << 10

// ArtifactVerifier checks one named artifact against its golden fixture.
type ArtifactVerifier interface {
	Verify(runID, name string, kind domain.ArtifactKind) domain.Report
}

// Server exposes health, readiness, metrics, and on-demand verification endpoints.
type Server struct {
	httpServer *http.Server
	verifier   ArtifactVerifier
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /verify routes. A nil verifier leaves /verify unregistered.
func NewServer(addr string, ready sharedobs.ReadinessChecker, verifier ArtifactVerifier, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		verifier: verifier,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if verifier != nil {
		mux.HandleFunc("POST /verify", s.handleVerify)
	}

	return s
}

// handleVerify runs one verification synchronously. The body is the same
// JSON request the Kafka consumer accepts. A mismatch is still a 200: the
// outcome lives in the report.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req, err := domain.ParseRawEvent(domain.RawEvent{Value: body})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	report := s.verifier.Verify(req.RunID, req.Name, req.Kind)
	s.logger.Info("on-demand verification",
		"run_id", report.RunID, "name", report.Name, "outcome", report.Outcome)
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
