package verify

import (
	"log/slog"

	"github.com/couchcryptid/cdms-golden-verifier/internal/adapter/csvfile"
	"github.com/couchcryptid/cdms-golden-verifier/internal/config"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/couchcryptid/cdms-golden-verifier/internal/fixture"
	"github.com/couchcryptid/cdms-golden-verifier/internal/observability"
)

// CodecOptions derives the canonical CSV options from configuration.
func CodecOptions(cfg *config.Config) csvfile.Options {
	opts := csvfile.DefaultOptions()
	opts.NAValues = []string{cfg.NAToken}
	opts.NARep = cfg.NARep
	opts.DateColumns = cfg.DateColumns
	opts.DayFirst = cfg.DayFirst
	opts.Precision = cfg.FloatPrecision
	return opts
}

// NewFromConfig wires a Verifier with a cached fixture source.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Verifier {
	codec := csvfile.New(CodecOptions(cfg))
	layout := domain.Layout{ActualDir: cfg.ActualDir, ExpectedDir: cfg.ExpectedDir}
	expected := fixture.NewCachedSource(codec, cfg.FixtureCacheSize, metrics)
	return New(layout, codec, expected, Options{IgnoreRowOrder: cfg.IgnoreRowOrder}, logger, metrics)
}
