package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all verifier settings, populated from environment variables.
type Config struct {
	// Results layout.
	ResultsDir  string
	ActualDir   string
	ExpectedDir string

	// Canonical CSV encoding.
	NAToken        string
	NARep          string
	DateColumns    []string
	DayFirst       bool
	FloatPrecision int
	IgnoreRowOrder bool

	FixtureCacheSize int

	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	dayFirst, err := parseBool("DAY_FIRST", true)
	if err != nil {
		return nil, err
	}

	ignoreRowOrder, err := parseBool("IGNORE_ROW_ORDER", false)
	if err != nil {
		return nil, err
	}

	precision, err := parseFloatPrecision()
	if err != nil {
		return nil, err
	}

	resultsDir := sharedcfg.EnvOrDefault("RESULTS_DIR", "results")

	cfg := &Config{
		ResultsDir:     resultsDir,
		ActualDir:      sharedcfg.EnvOrDefault("ACTUAL_DIR", filepath.Join(resultsDir, "actual")),
		ExpectedDir:    sharedcfg.EnvOrDefault("EXPECTED_DIR", filepath.Join(resultsDir, "expected")),
		NAToken:        sharedcfg.EnvOrDefault("NA_TOKEN", "NA"),
		NARep:          os.Getenv("NA_REP"),
		DateColumns:    parseList(os.Getenv("DATE_COLUMNS")),
		DayFirst:       dayFirst,
		FloatPrecision: precision,
		IgnoreRowOrder: ignoreRowOrder,

		FixtureCacheSize: parseFixtureCacheSize(),

		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "artifact-produced"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "artifact-verified"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "cdms-golden-verifier"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.ActualDir == cfg.ExpectedDir {
		return nil, errors.New("ACTUAL_DIR and EXPECTED_DIR must differ")
	}

	return cfg, nil
}

// parseList splits a comma-separated value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

// parseFloatPrecision reads FLOAT_PRECISION; -1 keeps full round-trip precision.
func parseFloatPrecision() (int, error) {
	s := os.Getenv("FLOAT_PRECISION")
	if s == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < -1 || n > 17 {
		return 0, errors.New("invalid FLOAT_PRECISION: must be -1 or 0..17")
	}
	return n, nil
}

func parseFixtureCacheSize() int {
	if s := os.Getenv("FIXTURE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 100
}
