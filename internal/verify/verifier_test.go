package verify

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/cdms-golden-verifier/internal/adapter/csvfile"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/couchcryptid/cdms-golden-verifier/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	summaryName     = "climatic_summary_actual010.csv"
	summaryExpected = "climatic_summary_expected010.csv"
	summaryCSV      = "mean_rain,sd_rain,mean_tmax,sd_tmax\n1.574531,6.960521,28.942301,2.188736\n"
	testRunID       = "run-1"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixtureEnv struct {
	layout   domain.Layout
	verifier *Verifier
	metrics  *observability.Metrics
}

func newEnv(t *testing.T, opts Options) fixtureEnv {
	t.Helper()
	layout := domain.NewLayout(t.TempDir())
	require.NoError(t, os.MkdirAll(layout.ActualDir, 0o755))
	require.NoError(t, os.MkdirAll(layout.ExpectedDir, 0o755))

	metrics := observability.NewMetricsForTesting()
	codec := csvfile.New(csvfile.DefaultOptions())
	return fixtureEnv{
		layout:   layout,
		verifier: New(layout, codec, nil, opts, discardLogger(), metrics),
		metrics:  metrics,
	}
}

func (e fixtureEnv) writeExpected(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.layout.ExpectedDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (e fixtureEnv) writeActual(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(e.layout.ActualDir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func summaryTable(t *testing.T, sdTmax float64) *domain.Table {
	t.Helper()
	tbl, err := domain.NewTable(
		domain.Column{Name: "mean_rain", Values: []domain.Value{domain.Number(1.574531)}},
		domain.Column{Name: "sd_rain", Values: []domain.Value{domain.Number(6.960521)}},
		domain.Column{Name: "mean_tmax", Values: []domain.Value{domain.Number(28.942301)}},
		domain.Column{Name: "sd_tmax", Values: []domain.Value{domain.Number(sdTmax)}},
	)
	require.NoError(t, err)
	return tbl
}

func TestVerifyTable_Match(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeExpected(t, summaryExpected, summaryCSV)

	diff, err := env.verifier.VerifyTable(summaryName, summaryTable(t, 2.188736))
	require.NoError(t, err)
	assert.True(t, diff.Equal())

	written, err := os.ReadFile(filepath.Join(env.layout.ActualDir, summaryName))
	require.NoError(t, err)
	assert.Equal(t, summaryCSV, string(written), "actual artifact persisted in canonical form")
}

func TestVerifyTable_SingleCellMismatch(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeExpected(t, summaryExpected, summaryCSV)

	diff, err := env.verifier.VerifyTable(summaryName, summaryTable(t, 2.2))
	require.NoError(t, err, "a mismatch is a result, not an error")
	assert.False(t, diff.Equal())
	require.Len(t, diff.Cells, 1)
	assert.Equal(t, 0, diff.Cells[0].Row)
	assert.Equal(t, "sd_tmax", diff.Cells[0].Column)
	assert.Equal(t, "2.2", diff.Cells[0].Actual.String())
	assert.Equal(t, "2.188736", diff.Cells[0].Expected.String())
}

func TestVerifyTable_MissingFixture(t *testing.T) {
	env := newEnv(t, Options{})

	_, err := env.verifier.VerifyTable(summaryName, summaryTable(t, 2.188736))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingFixture)
	assert.Contains(t, err.Error(), summaryExpected)

	_, statErr := os.Stat(filepath.Join(env.layout.ActualDir, summaryName))
	assert.NoError(t, statErr, "actual artifact is still written for review")
}

func TestVerifyTable_Malformed(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeExpected(t, summaryExpected, summaryCSV)
	bad := &domain.Table{Columns: []domain.Column{{Name: "mean_rain", Values: []domain.Value{{}}}}}

	_, err := env.verifier.VerifyTable(summaryName, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedArtifact)

	_, statErr := os.Stat(filepath.Join(env.layout.ActualDir, summaryName))
	assert.True(t, os.IsNotExist(statErr), "no partial actual artifact")
}

func TestVerifyTable_MalformedRemovesPreviousActual(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeExpected(t, summaryExpected, summaryCSV)

	diff, err := env.verifier.VerifyTable(summaryName, summaryTable(t, 2.188736))
	require.NoError(t, err)
	require.True(t, diff.Equal())

	bad := &domain.Table{Columns: []domain.Column{{Name: "x", Values: []domain.Value{{}}}}}
	_, err = env.verifier.VerifyTable(summaryName, bad)
	require.ErrorIs(t, err, domain.ErrMalformedArtifact)

	_, statErr := os.Stat(filepath.Join(env.layout.ActualDir, summaryName))
	assert.True(t, os.IsNotExist(statErr), "previous actual artifact removed")

	later := env.verifier.Verify("later", summaryName, "")
	assert.Equal(t, domain.OutcomeError, later.Outcome)
	assert.Equal(t, "io_failure", later.ErrorKind)
}

func TestVerifyTable_NamingConvention(t *testing.T) {
	env := newEnv(t, Options{})

	_, err := env.verifier.VerifyTable("climatic_summary010.csv", summaryTable(t, 2.188736))
	assert.ErrorIs(t, err, domain.ErrNamingConvention)
}

func TestVerifyTable_Symmetric(t *testing.T) {
	env := newEnv(t, Options{})
	codec := csvfile.New(csvfile.DefaultOptions())
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.csv")
	pathB := filepath.Join(dir, "b.csv")
	require.NoError(t, codec.WriteFile(pathA, summaryTable(t, 2.2)))
	require.NoError(t, codec.WriteFile(pathB, summaryTable(t, 2.188736)))

	ab, err := env.verifier.VerifyTableAt(summaryTable(t, 2.2), filepath.Join(dir, "x_actual.csv"), pathB)
	require.NoError(t, err)
	ba, err := env.verifier.VerifyTableAt(summaryTable(t, 2.188736), filepath.Join(dir, "y_actual.csv"), pathA)
	require.NoError(t, err)

	assert.Equal(t, len(ab.Cells), len(ba.Cells))
	assert.Equal(t, ab.Equal(), ba.Equal())
}

func TestVerifyTable_PrecisionNormalizedByRoundTrip(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeExpected(t, "t_expected001.csv", "value\n0.30000000000000004\n")

	tbl, err := domain.NewTable(domain.Column{Name: "value", Values: []domain.Value{domain.Number(0.1 + 0.2)}})
	require.NoError(t, err)

	diff, err := env.verifier.VerifyTable("t_actual001.csv", tbl)
	require.NoError(t, err)
	assert.True(t, diff.Equal())
}

func TestVerifyTable_IgnoreRowOrder(t *testing.T) {
	expected := "station,rain\nNiamey,3\nAgades,1\n"
	tbl, err := domain.NewTableFromRows([]string{"station", "rain"}, [][]domain.Value{
		{domain.Text("Agades"), domain.Number(1)},
		{domain.Text("Niamey"), domain.Number(3)},
	})
	require.NoError(t, err)

	positional := newEnv(t, Options{})
	positional.writeExpected(t, "inv_expected001.csv", expected)
	diff, err := positional.verifier.VerifyTable("inv_actual001.csv", tbl)
	require.NoError(t, err)
	assert.False(t, diff.Equal())

	unordered := newEnv(t, Options{IgnoreRowOrder: true})
	unordered.writeExpected(t, "inv_expected001.csv", expected)
	diff, err = unordered.verifier.VerifyTable("inv_actual001.csv", tbl)
	require.NoError(t, err)
	assert.True(t, diff.Equal())
}

func TestVerifyTable_IgnoreRowOrderReportsProducedRow(t *testing.T) {
	env := newEnv(t, Options{IgnoreRowOrder: true})
	env.writeExpected(t, "inv_expected001.csv", "station,rain\nAgades,1\nNiamey,3\nZinder,5\n")
	tbl, err := domain.NewTableFromRows([]string{"station", "rain"}, [][]domain.Value{
		{domain.Text("Niamey"), domain.Number(4)},
		{domain.Text("Zinder"), domain.Number(5)},
		{domain.Text("Agades"), domain.Number(1)},
	})
	require.NoError(t, err)

	diff, err := env.verifier.VerifyTable("inv_actual001.csv", tbl)
	require.NoError(t, err)
	require.Len(t, diff.Cells, 1)
	assert.Equal(t, 0, diff.Cells[0].Row, "row index as produced, not as sorted")
	assert.Equal(t, "rain", diff.Cells[0].Column)
	assert.True(t, diff.Cells[0].Actual.Equal(domain.Number(4)))
}

func TestWriteActualReload_Idempotent(t *testing.T) {
	env := newEnv(t, Options{})
	path := filepath.Join(env.layout.ActualDir, summaryName)

	require.NoError(t, env.verifier.WriteActual(path, summaryTable(t, 2.188736)))
	first, err := env.verifier.Reload(path)
	require.NoError(t, err)

	require.NoError(t, env.verifier.WriteActual(path, first))
	second, err := env.verifier.Reload(path)
	require.NoError(t, err)

	assert.True(t, domain.CompareTables(first, second).Equal())
}

func TestReload_MissingIsIOFailure(t *testing.T) {
	env := newEnv(t, Options{})

	_, err := env.verifier.Reload(filepath.Join(env.layout.ActualDir, "gone_actual001.csv"))
	assert.ErrorIs(t, err, domain.ErrIOFailure)
}

func TestVerifyBinary(t *testing.T) {
	env := newEnv(t, Options{})
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	env.writeActual(t, "inventory_plot_actual010.jpg", jpeg)
	require.NoError(t, os.WriteFile(filepath.Join(env.layout.ExpectedDir, "inventory_plot_expected010.jpg"), jpeg, 0o644))

	equal, err := env.verifier.VerifyBinary("inventory_plot_actual010.jpg")
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestVerifyBinary_Differs(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeActual(t, "p_actual001.jpg", []byte("abcd"))
	require.NoError(t, os.WriteFile(filepath.Join(env.layout.ExpectedDir, "p_expected001.jpg"), []byte("abce"), 0o644))

	equal, err := env.verifier.VerifyBinary("p_actual001.jpg")
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestVerifyBinary_DifferentSizes(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeActual(t, "p_actual001.jpg", []byte("abcd"))
	require.NoError(t, os.WriteFile(filepath.Join(env.layout.ExpectedDir, "p_expected001.jpg"), []byte("abc"), 0o644))

	equal, err := env.verifier.VerifyBinary("p_actual001.jpg")
	require.NoError(t, err)
	assert.False(t, equal)
}

func TestVerifyBinary_LargeFilesDifferInLastChunk(t *testing.T) {
	env := newEnv(t, Options{})
	a := make([]byte, 3*chunkSize+17)
	for i := range a {
		a[i] = byte(i % 251)
	}
	b := append([]byte(nil), a...)
	b[len(b)-1] ^= 0xff

	pathA := env.writeActual(t, "big_actual001.jpg", a)
	pathB := filepath.Join(env.layout.ExpectedDir, "big_expected001.jpg")
	require.NoError(t, os.WriteFile(pathB, b, 0o644))

	equal, err := env.verifier.VerifyBinaryAt(pathA, pathB)
	require.NoError(t, err)
	assert.False(t, equal)

	equal, err = env.verifier.VerifyBinaryAt(pathA, pathA)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestVerifyBinary_Reflexive(t *testing.T) {
	env := newEnv(t, Options{})
	path := env.writeActual(t, "p_actual001.jpg", []byte("any bytes at all"))

	equal, err := env.verifier.VerifyBinaryAt(path, path)
	require.NoError(t, err)
	assert.True(t, equal)

	empty := env.writeActual(t, "empty_actual001.jpg", nil)
	equal, err = env.verifier.VerifyBinaryAt(empty, empty)
	require.NoError(t, err)
	assert.True(t, equal)
}

func TestVerifyBinary_MissingEitherSide(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeActual(t, "p_actual001.jpg", []byte("abcd"))

	_, err := env.verifier.VerifyBinary("p_actual001.jpg")
	assert.ErrorIs(t, err, domain.ErrMissingFixture)

	require.NoError(t, os.WriteFile(filepath.Join(env.layout.ExpectedDir, "q_expected001.jpg"), []byte("abcd"), 0o644))
	_, err = env.verifier.VerifyBinary("q_actual001.jpg")
	assert.ErrorIs(t, err, domain.ErrMissingFixture)
}

func TestVerifyBinary_DirectoryIsIOFailure(t *testing.T) {
	env := newEnv(t, Options{})
	require.NoError(t, os.MkdirAll(filepath.Join(env.layout.ActualDir, "d_actual001.jpg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.layout.ExpectedDir, "d_expected001.jpg"), []byte("x"), 0o644))

	_, err := env.verifier.VerifyBinary("d_actual001.jpg")
	assert.ErrorIs(t, err, domain.ErrIOFailure)
}

func TestVerify_Reports(t *testing.T) {
	env := newEnv(t, Options{})
	env.writeActual(t, summaryName, []byte(summaryCSV))
	env.writeExpected(t, summaryExpected, summaryCSV)
	env.writeActual(t, "inventory_table_actual010.csv", []byte("station,n\nAgades,10\n"))
	env.writeExpected(t, "inventory_table_expected010.csv", "station,n\nAgades,11\n")
	env.writeActual(t, "inventory_plot_actual010.jpg", []byte("jpeg"))

	pass := env.verifier.Verify(testRunID, summaryName, "")
	assert.Equal(t, domain.OutcomePass, pass.Outcome)
	assert.Equal(t, domain.ArtifactTable, pass.Kind)
	assert.Equal(t, testRunID, pass.RunID)
	assert.Equal(t, filepath.Join(env.layout.ExpectedDir, summaryExpected), pass.ExpectedPath)

	mismatch := env.verifier.Verify(testRunID, "inventory_table_actual010.csv", domain.ArtifactTable)
	assert.Equal(t, domain.OutcomeMismatch, mismatch.Outcome)
	require.Len(t, mismatch.Cells, 1)
	assert.Equal(t, "n", mismatch.Cells[0].Column)

	missing := env.verifier.Verify(testRunID, "inventory_plot_actual010.jpg", "")
	assert.Equal(t, domain.OutcomeError, missing.Outcome)
	assert.Equal(t, domain.ArtifactBinary, missing.Kind)
	assert.Equal(t, "missing_fixture", missing.ErrorKind)

	absent := env.verifier.Verify(testRunID, "timeseries_actual010.csv", "")
	assert.Equal(t, "io_failure", absent.ErrorKind)

	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Verifications.WithLabelValues("table", "pass")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Verifications.WithLabelValues("table", "mismatch")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Verifications.WithLabelValues("binary", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.CellMismatches), 0)
}

func TestNotProduced_DropsMissingFixture(t *testing.T) {
	orig := domain.NewPathError(domain.ErrMissingFixture, "a", os.ErrNotExist)
	err := notProduced(orig, "a")

	assert.ErrorIs(t, err, domain.ErrIOFailure)
	assert.NotErrorIs(t, err, domain.ErrMissingFixture)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
