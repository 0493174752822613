// Package sample produces small deterministic artifacts: a climatic summary
// table and a rendered time series. They seed demo fixtures and exercise the
// verifier end to end.
package sample

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/couchcryptid/cdms-golden-verifier/internal/adapter/csvfile"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	// Artifact name prefixes used by WriteAll.
	SummaryPrefix  = "climatic_summary"
	StationsPrefix = "station_daily"
	PlotPrefix     = "inventory_plot"

	plotWidth  = 4 * vg.Inch
	plotHeight = 3 * vg.Inch
)

// SummaryTable is a one-row table of rainfall and temperature statistics.
func SummaryTable() *domain.Table {
	return mustTable(
		domain.Column{Name: "mean_rain", Values: []domain.Value{domain.Number(1.574531)}},
		domain.Column{Name: "sd_rain", Values: []domain.Value{domain.Number(6.960521)}},
		domain.Column{Name: "mean_tmax", Values: []domain.Value{domain.Number(28.942301)}},
		domain.Column{Name: "sd_tmax", Values: []domain.Value{domain.Number(2.188736)}},
	)
}

// StationTable has daily observations with a date column and gaps.
func StationTable() *domain.Table {
	day := func(d int) domain.Value {
		return domain.Date(time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC))
	}
	return mustTable(
		domain.Column{Name: "station", Values: []domain.Value{
			domain.Text("Madrid"), domain.Text("Madrid"), domain.Text("Seville"),
		}},
		domain.Column{Name: "date", Values: []domain.Value{day(1), day(2), day(1)}},
		domain.Column{Name: "rain", Values: []domain.Value{
			domain.Number(0), domain.Missing(), domain.Number(3.2),
		}},
		domain.Column{Name: "tmax", Values: []domain.Value{
			domain.Number(11.5), domain.Number(12.25), domain.Number(17),
		}},
	)
}

// Point is one observation in a time series.
type Point struct {
	Day   float64
	Value float64
}

// Series returns n points of a smooth seasonal curve. The same n always
// yields the same points.
func Series(n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		x := float64(i)
		pts[i] = Point{Day: x, Value: 20 + 8*math.Sin(2*math.Pi*x/float64(max(n, 1)))}
	}
	return pts
}

// RenderTimeseries draws the points as a line with markers and encodes the
// plot as JPEG. Rendering is deterministic for identical inputs.
func RenderTimeseries(w io.Writer, title string, points []Point) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "day"
	p.Y.Label.Text = "value"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.Day, Y: pt.Value}
	}

	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.LineStyle.Width = vg.Points(1.5)

	marks, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("build scatter: %w", err)
	}
	marks.Shape = draw.CircleGlyph{}
	marks.Radius = vg.Points(2)

	p.Add(line, marks, plotter.NewGrid())

	wt, err := p.WriterTo(plotWidth, plotHeight, "jpg")
	if err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

// WriteAll writes one summary table, one station table and one plot into dir
// using the actual naming convention with sequence number seq. It returns the
// artifact names in write order.
func WriteAll(codec *csvfile.Codec, dir string, seq int) ([]string, error) {
	names := []string{
		domain.ActualName(SummaryPrefix, seq, "csv"),
		domain.ActualName(StationsPrefix, seq, "csv"),
		domain.ActualName(PlotPrefix, seq, "jpg"),
	}
	if err := codec.WriteFile(filepath.Join(dir, names[0]), SummaryTable()); err != nil {
		return nil, err
	}
	if err := codec.WithDateColumns("date").WriteFile(filepath.Join(dir, names[1]), StationTable()); err != nil {
		return nil, err
	}
	plotPath := filepath.Join(dir, names[2])
	err := csvfile.WriteAtomic(plotPath, func(w io.Writer) error {
		if err := RenderTimeseries(w, "Daily maximum temperature", Series(30)); err != nil {
			return domain.NewPathError(domain.ErrMalformedArtifact, plotPath, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

func mustTable(cols ...domain.Column) *domain.Table {
	t, err := domain.NewTable(cols...)
	if err != nil {
		panic(err)
	}
	return t
}
