// Package csvfile is the canonical delimited-text encoding for tabular
// artifacts. Actual and expected tables both pass through it, so whatever the
// text form preserves is exactly what the comparison sees.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
	utf8BOM        = "\ufeff"
)

// Options controls how tables are written and read back.
type Options struct {
	// NAValues are tokens read as missing. Empty fields are always missing.
	NAValues []string
	// NARep is written for missing cells.
	NARep string
	// DateColumns are parsed as dates on read; other columns never are.
	DateColumns []string
	// DayFirst reads ambiguous dates such as 01/02/1991 as 1 February.
	DayFirst bool
	// Precision is the number of decimals written for numbers; -1 writes the
	// shortest text that parses back to the same float64.
	Precision int
}

// DefaultOptions mirrors how the golden files were produced: "NA" sentinel,
// empty field for missing cells, day-first dates, full float precision.
func DefaultOptions() Options {
	return Options{
		NAValues:  []string{"NA"},
		DayFirst:  true,
		Precision: -1,
	}
}

// Codec encodes and decodes tables. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	opts  Options
	na    map[string]struct{}
	dates map[string]struct{}
}

// New creates a Codec from options.
func New(opts Options) *Codec {
	c := &Codec{
		opts:  opts,
		na:    make(map[string]struct{}, len(opts.NAValues)+1),
		dates: make(map[string]struct{}, len(opts.DateColumns)),
	}
	c.na[""] = struct{}{}
	for _, tok := range opts.NAValues {
		c.na[tok] = struct{}{}
	}
	for _, col := range opts.DateColumns {
		c.dates[col] = struct{}{}
	}
	return c
}

// Options returns a copy of the codec options.
func (c *Codec) Options() Options {
	return c.opts
}

// WithDateColumns returns a codec that additionally parses the named columns
// as dates, as needed when loading the raw station datasets.
func (c *Codec) WithDateColumns(columns ...string) *Codec {
	opts := c.opts
	opts.DateColumns = append(append([]string(nil), c.opts.DateColumns...), columns...)
	return New(opts)
}

// Encode writes the header row followed by one row per record.
func (c *Codec) Encode(w io.Writer, t *domain.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, "", err)
	}

	record := make([]string, len(t.Columns))
	for i := 0; i < t.NumRows(); i++ {
		for j, col := range t.Columns {
			record[j] = c.formatValue(col.Values[i])
		}
		if len(record) == 1 && record[0] == "" {
			// A blank line would be skipped on read; quote the lone empty field.
			cw.Flush()
			if err := cw.Error(); err != nil {
				return domain.NewPathError(domain.ErrIOFailure, "", err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return domain.NewPathError(domain.ErrIOFailure, "", err)
			}
			continue
		}
		if err := cw.Write(record); err != nil {
			return domain.NewPathError(domain.ErrIOFailure, "", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return domain.NewPathError(domain.ErrIOFailure, "", err)
	}
	return nil
}

func (c *Codec) formatValue(v domain.Value) string {
	switch v.Kind() {
	case domain.KindNumber:
		f, _ := v.Float()
		if math.IsNaN(f) {
			return c.opts.NARep
		}
		return strconv.FormatFloat(f, 'f', c.opts.Precision, 64)
	case domain.KindString:
		s, _ := v.Str()
		return s
	case domain.KindDate:
		d, _ := v.Time()
		if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
			return d.Format(dateLayout)
		}
		return d.Format(dateTimeLayout)
	default:
		return c.opts.NARep
	}
}

// Decode reads a table. Columns listed in DateColumns become dates; any other
// column whose present values all parse as numbers becomes numeric, and the
// rest stay strings.
func (c *Codec) Decode(r io.Reader) (*domain.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, domain.NewPathError(domain.ErrMalformedArtifact, "", err)
	}
	if len(records) == 0 {
		return nil, domain.NewPathError(domain.ErrMalformedArtifact, "", errors.New("no header row"))
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	rows := records[1:]

	columns := make([]domain.Column, len(header))
	for j, name := range header {
		raw := make([]string, len(rows))
		for i, row := range rows {
			raw[i] = row[j]
		}
		values, err := c.decodeColumn(name, raw)
		if err != nil {
			return nil, err
		}
		columns[j] = domain.Column{Name: name, Values: values}
	}
	return domain.NewTable(columns...)
}

func (c *Codec) decodeColumn(name string, raw []string) ([]domain.Value, error) {
	values := make([]domain.Value, len(raw))

	if _, isDate := c.dates[name]; isDate {
		for i, s := range raw {
			if c.isMissing(s) {
				values[i] = domain.Missing()
				continue
			}
			d, err := parseDate(s, c.opts.DayFirst)
			if err != nil {
				return nil, domain.NewCellError(domain.ErrMalformedArtifact, "", name, i, err)
			}
			values[i] = domain.Date(d)
		}
		return values, nil
	}

	numeric := true
	for i, s := range raw {
		if c.isMissing(s) {
			values[i] = domain.Missing()
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			numeric = false
			break
		}
		values[i] = domain.Number(f)
	}
	if numeric {
		return values, nil
	}

	for i, s := range raw {
		if c.isMissing(s) {
			values[i] = domain.Missing()
			continue
		}
		values[i] = domain.Text(s)
	}
	return values, nil
}

func (c *Codec) isMissing(s string) bool {
	_, ok := c.na[s]
	return ok
}

// parseDate reads any format dateparse recognises. Ambiguous numeric dates
// such as 01/02/1991 follow dayFirst; an impossible reading (13/02/1991 when
// month-first) is retried with day and month swapped.
func parseDate(s string, dayFirst bool) (time.Time, error) {
	d, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC,
		dateparse.PreferMonthFirst(!dayFirst),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q: %w", s, err)
	}
	return d, nil
}
